package domain

import "time"

// Course es una entrada del catalogo. Rating y Price son opcionales en el dataset.
type Course struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Instructor  string    `json:"instructor"`
	Rating      *float64  `json:"rating"`
	Price       *float64  `json:"price"`
	Image       string    `json:"image,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type SavedCourse struct {
	Username  string    `json:"username"`
	CourseID  string    `json:"course_id"`
	CreatedAt time.Time `json:"created_at"`
}
