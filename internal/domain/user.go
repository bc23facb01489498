package domain

import "time"

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity es la identidad autenticada que viaja dentro del token de sesion.
type Identity struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}
