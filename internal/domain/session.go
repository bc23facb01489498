package domain

import "time"

// OTPChallenge es el desafio pendiente entre el login por password y la
// verificacion del codigo. Solo vive en el ChallengeStore.
type OTPChallenge struct {
	SessionKey string    `json:"session_key"`
	CodeHash   string    `json:"code_hash"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (c OTPChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
