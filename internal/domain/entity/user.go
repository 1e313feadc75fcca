package entity

import "time"

// User es un usuario del sistema con acceso a la API.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FullName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
