package models

import (
	"time"
)

// User defines the dashboard account model based on the 'users' table
type User struct {
	ID        int64     `json:"id" db:"id" example:"1"`
	Username  string    `json:"username" db:"username" example:"registrar"`
	Email     string    `json:"email" db:"email" example:"registrar@school.edu"`
	Password  string    `json:"-" db:"password"` // hashed
	CreatedAt time.Time `json:"createdAt" db:"created_at" example:"2024-01-01T10:00:00Z"`
}
