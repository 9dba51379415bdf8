package domain

import "time"

// User is a plain user record managed through the /api/users endpoints.
// It is unrelated to Account.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       int       `json:"age"`
	CreatedAt time.Time `json:"createdAt"`
}
