package domain

import "time"

// Token represents issued authentication token metadata.
type Token struct {
	ID        string
	SubjectID string
	Role      Role
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// PasswordResetToken is a short-lived token allowing a password change without login.
type PasswordResetToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}
