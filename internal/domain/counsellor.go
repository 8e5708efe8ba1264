package domain

import "time"

// CounsellorRole gates administrative endpoints.
type CounsellorRole string

const (
	RoleCounsellor CounsellorRole = "COUNSELLOR"
	RoleAdmin      CounsellorRole = "ADMIN"
)

// Counsellor is a human agent replying to tickets.
type Counsellor struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         CounsellorRole
	CreatedAt    time.Time
}
