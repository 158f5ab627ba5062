package model

import "time"

// User represents an application user record as stored in the `users`
// table. Roles are plain strings: USER for regular accounts and ADMIN for
// accounts allowed to publish security alerts. The subscription tier is
// deliberately not part of this struct; it lives in the `profiles` table
// and is resolved per request (see repository.ProfileRepo).
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Email        – unique email address.
//	PasswordHash – bcrypt hashed password.
//	Role         – USER or ADMIN.
//	IsActive     – whether the account is active.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RefreshToken models an entry in the `refresh_tokens` table. Each refresh
// token belongs to a user and carries expiry and revocation metadata. The
// plain token is never stored; only its SHA-256 hash.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
