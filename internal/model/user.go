package model

import "time"

// Roles stored in users.role and carried in JWT claims. AGENT is not a
// users row; agents live in their own table and get a narrower session.
const (
	RoleCustomer  = "CUSTOMER"
	RoleOrganizer = "ORGANIZER"
	RoleAdmin     = "ADMIN"
	RoleAgent     = "AGENT"
)

// User represents an application account as stored in the `users`
// table. Handlers define separate response types with JSON tags; this
// struct is used by the repository layer only.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – CUSTOMER, ORGANIZER or ADMIN.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table. Each
// refresh token belongs to a user; only the SHA-256 hash of the token
// is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
