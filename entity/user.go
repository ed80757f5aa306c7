package entity

import "time"

type User struct {
	ID                  string     `db:"user_id"`
	Email               string     `db:"email"`
	MembershipExpiresAt *time.Time `db:"membership_expires_at"`
}
