package models

import "time"

type UserRole string

const (
	UserRoleUser   UserRole = "user"
	UserRoleEditor UserRole = "editor"
	UserRoleAdmin  UserRole = "admin"
)

func ValidRole(role string) bool {
	switch UserRole(role) {
	case UserRoleUser, UserRoleEditor, UserRoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID            string
	Email         string
	Username      *string
	PasswordHash  []byte
	Name          string
	Bio           *string
	AvatarURL     *string
	Role          UserRole
	IsActive      bool
	EmailVerified bool
	LastLoginAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
