package models

import "time"

type AuthProvider string

const (
	AuthProviderLocal  AuthProvider = "local"
	AuthProviderGoogle AuthProvider = "google"
)

const DefaultProfilePicture = "default.png"

// User is an account. Password and Token never leave the server.
type User struct {
	ID             string       `json:"_id" bson:"_id" gorm:"primaryKey;size:24"`
	Name           string       `json:"name" bson:"name" gorm:"not null"`
	Username       string       `json:"username" bson:"username" gorm:"uniqueIndex;not null"`
	Email          string       `json:"email" bson:"email" gorm:"uniqueIndex;not null"`
	Password       string       `json:"-" bson:"password"`
	Token          string       `json:"-" bson:"token" gorm:"index"`
	GoogleID       *string      `json:"-" bson:"googleId,omitempty" gorm:"uniqueIndex"`
	AuthProvider   AuthProvider `json:"authProvider" bson:"authProvider" gorm:"size:16;default:local"`
	ProfilePicture string       `json:"profilePicture" bson:"profilePicture"`
	Active         bool         `json:"active" bson:"active"`
	CreatedAt      time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// PublicUser is the part of a user other users may see
type PublicUser struct {
	ID             string `json:"_id" bson:"_id"`
	Name           string `json:"name" bson:"name"`
	Username       string `json:"username" bson:"username"`
	Email          string `json:"email" bson:"email"`
	ProfilePicture string `json:"profilePicture" bson:"profilePicture"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:             u.ID,
		Name:           u.Name,
		Username:       u.Username,
		Email:          u.Email,
		ProfilePicture: u.ProfilePicture,
	}
}
