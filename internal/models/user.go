package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User types. The type gates which role-specific routes a token may use.
const (
	UserTypeClient = "client"
	UserTypeStore  = "store"
)

// User represents the application user account.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email          string             `bson:"email" json:"email"`
	PasswordHash   string             `bson:"passwordHash" json:"-"`
	FirstName      string             `bson:"firstName" json:"first_name"`
	LastName       string             `bson:"lastName" json:"last_name"`
	Phone          string             `bson:"phone,omitempty" json:"phone,omitempty"`
	City           string             `bson:"city" json:"city"`
	UserType       string             `bson:"userType" json:"user_type"`
	ProfilePicture string             `bson:"profilePicture,omitempty" json:"profile_picture,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updated_at"`
}

// KnownUserType reports whether the value is a supported account type.
func KnownUserType(userType string) bool {
	return userType == UserTypeClient || userType == UserTypeStore
}
