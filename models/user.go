package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// User roles.
const (
	RoleUser           = "user"
	RoleAdmin          = "admin"
	RoleCampusSecurity = "campus_security"
)

// Account statuses. A deactivated user is rejected at login and on every
// authenticated request.
const (
	UserStatusActive      = "active"
	UserStatusDeactivated = "deactivated"
)

type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email          string             `bson:"email" json:"email"`
	PasswordHash   *string            `bson:"passwordHash,omitempty" json:"-"`
	Name           string             `bson:"name" json:"name"`
	ContactNumber  string             `bson:"contactNumber" json:"contactNumber"`
	ProfilePicture string             `bson:"profilePicture" json:"profilePicture"`
	Role           string             `bson:"role" json:"role"`
	Status         string             `bson:"status" json:"status"`

	// Per-category opt-outs. A key that is present and false suppresses
	// that category; absent means enabled.
	NotificationPrefs map[string]bool `bson:"notificationPrefs,omitempty" json:"notificationPrefs,omitempty"`

	CreatedAt int64 `bson:"createdAt" json:"createdAt"`
	LastSeen  int64 `bson:"lastSeen" json:"lastSeen"`
}

// UserSnapshot is the denormalized identity embedded in posts and
// conversations so list views render without a join.
type UserSnapshot struct {
	ID             primitive.ObjectID `bson:"id" json:"id"`
	Name           string             `bson:"name" json:"name"`
	ContactNumber  string             `bson:"contactNumber,omitempty" json:"contactNumber,omitempty"`
	ProfilePicture string             `bson:"profilePicture,omitempty" json:"profilePicture,omitempty"`
}

// Snapshot returns the embeddable identity of u.
func (u *User) Snapshot() UserSnapshot {
	return UserSnapshot{
		ID:             u.ID,
		Name:           u.Name,
		ContactNumber:  u.ContactNumber,
		ProfilePicture: u.ProfilePicture,
	}
}
