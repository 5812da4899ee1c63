package models

import (
	"time"
)

// User is an account. AuthToken holds the sha256 digest of the Auth0 subject the
// account signed up with and is never serialized.
type User struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Username       string    `gorm:"column:username;type:varchar(255);uniqueIndex;not null" json:"username"`
	Email          string    `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	AuthToken      string    `gorm:"column:auth_token;type:varchar(255);not null;index" json:"-"`
	Deactivated    bool      `gorm:"column:deactivated;default:false" json:"deactivated"`
	FullName       string    `gorm:"column:full_name;type:varchar(255)" json:"full_name"`
	ProfilePicture string    `gorm:"column:profile_picture;type:text" json:"profile_picture"`
	Bio            string    `gorm:"column:bio;type:text" json:"bio"`
	Region         string    `gorm:"column:Region;type:varchar(64)" json:"region"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string {
	return "Users_new"
}

// Preference is a news category a user follows. The first one saved drives
// the default My News category.
type Preference struct {
	Username   string    `gorm:"column:username;type:varchar(255);primaryKey" json:"username"`
	Preference string    `gorm:"column:preference;type:varchar(128);primaryKey" json:"preference"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Preference) TableName() string {
	return "Preferences"
}
