package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID                string `gorm:"primaryKey"`
	Email             string `gorm:"uniqueIndex;not null"`
	Username          string
	FirstName         string
	LastName          string
	ContactNumber     string
	Bio               string `gorm:"type:text"`
	ProfilePictureKey string
	PasswordHash      string `gorm:"not null"`
	Role              string `gorm:"not null"`
	Active            bool   `gorm:"not null"`
	OTPHash           string
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time
}

type RefreshTokenModel struct {
	ID        string    `gorm:"primaryKey"`
	UserID    string    `gorm:"not null;index"`
	TokenHash string    `gorm:"uniqueIndex;not null"`
	ExpiresAt time.Time `gorm:"not null"`
	Revoked   bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

type ContentModel struct {
	ID              string         `gorm:"primaryKey"`
	OwnerID         string         `gorm:"not null;index"`
	Kind            string         `gorm:"not null;index"`
	Title           string         `gorm:"not null"`
	Description     string         `gorm:"type:text"`
	Location        string
	Tags            datatypes.JSON `gorm:"type:jsonb"`
	Categories      datatypes.JSON `gorm:"type:jsonb"`
	MediaKeys       datatypes.JSON `gorm:"type:jsonb"`
	ThumbnailKey    string
	Status          string `gorm:"not null;index"`
	RejectionReason string
	LikesCount      int64     `gorm:"not null;default:0"`
	DislikesCount   int64     `gorm:"not null;default:0"`
	Views           int64     `gorm:"not null;default:0"`
	Shares          int64     `gorm:"not null;default:0"`
	CreatedAt       time.Time `gorm:"not null;index"`
	ExpiresAt       time.Time `gorm:"not null;index"`
}

type CommentModel struct {
	ID        string    `gorm:"primaryKey"`
	UserID    string    `gorm:"not null;index"`
	ContentID string    `gorm:"not null;index"`
	Text      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}

type ReportModel struct {
	ID        string    `gorm:"primaryKey"`
	UserID    string    `gorm:"not null;index"`
	ContentID string    `gorm:"not null;index"`
	Reason    string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}
