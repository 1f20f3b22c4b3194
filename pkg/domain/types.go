package domain

import "time"

type ContentStatus string

const (
	StatusPending  ContentStatus = "pending"
	StatusApproved ContentStatus = "approved"
	StatusRejected ContentStatus = "rejected"
)

type ContentKind string

const (
	KindVideo ContentKind = "video"
	KindImage ContentKind = "image"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	Username          string    `json:"username"`
	FirstName         string    `json:"firstName"`
	LastName          string    `json:"lastName"`
	ContactNumber     string    `json:"contactNumber,omitempty"`
	Bio               string    `json:"bio,omitempty"`
	ProfilePictureKey string    `json:"-"`
	PasswordHash      string    `json:"-"`
	Role              UserRole  `json:"role"`
	Active            bool      `json:"active"`
	OTPHash           string    `json:"-"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// RefreshToken rows are revoked on logout, never deleted, so the table
// doubles as an audit trail. Only a hash of the client token is stored.
type RefreshToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	Revoked   bool      `json:"revoked"`
	CreatedAt time.Time `json:"createdAt"`
}

// Content models both video and image-post submissions. Video items carry
// exactly one media key plus a thumbnail; image posts carry 1 to 5 keys.
type Content struct {
	ID              string        `json:"id"`
	OwnerID         string        `json:"ownerId"`
	Kind            ContentKind   `json:"kind"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Location        string        `json:"location,omitempty"`
	Tags            []string      `json:"tags,omitempty"`
	Categories      []string      `json:"categories,omitempty"`
	MediaKeys       []string      `json:"-"`
	ThumbnailKey    string        `json:"-"`
	Status          ContentStatus `json:"status"`
	RejectionReason string        `json:"rejectionReason,omitempty"`
	LikesCount      int64         `json:"likesCount"`
	DislikesCount   int64         `json:"dislikesCount"`
	Views           int64         `json:"views"`
	Shares          int64         `json:"shares"`
	CreatedAt       time.Time     `json:"createdAt"`
	ExpiresAt       time.Time     `json:"expiresAt"`
}

type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ContentID string    `json:"contentId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type Report struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ContentID string    `json:"contentId"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

// ContentPage is one page of a feed or search result.
type ContentPage struct {
	Items []Content `json:"items"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Size  int       `json:"size"`
}
