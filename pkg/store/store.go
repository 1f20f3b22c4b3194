package store

import (
	"time"

	"clipshare/pkg/domain"
)

// Store defines persistence operations for users, refresh tokens, content,
// and interaction sub-records. Counter mutations and status transitions are
// single atomic statements so concurrent requests cannot lose updates.
type Store interface {
	// users
	SaveUser(domain.User) error
	HasUserEmail(email string) (bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)
	ListUsers() ([]domain.User, error)
	SearchUsers(query string) ([]domain.User, error)
	DeleteUser(id string) error

	// refresh tokens
	// ReplaceRefreshToken removes any prior tokens for the owning user and
	// inserts the new one in a single transaction (at most one live token
	// per account).
	ReplaceRefreshToken(domain.RefreshToken) error
	SaveRefreshToken(domain.RefreshToken) error
	GetRefreshTokenByHash(hash string) (domain.RefreshToken, bool, error)
	RevokeRefreshToken(id string) error

	// content
	SaveContent(domain.Content) error
	GetContent(id string) (domain.Content, bool, error)
	DeleteContent(id string) error
	ListContentByOwner(ownerID string) ([]domain.Content, error)
	ListContentByStatus(kind domain.ContentKind, status domain.ContentStatus) ([]domain.Content, error)
	ListContentExpiredBefore(t time.Time) ([]domain.Content, error)
	Feed(kind domain.ContentKind, category, location string, page, size int) (domain.ContentPage, error)
	SearchContent(query string, page, size int) (domain.ContentPage, error)
	AdminSearchContent(query string, page, size int) (domain.ContentPage, error)
	Suggestions(query string, limit int) ([]string, error)

	// TransitionStatus flips status (and optionally expiry and rejection
	// reason) only when the row is currently in the from status. Returns
	// false when no row matched, leaving the caller to distinguish a
	// missing row from an illegal transition.
	TransitionStatus(id string, from, to domain.ContentStatus, reason string, expiresAt *time.Time) (bool, error)

	// counters (atomic read-modify-write at the store)
	AddLike(id string) (bool, error)
	AddDislike(id string) (bool, error)
	AddView(id string) (bool, error)
	AddShare(id string) (bool, error)
	// RemoveLikeDislike decrements both counters, flooring each at zero.
	RemoveLikeDislike(id string) (bool, error)

	// comments and reports
	AddComment(domain.Comment) error
	ListComments(contentID string) ([]domain.Comment, error)
	AddReport(domain.Report) error
	ListReports() ([]domain.Report, error)
	DeleteReport(id string) error
}
