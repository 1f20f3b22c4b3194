package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"clipshare/pkg/domain"
)

// ProfileInput carries the editable profile fields. Nil pointers leave the
// current value unchanged.
type ProfileInput struct {
	Username      *string
	FirstName     *string
	LastName      *string
	ContactNumber *string
	Bio           *string
}

// UpdateProfile applies profile edits for the current user.
func (a *App) UpdateProfile(actor domain.User, in ProfileInput) (domain.User, error) {
	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if name == "" {
			return domain.User{}, fmt.Errorf("%w: username cannot be empty", ErrValidation)
		}
		actor.Username = name
	}
	if in.FirstName != nil {
		actor.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		actor.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.ContactNumber != nil {
		actor.ContactNumber = strings.TrimSpace(*in.ContactNumber)
	}
	if in.Bio != nil {
		actor.Bio = strings.TrimSpace(*in.Bio)
	}
	actor.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveUser(actor); err != nil {
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}
	return actor, nil
}

// SetProfilePicture uploads a new profile picture, replacing the old object.
func (a *App) SetProfilePicture(ctx context.Context, actor domain.User, picture Upload) (domain.User, error) {
	if !strings.HasPrefix(picture.ContentType, "image/") {
		return domain.User{}, fmt.Errorf("%w: profile picture must be an image", ErrValidation)
	}
	key := mediaKey(actor.ID, picture.Filename)
	if err := a.objects.Put(ctx, key, picture.Reader, picture.Size, picture.ContentType); err != nil {
		return domain.User{}, fmt.Errorf("upload profile picture: %w", err)
	}
	old := actor.ProfilePictureKey
	actor.ProfilePictureKey = key
	actor.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveUser(actor); err != nil {
		a.removeObjects(ctx, []string{key})
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}
	if old != "" {
		a.removeObjects(ctx, []string{old})
	}
	return actor, nil
}

// OpenProfilePicture opens a user's profile picture for streaming.
func (a *App) OpenProfilePicture(ctx context.Context, userID string) (io.ReadCloser, int64, string, error) {
	user, ok, err := a.store.GetUserByID(userID)
	if err != nil {
		return nil, 0, "", fmt.Errorf("fetch user: %w", err)
	}
	if !ok || user.ProfilePictureKey == "" {
		return nil, 0, "", ErrNotFound
	}
	rc, size, contentType, err := a.objects.Get(ctx, user.ProfilePictureKey)
	if err != nil {
		return nil, 0, "", fmt.Errorf("open profile picture: %w", err)
	}
	return rc, size, contentType, nil
}

// GetUser returns a user's public profile.
func (a *App) GetUser(id string) (domain.User, error) {
	user, ok, err := a.store.GetUserByID(id)
	if err != nil {
		return domain.User{}, fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return user, nil
}

// ListUsers returns all accounts. Admin use only.
func (a *App) ListUsers() ([]domain.User, error) {
	return a.store.ListUsers()
}

// SearchUsers matches accounts on username, email, or contact number. Admin
// use only.
func (a *App) SearchUsers(query string) ([]domain.User, error) {
	if strings.TrimSpace(query) == "" {
		return []domain.User{}, nil
	}
	return a.store.SearchUsers(strings.TrimSpace(query))
}

// SetUserActive blocks or unblocks an account. A blocked account cannot log
// in and its access tokens stop resolving. Admin use only; admins cannot
// block themselves.
func (a *App) SetUserActive(actor domain.User, id string, active bool) (domain.User, error) {
	if actor.ID == id {
		return domain.User{}, fmt.Errorf("%w: cannot change own status", ErrValidation)
	}
	user, ok, err := a.store.GetUserByID(id)
	if err != nil {
		return domain.User{}, fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return domain.User{}, ErrNotFound
	}
	if user.Active == active {
		return user, nil
	}
	user.Active = active
	user.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// ToggleUserActive flips an account's active flag.
func (a *App) ToggleUserActive(actor domain.User, id string) (domain.User, error) {
	if actor.ID == id {
		return domain.User{}, fmt.Errorf("%w: cannot change own status", ErrValidation)
	}
	user, ok, err := a.store.GetUserByID(id)
	if err != nil {
		return domain.User{}, fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return a.SetUserActive(actor, id, !user.Active)
}

// DeleteUser removes an account with its submissions, media, and tokens.
// Admin use only; admins cannot delete themselves.
func (a *App) DeleteUser(ctx context.Context, actor domain.User, id string) error {
	if actor.ID == id {
		return fmt.Errorf("%w: cannot delete own account", ErrValidation)
	}
	user, ok, err := a.store.GetUserByID(id)
	if err != nil {
		return fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	owned, err := a.store.ListContentByOwner(id)
	if err != nil {
		return fmt.Errorf("list content: %w", err)
	}
	for _, content := range owned {
		a.removeObjects(ctx, append(content.MediaKeys, content.ThumbnailKey))
		if err := a.store.DeleteContent(content.ID); err != nil {
			return fmt.Errorf("delete content: %w", err)
		}
	}
	if user.ProfilePictureKey != "" {
		a.removeObjects(ctx, []string{user.ProfilePictureKey})
	}
	if err := a.store.DeleteUser(id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
