package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"clipshare/internal/util"
	"clipshare/pkg/domain"
)

// Upload is one media file attached to a submission.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// SubmitInput carries the fields of a content submission.
type SubmitInput struct {
	Kind        domain.ContentKind
	Title       string
	Description string
	Location    string
	Tags        []string
	Categories  []string
	Media       []Upload
	Thumbnail   *Upload
}

// Submit stores a new submission. Media uploads to object storage first so a
// failed upload never leaves a metadata row behind. The item starts pending
// review and expires after the content TTL unless approval resets the clock.
func (a *App) Submit(ctx context.Context, owner domain.User, in SubmitInput) (domain.Content, error) {
	if err := a.validateSubmission(in); err != nil {
		return domain.Content{}, err
	}
	keys := make([]string, 0, len(in.Media))
	for _, m := range in.Media {
		key := mediaKey(owner.ID, m.Filename)
		if err := a.objects.Put(ctx, key, m.Reader, m.Size, m.ContentType); err != nil {
			a.removeObjects(ctx, keys)
			return domain.Content{}, fmt.Errorf("upload media: %w", err)
		}
		keys = append(keys, key)
	}
	thumbKey := ""
	if in.Thumbnail != nil {
		thumbKey = mediaKey(owner.ID, in.Thumbnail.Filename)
		if err := a.objects.Put(ctx, thumbKey, in.Thumbnail.Reader, in.Thumbnail.Size, in.Thumbnail.ContentType); err != nil {
			a.removeObjects(ctx, keys)
			return domain.Content{}, fmt.Errorf("upload thumbnail: %w", err)
		}
	} else if in.Kind == domain.KindVideo {
		derived, err := a.objects.DeriveThumbnail(ctx, keys[0])
		if err != nil {
			a.removeObjects(ctx, keys)
			return domain.Content{}, fmt.Errorf("derive thumbnail: %w", err)
		}
		thumbKey = derived
	}
	now := time.Now().UTC()
	content := domain.Content{
		ID:           util.NewID(),
		OwnerID:      owner.ID,
		Kind:         in.Kind,
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Location:     strings.TrimSpace(in.Location),
		Tags:         cleanStrings(in.Tags),
		Categories:   cleanStrings(in.Categories),
		MediaKeys:    keys,
		ThumbnailKey: thumbKey,
		Status:       domain.StatusPending,
		CreatedAt:    now,
		ExpiresAt:    now.Add(a.contentTTL),
	}
	if err := a.store.SaveContent(content); err != nil {
		a.removeObjects(ctx, append(keys, thumbKey))
		return domain.Content{}, fmt.Errorf("save content: %w", err)
	}
	return content, nil
}

func (a *App) validateSubmission(in SubmitInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	switch in.Kind {
	case domain.KindVideo:
		if len(in.Media) != 1 {
			return fmt.Errorf("%w: a video submission needs exactly one file", ErrValidation)
		}
		if !strings.HasPrefix(in.Media[0].ContentType, "video/") {
			return fmt.Errorf("%w: file must be a video", ErrValidation)
		}
	case domain.KindImage:
		if len(in.Media) < 1 || len(in.Media) > a.maxImages {
			return fmt.Errorf("%w: an image post needs 1 to %d files", ErrValidation, a.maxImages)
		}
		for _, m := range in.Media {
			if !strings.HasPrefix(m.ContentType, "image/") {
				return fmt.Errorf("%w: all files must be images", ErrValidation)
			}
		}
	default:
		return fmt.Errorf("%w: unknown content kind %q", ErrValidation, in.Kind)
	}
	if in.Thumbnail != nil && !strings.HasPrefix(in.Thumbnail.ContentType, "image/") {
		return fmt.Errorf("%w: thumbnail must be an image", ErrValidation)
	}
	return nil
}

func mediaKey(ownerID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return ownerID + "/" + uuid.NewString() + ext
}

func (a *App) removeObjects(ctx context.Context, keys []string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := a.objects.Delete(ctx, key); err != nil {
			slog.Warn("delete media object", "key", key, "error", err)
		}
	}
}

func cleanStrings(values []string) []string {
	res := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			res = append(res, v)
		}
	}
	return res
}

// Approve moves pending content to approved and restarts its expiry clock.
func (a *App) Approve(id string) (domain.Content, error) {
	expiresAt := time.Now().UTC().Add(a.contentTTL)
	return a.decide(id, domain.StatusApproved, "", &expiresAt)
}

// Reject moves pending content to rejected with the moderator's reason. The
// expiry clock keeps running so rejected items still age out.
func (a *App) Reject(id, reason string) (domain.Content, error) {
	if strings.TrimSpace(reason) == "" {
		return domain.Content{}, fmt.Errorf("%w: a rejection reason is required", ErrValidation)
	}
	return a.decide(id, domain.StatusRejected, strings.TrimSpace(reason), nil)
}

func (a *App) decide(id string, to domain.ContentStatus, reason string, expiresAt *time.Time) (domain.Content, error) {
	ok, err := a.store.TransitionStatus(id, domain.StatusPending, to, reason, expiresAt)
	if err != nil {
		return domain.Content{}, fmt.Errorf("transition status: %w", err)
	}
	if !ok {
		if _, found, err := a.store.GetContent(id); err != nil {
			return domain.Content{}, fmt.Errorf("fetch content: %w", err)
		} else if !found {
			return domain.Content{}, ErrNotFound
		}
		return domain.Content{}, ErrInvalidState
	}
	content, _, err := a.store.GetContent(id)
	if err != nil {
		return domain.Content{}, fmt.Errorf("fetch content: %w", err)
	}
	return content, nil
}

// DeleteContent removes a submission and its media. Owners may delete their
// own items; admins may delete anything.
func (a *App) DeleteContent(ctx context.Context, actor domain.User, id string) error {
	content, ok, err := a.store.GetContent(id)
	if err != nil {
		return fmt.Errorf("fetch content: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	if content.OwnerID != actor.ID && actor.Role != domain.RoleAdmin {
		return ErrForbidden
	}
	a.removeObjects(ctx, append(content.MediaKeys, content.ThumbnailKey))
	if err := a.store.DeleteContent(id); err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	return nil
}

// GetContent returns one item. Non-approved items are visible only to the
// owner and admins.
func (a *App) GetContent(actor domain.User, id string) (domain.Content, error) {
	content, ok, err := a.store.GetContent(id)
	if err != nil {
		return domain.Content{}, fmt.Errorf("fetch content: %w", err)
	}
	if !ok {
		return domain.Content{}, ErrNotFound
	}
	if content.Status != domain.StatusApproved && content.OwnerID != actor.ID && actor.Role != domain.RoleAdmin {
		return domain.Content{}, ErrNotFound
	}
	return content, nil
}

// Feed returns a page of approved content, newest first. The "all" category
// means no category filter.
func (a *App) Feed(kind domain.ContentKind, category, location string, page, size int) (domain.ContentPage, error) {
	if kind != "" && kind != domain.KindVideo && kind != domain.KindImage {
		return domain.ContentPage{}, fmt.Errorf("%w: unknown content kind %q", ErrValidation, kind)
	}
	if strings.EqualFold(category, "all") {
		category = ""
	}
	return a.store.Feed(kind, category, location, clampPage(page), clampSize(size))
}

// Search matches approved content across title, description, tags, location,
// and categories.
func (a *App) Search(query string, page, size int) (domain.ContentPage, error) {
	if strings.TrimSpace(query) == "" {
		return domain.ContentPage{}, fmt.Errorf("%w: query is required", ErrValidation)
	}
	return a.store.SearchContent(strings.TrimSpace(query), clampPage(page), clampSize(size))
}

// Suggestions returns up to limit approved titles matching the prefix,
// ordered by popularity.
func (a *App) Suggestions(query string, limit int) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return []string{}, nil
	}
	if limit <= 0 || limit > 25 {
		limit = 10
	}
	return a.store.Suggestions(strings.TrimSpace(query), limit)
}

// MyContent returns the actor's own submissions regardless of status.
func (a *App) MyContent(actor domain.User) ([]domain.Content, error) {
	return a.store.ListContentByOwner(actor.ID)
}

// ContentByUser returns a user's submissions. Owners and admins see every
// status; anyone else sees approved items only.
func (a *App) ContentByUser(actor domain.User, userID string) ([]domain.Content, error) {
	if _, ok, err := a.store.GetUserByID(userID); err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	} else if !ok {
		return nil, ErrNotFound
	}
	items, err := a.store.ListContentByOwner(userID)
	if err != nil {
		return nil, err
	}
	if actor.ID == userID || actor.Role == domain.RoleAdmin {
		return items, nil
	}
	visible := make([]domain.Content, 0, len(items))
	for _, c := range items {
		if c.Status == domain.StatusApproved {
			visible = append(visible, c)
		}
	}
	return visible, nil
}

// OpenMedia opens one media object of a content item for streaming. The same
// visibility rules as GetContent apply.
func (a *App) OpenMedia(ctx context.Context, actor domain.User, id string, index int) (io.ReadCloser, int64, string, error) {
	content, err := a.GetContent(actor, id)
	if err != nil {
		return nil, 0, "", err
	}
	if index < 0 || index >= len(content.MediaKeys) {
		return nil, 0, "", ErrNotFound
	}
	rc, size, contentType, err := a.objects.Get(ctx, content.MediaKeys[index])
	if err != nil {
		return nil, 0, "", fmt.Errorf("open media: %w", err)
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(content.MediaKeys[index]))
	}
	return rc, size, contentType, nil
}

// mediaURLTTL bounds how long a pre-signed media link stays valid.
const mediaURLTTL = 15 * time.Minute

// MediaURL returns a short-lived pre-signed URL for one media object so
// clients can fetch large files straight from object storage instead of
// proxying the bytes through the API.
func (a *App) MediaURL(ctx context.Context, actor domain.User, id string, index int) (string, error) {
	content, err := a.GetContent(actor, id)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(content.MediaKeys) {
		return "", ErrNotFound
	}
	url, err := a.objects.PresignGet(ctx, content.MediaKeys[index], mediaURLTTL)
	if err != nil {
		return "", fmt.Errorf("presign media: %w", err)
	}
	return url, nil
}

// OpenThumbnail opens the thumbnail object of a content item.
func (a *App) OpenThumbnail(ctx context.Context, actor domain.User, id string) (io.ReadCloser, int64, string, error) {
	content, err := a.GetContent(actor, id)
	if err != nil {
		return nil, 0, "", err
	}
	if content.ThumbnailKey == "" {
		return nil, 0, "", ErrNotFound
	}
	rc, size, contentType, err := a.objects.Get(ctx, content.ThumbnailKey)
	if err != nil {
		return nil, 0, "", fmt.Errorf("open thumbnail: %w", err)
	}
	return rc, size, contentType, nil
}

// Like increments the like counter.
func (a *App) Like(id string) error { return a.bump(a.store.AddLike, id) }

// Dislike increments the dislike counter.
func (a *App) Dislike(id string) error { return a.bump(a.store.AddDislike, id) }

// View increments the view counter.
func (a *App) View(id string) error { return a.bump(a.store.AddView, id) }

// Share increments the share counter.
func (a *App) Share(id string) error { return a.bump(a.store.AddShare, id) }

// RemoveReaction decrements the like and dislike counters, flooring at zero.
func (a *App) RemoveReaction(id string) error { return a.bump(a.store.RemoveLikeDislike, id) }

func (a *App) bump(op func(string) (bool, error), id string) error {
	ok, err := op(id)
	if err != nil {
		return fmt.Errorf("update counter: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// AddComment attaches a comment to a content item.
func (a *App) AddComment(actor domain.User, contentID, text string) (domain.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Comment{}, fmt.Errorf("%w: comment text is required", ErrValidation)
	}
	if _, err := a.GetContent(actor, contentID); err != nil {
		return domain.Comment{}, err
	}
	comment := domain.Comment{
		ID:        util.NewID(),
		UserID:    actor.ID,
		ContentID: contentID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.store.AddComment(comment); err != nil {
		return domain.Comment{}, fmt.Errorf("save comment: %w", err)
	}
	return comment, nil
}

// Comments lists a content item's comments, newest first.
func (a *App) Comments(actor domain.User, contentID string) ([]domain.Comment, error) {
	if _, err := a.GetContent(actor, contentID); err != nil {
		return nil, err
	}
	return a.store.ListComments(contentID)
}

// Report files a moderation report against a content item.
func (a *App) Report(actor domain.User, contentID, reason string) (domain.Report, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return domain.Report{}, fmt.Errorf("%w: a report reason is required", ErrValidation)
	}
	if _, err := a.GetContent(actor, contentID); err != nil {
		return domain.Report{}, err
	}
	report := domain.Report{
		ID:        util.NewID(),
		UserID:    actor.ID,
		ContentID: contentID,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.store.AddReport(report); err != nil {
		return domain.Report{}, fmt.Errorf("save report: %w", err)
	}
	return report, nil
}

// Reports lists all open reports for admins.
func (a *App) Reports() ([]domain.Report, error) {
	return a.store.ListReports()
}

// DismissReport closes a report without touching the reported content.
func (a *App) DismissReport(id string) error {
	if err := a.store.DeleteReport(id); err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	return nil
}

// PendingContent lists items awaiting review, optionally one kind.
func (a *App) PendingContent(kind domain.ContentKind) ([]domain.Content, error) {
	return a.store.ListContentByStatus(kind, domain.StatusPending)
}

// AdminSearch matches content of any status on title or description.
func (a *App) AdminSearch(query string, page, size int) (domain.ContentPage, error) {
	return a.store.AdminSearchContent(strings.TrimSpace(query), clampPage(page), clampSize(size))
}

func clampPage(page int) int {
	if page < 0 {
		return 0
	}
	return page
}

func clampSize(size int) int {
	if size <= 0 || size > 100 {
		return 10
	}
	return size
}
