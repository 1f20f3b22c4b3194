package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"clipshare/pkg/domain"
)

// MemoryStore keeps all records in-process. It backs tests and local runs
// without Postgres; counter updates happen under the store lock so the
// atomicity contract matches GormStore.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]domain.User
	email    map[string]string // email -> user ID
	tokens   map[string]domain.RefreshToken
	byHash   map[string]string // token hash -> token ID
	content  map[string]domain.Content
	order    []string // content insertion order
	comments map[string][]domain.Comment
	reports  map[string]domain.Report
	repOrder []string
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]domain.User),
		email:    make(map[string]string),
		tokens:   make(map[string]domain.RefreshToken),
		byHash:   make(map[string]string),
		content:  make(map[string]domain.Content),
		comments: make(map[string][]domain.Comment),
		reports:  make(map[string]domain.Report),
	}
}

// SaveUser registers or replaces a user.
func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.users[u.ID]; ok && prev.Email != u.Email {
		delete(m.email, prev.Email)
	}
	m.users[u.ID] = u
	m.email[u.Email] = u.ID
	return nil
}

// HasUserEmail checks if email exists.
func (m *MemoryStore) HasUserEmail(email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.email[email]
	return ok, nil
}

// GetUserByEmail looks up a user by email.
func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.email[email]
	if !ok {
		return domain.User{}, false, nil
	}
	u, ok := m.users[id]
	return u, ok, nil
}

// GetUserByID returns a user by ID.
func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// ListUsers returns all users ordered by creation time.
func (m *MemoryStore) ListUsers() ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		res = append(res, u)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

// SearchUsers matches username, email, or contact number case-insensitively.
func (m *MemoryStore) SearchUsers(query string) ([]domain.User, error) {
	q := strings.ToLower(query)
	users, _ := m.ListUsers()
	res := make([]domain.User, 0)
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.Username), q) ||
			strings.Contains(strings.ToLower(u.Email), q) ||
			strings.Contains(strings.ToLower(u.ContactNumber), q) {
			res = append(res, u)
		}
	}
	return res, nil
}

// DeleteUser removes the user and its refresh tokens.
func (m *MemoryStore) DeleteUser(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		delete(m.email, u.Email)
	}
	delete(m.users, id)
	for tid, t := range m.tokens {
		if t.UserID == id {
			delete(m.byHash, t.TokenHash)
			delete(m.tokens, tid)
		}
	}
	return nil
}

// ReplaceRefreshToken drops prior tokens for the user and stores the new one.
func (m *MemoryStore) ReplaceRefreshToken(t domain.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for tid, existing := range m.tokens {
		if existing.UserID == t.UserID {
			delete(m.byHash, existing.TokenHash)
			delete(m.tokens, tid)
		}
	}
	m.tokens[t.ID] = t
	m.byHash[t.TokenHash] = t.ID
	return nil
}

// SaveRefreshToken stores a refresh token.
func (m *MemoryStore) SaveRefreshToken(t domain.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[t.ID] = t
	m.byHash[t.TokenHash] = t.ID
	return nil
}

// GetRefreshTokenByHash looks up a refresh token by hash.
func (m *MemoryStore) GetRefreshTokenByHash(hash string) (domain.RefreshToken, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byHash[hash]
	if !ok {
		return domain.RefreshToken{}, false, nil
	}
	t, ok := m.tokens[id]
	return t, ok, nil
}

// RevokeRefreshToken marks a token revoked.
func (m *MemoryStore) RevokeRefreshToken(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok {
		return nil
	}
	t.Revoked = true
	m.tokens[id] = t
	return nil
}

// SaveContent stores or replaces a content record.
func (m *MemoryStore) SaveContent(c domain.Content) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.content[c.ID]; !exists {
		m.order = append(m.order, c.ID)
	}
	m.content[c.ID] = c
	return nil
}

// GetContent retrieves one content item.
func (m *MemoryStore) GetContent(id string) (domain.Content, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.content[id]
	return c, ok, nil
}

// DeleteContent removes the item and its comments and reports.
func (m *MemoryStore) DeleteContent(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.content, id)
	delete(m.comments, id)
	filtered := m.order[:0]
	for _, item := range m.order {
		if item != id {
			filtered = append(filtered, item)
		}
	}
	m.order = filtered
	remaining := m.repOrder[:0]
	for _, rid := range m.repOrder {
		if r, ok := m.reports[rid]; ok && r.ContentID == id {
			delete(m.reports, rid)
			continue
		}
		remaining = append(remaining, rid)
	}
	m.repOrder = remaining
	return nil
}

// ListContentByOwner returns a user's submissions, newest first.
func (m *MemoryStore) ListContentByOwner(ownerID string) ([]domain.Content, error) {
	return m.filterContent(func(c domain.Content) bool { return c.OwnerID == ownerID }, true), nil
}

// ListContentByStatus returns items of one status, optionally one kind.
func (m *MemoryStore) ListContentByStatus(kind domain.ContentKind, status domain.ContentStatus) ([]domain.Content, error) {
	return m.filterContent(func(c domain.Content) bool {
		return c.Status == status && (kind == "" || c.Kind == kind)
	}, false), nil
}

// ListContentExpiredBefore returns every item past expiry regardless of status.
func (m *MemoryStore) ListContentExpiredBefore(t time.Time) ([]domain.Content, error) {
	return m.filterContent(func(c domain.Content) bool { return c.ExpiresAt.Before(t) }, false), nil
}

func (m *MemoryStore) filterContent(keep func(domain.Content) bool, newestFirst bool) []domain.Content {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Content, 0)
	for _, id := range m.order {
		if c, ok := m.content[id]; ok && keep(c) {
			res = append(res, c)
		}
	}
	if newestFirst {
		sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	}
	return res
}

// Feed returns approved content, newest first, with optional filters.
func (m *MemoryStore) Feed(kind domain.ContentKind, category, location string, page, size int) (domain.ContentPage, error) {
	matched := m.filterContent(func(c domain.Content) bool {
		if c.Status != domain.StatusApproved {
			return false
		}
		if kind != "" && c.Kind != kind {
			return false
		}
		if category != "" && !containsFold(c.Categories, category) {
			return false
		}
		if location != "" && !strings.Contains(strings.ToLower(c.Location), strings.ToLower(location)) {
			return false
		}
		return true
	}, true)
	return pageOf(matched, page, size), nil
}

// SearchContent matches approved content on title, description, tags,
// location, and categories.
func (m *MemoryStore) SearchContent(query string, page, size int) (domain.ContentPage, error) {
	q := strings.ToLower(query)
	matched := m.filterContent(func(c domain.Content) bool {
		if c.Status != domain.StatusApproved {
			return false
		}
		return strings.Contains(strings.ToLower(c.Title), q) ||
			strings.Contains(strings.ToLower(c.Description), q) ||
			containsFold(c.Tags, q) ||
			strings.Contains(strings.ToLower(c.Location), q) ||
			containsFold(c.Categories, q)
	}, true)
	return pageOf(matched, page, size), nil
}

// AdminSearchContent matches any status on title or description.
func (m *MemoryStore) AdminSearchContent(query string, page, size int) (domain.ContentPage, error) {
	q := strings.ToLower(query)
	matched := m.filterContent(func(c domain.Content) bool {
		return strings.Contains(strings.ToLower(c.Title), q) ||
			strings.Contains(strings.ToLower(c.Description), q)
	}, true)
	return pageOf(matched, page, size), nil
}

// Suggestions returns approved titles matching the query, most-viewed first.
func (m *MemoryStore) Suggestions(query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	q := strings.ToLower(query)
	matched := m.filterContent(func(c domain.Content) bool {
		return c.Status == domain.StatusApproved && strings.Contains(strings.ToLower(c.Title), q)
	}, false)
	sort.Slice(matched, func(i, j int) bool { return matched[i].Views > matched[j].Views })
	titles := make([]string, 0, limit)
	for _, c := range matched {
		titles = append(titles, c.Title)
		if len(titles) == limit {
			break
		}
	}
	return titles, nil
}

// TransitionStatus flips status only from the expected prior status.
func (m *MemoryStore) TransitionStatus(id string, from, to domain.ContentStatus, reason string, expiresAt *time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.content[id]
	if !ok || c.Status != from {
		return false, nil
	}
	c.Status = to
	c.RejectionReason = reason
	if expiresAt != nil {
		c.ExpiresAt = expiresAt.UTC()
	}
	m.content[id] = c
	return true, nil
}

// AddLike increments the like counter.
func (m *MemoryStore) AddLike(id string) (bool, error) {
	return m.adjust(id, func(c *domain.Content) { c.LikesCount++ })
}

// AddDislike increments the dislike counter.
func (m *MemoryStore) AddDislike(id string) (bool, error) {
	return m.adjust(id, func(c *domain.Content) { c.DislikesCount++ })
}

// AddView increments the view counter.
func (m *MemoryStore) AddView(id string) (bool, error) {
	return m.adjust(id, func(c *domain.Content) { c.Views++ })
}

// AddShare increments the share counter.
func (m *MemoryStore) AddShare(id string) (bool, error) {
	return m.adjust(id, func(c *domain.Content) { c.Shares++ })
}

// RemoveLikeDislike decrements both counters, flooring each at zero.
func (m *MemoryStore) RemoveLikeDislike(id string) (bool, error) {
	return m.adjust(id, func(c *domain.Content) {
		if c.LikesCount > 0 {
			c.LikesCount--
		}
		if c.DislikesCount > 0 {
			c.DislikesCount--
		}
	})
}

func (m *MemoryStore) adjust(id string, mutate func(*domain.Content)) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.content[id]
	if !ok {
		return false, nil
	}
	mutate(&c)
	m.content[id] = c
	return true, nil
}

// AddComment appends a comment.
func (m *MemoryStore) AddComment(c domain.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comments[c.ContentID] = append(m.comments[c.ContentID], c)
	return nil
}

// ListComments returns a content item's comments, newest first.
func (m *MemoryStore) ListComments(contentID string) ([]domain.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.comments[contentID]
	res := make([]domain.Comment, len(list))
	for i, c := range list {
		res[len(list)-1-i] = c
	}
	return res, nil
}

// AddReport appends a report.
func (m *MemoryStore) AddReport(r domain.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[r.ID] = r
	m.repOrder = append(m.repOrder, r.ID)
	return nil
}

// ListReports returns all reports, newest first.
func (m *MemoryStore) ListReports() ([]domain.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Report, 0, len(m.repOrder))
	for i := len(m.repOrder) - 1; i >= 0; i-- {
		if r, ok := m.reports[m.repOrder[i]]; ok {
			res = append(res, r)
		}
	}
	return res, nil
}

// DeleteReport removes one report.
func (m *MemoryStore) DeleteReport(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reports, id)
	filtered := m.repOrder[:0]
	for _, rid := range m.repOrder {
		if rid != id {
			filtered = append(filtered, rid)
		}
	}
	m.repOrder = filtered
	return nil
}

func containsFold(values []string, sub string) bool {
	sub = strings.ToLower(sub)
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), sub) {
			return true
		}
	}
	return false
}

func pageOf(items []domain.Content, page, size int) domain.ContentPage {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 10
	}
	total := int64(len(items))
	start := page * size
	if start > len(items) {
		start = len(items)
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return domain.ContentPage{Items: items[start:end], Total: total, Page: page, Size: size}
}
