package store

import (
	"sync"
	"testing"
	"time"

	"clipshare/pkg/domain"
)

func testContent(id, owner string, status domain.ContentStatus) domain.Content {
	now := time.Now().UTC()
	return domain.Content{
		ID:        id,
		OwnerID:   owner,
		Kind:      domain.KindVideo,
		Title:     "clip " + id,
		MediaKeys: []string{owner + "/" + id + ".mp4"},
		Status:    status,
		CreatedAt: now,
		ExpiresAt: now.Add(6 * 24 * time.Hour),
	}
}

func TestUserEmailIndex(t *testing.T) {
	s := NewMemoryStore()
	u := domain.User{ID: "u1", Email: "a@example.com", Username: "alice", CreatedAt: time.Now()}
	if err := s.SaveUser(u); err != nil {
		t.Fatalf("save user: %v", err)
	}
	exists, err := s.HasUserEmail("a@example.com")
	if err != nil || !exists {
		t.Fatalf("HasUserEmail = %v, %v; want true, nil", exists, err)
	}
	got, ok, err := s.GetUserByEmail("a@example.com")
	if err != nil || !ok {
		t.Fatalf("GetUserByEmail failed: %v %v", ok, err)
	}
	if got.ID != "u1" {
		t.Fatalf("user id = %q, want u1", got.ID)
	}
	// email change drops the stale index entry
	u.Email = "b@example.com"
	if err := s.SaveUser(u); err != nil {
		t.Fatalf("save user: %v", err)
	}
	if exists, _ := s.HasUserEmail("a@example.com"); exists {
		t.Fatalf("stale email still indexed")
	}
}

func TestReplaceRefreshTokenKeepsOnePerUser(t *testing.T) {
	s := NewMemoryStore()
	first := domain.RefreshToken{ID: "t1", UserID: "u1", TokenHash: "h1", ExpiresAt: time.Now().Add(time.Hour)}
	second := domain.RefreshToken{ID: "t2", UserID: "u1", TokenHash: "h2", ExpiresAt: time.Now().Add(time.Hour)}
	if err := s.ReplaceRefreshToken(first); err != nil {
		t.Fatalf("replace token: %v", err)
	}
	if err := s.ReplaceRefreshToken(second); err != nil {
		t.Fatalf("replace token: %v", err)
	}
	if _, ok, _ := s.GetRefreshTokenByHash("h1"); ok {
		t.Fatalf("first token still resolvable after replacement")
	}
	got, ok, _ := s.GetRefreshTokenByHash("h2")
	if !ok || got.ID != "t2" {
		t.Fatalf("second token missing: %v %v", got, ok)
	}
}

func TestRevokeRefreshTokenKeepsRow(t *testing.T) {
	s := NewMemoryStore()
	tok := domain.RefreshToken{ID: "t1", UserID: "u1", TokenHash: "h1", ExpiresAt: time.Now().Add(time.Hour)}
	if err := s.SaveRefreshToken(tok); err != nil {
		t.Fatalf("save token: %v", err)
	}
	if err := s.RevokeRefreshToken("t1"); err != nil {
		t.Fatalf("revoke token: %v", err)
	}
	got, ok, _ := s.GetRefreshTokenByHash("h1")
	if !ok {
		t.Fatalf("revoked token row deleted, want kept")
	}
	if !got.Revoked {
		t.Fatalf("token not marked revoked")
	}
}

func TestTransitionStatusRequiresExpectedPrior(t *testing.T) {
	s := NewMemoryStore()
	if err := s.SaveContent(testContent("c1", "u1", domain.StatusPending)); err != nil {
		t.Fatalf("save content: %v", err)
	}
	newExpiry := time.Now().UTC().Add(6 * 24 * time.Hour)
	ok, err := s.TransitionStatus("c1", domain.StatusPending, domain.StatusApproved, "", &newExpiry)
	if err != nil || !ok {
		t.Fatalf("transition pending->approved = %v, %v; want true, nil", ok, err)
	}
	// second decision must not apply
	ok, err = s.TransitionStatus("c1", domain.StatusPending, domain.StatusRejected, "late", nil)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if ok {
		t.Fatalf("transition applied twice")
	}
	got, _, _ := s.GetContent("c1")
	if got.Status != domain.StatusApproved {
		t.Fatalf("status = %q, want approved", got.Status)
	}
	if !got.ExpiresAt.Equal(newExpiry) {
		t.Fatalf("expiresAt = %v, want %v", got.ExpiresAt, newExpiry)
	}
}

func TestConcurrentLikesAreNotLost(t *testing.T) {
	s := NewMemoryStore()
	if err := s.SaveContent(testContent("c1", "u1", domain.StatusApproved)); err != nil {
		t.Fatalf("save content: %v", err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.AddLike("c1"); err != nil {
				t.Errorf("add like: %v", err)
			}
		}()
	}
	wg.Wait()
	got, _, _ := s.GetContent("c1")
	if got.LikesCount != 100 {
		t.Fatalf("likesCount = %d, want 100", got.LikesCount)
	}
}

func TestRemoveLikeDislikeFloorsAtZero(t *testing.T) {
	s := NewMemoryStore()
	if err := s.SaveContent(testContent("c1", "u1", domain.StatusApproved)); err != nil {
		t.Fatalf("save content: %v", err)
	}
	if _, err := s.AddLike("c1"); err != nil {
		t.Fatalf("add like: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := s.RemoveLikeDislike("c1"); err != nil {
			t.Fatalf("remove reaction: %v", err)
		}
	}
	got, _, _ := s.GetContent("c1")
	if got.LikesCount != 0 || got.DislikesCount != 0 {
		t.Fatalf("counters = %d/%d, want 0/0", got.LikesCount, got.DislikesCount)
	}
}

func TestCounterOpsOnMissingContent(t *testing.T) {
	s := NewMemoryStore()
	ok, err := s.AddView("missing")
	if err != nil {
		t.Fatalf("add view: %v", err)
	}
	if ok {
		t.Fatalf("counter applied to missing content")
	}
}

func TestFeedFiltersAndPaginates(t *testing.T) {
	s := NewMemoryStore()
	base := time.Now().UTC()
	for i, tc := range []struct {
		id       string
		status   domain.ContentStatus
		kind     domain.ContentKind
		category string
	}{
		{"c1", domain.StatusApproved, domain.KindVideo, "travel"},
		{"c2", domain.StatusApproved, domain.KindImage, "food"},
		{"c3", domain.StatusPending, domain.KindVideo, "travel"},
		{"c4", domain.StatusApproved, domain.KindVideo, "food"},
	} {
		c := testContent(tc.id, "u1", tc.status)
		c.Kind = tc.kind
		c.Categories = []string{tc.category}
		c.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := s.SaveContent(c); err != nil {
			t.Fatalf("save content: %v", err)
		}
	}
	page, err := s.Feed("", "", "", 0, 10)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if page.Total != 3 {
		t.Fatalf("total = %d, want 3 (pending excluded)", page.Total)
	}
	if page.Items[0].ID != "c4" {
		t.Fatalf("first item = %q, want newest approved c4", page.Items[0].ID)
	}
	videos, err := s.Feed(domain.KindVideo, "travel", "", 0, 10)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if videos.Total != 1 || videos.Items[0].ID != "c1" {
		t.Fatalf("filtered feed = %+v, want only c1", videos.Items)
	}
	paged, err := s.Feed("", "", "", 1, 2)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(paged.Items) != 1 {
		t.Fatalf("page 1 size 2 has %d items, want 1", len(paged.Items))
	}
}

func TestSearchContentMatchesTags(t *testing.T) {
	s := NewMemoryStore()
	c := testContent("c1", "u1", domain.StatusApproved)
	c.Tags = []string{"Sunset", "beach"}
	if err := s.SaveContent(c); err != nil {
		t.Fatalf("save content: %v", err)
	}
	page, err := s.SearchContent("sunset", 0, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("total = %d, want 1", page.Total)
	}
	if page, _ := s.SearchContent("mountain", 0, 10); page.Total != 0 {
		t.Fatalf("unexpected match for mountain")
	}
}

func TestListContentExpiredBeforeIgnoresStatus(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now().UTC()
	expired := testContent("c1", "u1", domain.StatusApproved)
	expired.ExpiresAt = now.Add(-time.Hour)
	fresh := testContent("c2", "u1", domain.StatusPending)
	fresh.ExpiresAt = now.Add(time.Hour)
	rejectedExpired := testContent("c3", "u1", domain.StatusRejected)
	rejectedExpired.ExpiresAt = now.Add(-time.Minute)
	for _, c := range []domain.Content{expired, fresh, rejectedExpired} {
		if err := s.SaveContent(c); err != nil {
			t.Fatalf("save content: %v", err)
		}
	}
	got, err := s.ListContentExpiredBefore(now)
	if err != nil {
		t.Fatalf("list expired: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expired count = %d, want 2", len(got))
	}
}

func TestDeleteContentRemovesCommentsAndReports(t *testing.T) {
	s := NewMemoryStore()
	if err := s.SaveContent(testContent("c1", "u1", domain.StatusApproved)); err != nil {
		t.Fatalf("save content: %v", err)
	}
	if err := s.AddComment(domain.Comment{ID: "m1", ContentID: "c1", UserID: "u2", Text: "nice"}); err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if err := s.AddReport(domain.Report{ID: "r1", ContentID: "c1", UserID: "u2", Reason: "spam"}); err != nil {
		t.Fatalf("add report: %v", err)
	}
	if err := s.DeleteContent("c1"); err != nil {
		t.Fatalf("delete content: %v", err)
	}
	if comments, _ := s.ListComments("c1"); len(comments) != 0 {
		t.Fatalf("comments survived delete")
	}
	if reports, _ := s.ListReports(); len(reports) != 0 {
		t.Fatalf("reports survived delete")
	}
}

func TestSuggestionsOrderedByViews(t *testing.T) {
	s := NewMemoryStore()
	a := testContent("c1", "u1", domain.StatusApproved)
	a.Title = "Go tutorial"
	a.Views = 5
	b := testContent("c2", "u1", domain.StatusApproved)
	b.Title = "Go advanced"
	b.Views = 50
	for _, c := range []domain.Content{a, b} {
		if err := s.SaveContent(c); err != nil {
			t.Fatalf("save content: %v", err)
		}
	}
	titles, err := s.Suggestions("go", 10)
	if err != nil {
		t.Fatalf("suggestions: %v", err)
	}
	if len(titles) != 2 || titles[0] != "Go advanced" {
		t.Fatalf("suggestions = %v, want most viewed first", titles)
	}
}
