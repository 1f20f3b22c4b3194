package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"clipshare/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(
		&UserModel{},
		&RefreshTokenModel{},
		&ContentModel{},
		&CommentModel{},
		&ReportModel{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// SaveUser registers or updates a user.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"email", "username", "first_name", "last_name", "contact_number",
			"bio", "profile_picture_key", "password_hash", "role", "active",
			"otp_hash", "updated_at",
		}),
	}).Create(&model).Error
}

// HasUserEmail checks if email exists.
func (s *GormStore) HasUserEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// ListUsers returns all users ordered by created_at.
func (s *GormStore) ListUsers() ([]domain.User, error) {
	var models []UserModel
	if err := s.db.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.User, 0, len(models))
	for _, m := range models {
		res = append(res, userFromModel(m))
	}
	return res, nil
}

// SearchUsers matches username, email, or contact number case-insensitively.
func (s *GormStore) SearchUsers(query string) ([]domain.User, error) {
	pattern := "%" + query + "%"
	var models []UserModel
	if err := s.db.
		Where("username ILIKE ? OR email ILIKE ? OR contact_number ILIKE ?", pattern, pattern, pattern).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.User, 0, len(models))
	for _, m := range models {
		res = append(res, userFromModel(m))
	}
	return res, nil
}

// DeleteUser removes the user row and its refresh tokens. Owned content is
// deleted by the caller beforehand so media cleanup stays explicit.
func (s *GormStore) DeleteUser(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&RefreshTokenModel{}, "user_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&UserModel{}, "id = ?", id).Error
	})
}

// ReplaceRefreshToken drops any prior tokens for the user and inserts the
// new one in one transaction.
func (s *GormStore) ReplaceRefreshToken(t domain.RefreshToken) error {
	model := refreshTokenToModel(t)
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&RefreshTokenModel{}, "user_id = ?", t.UserID).Error; err != nil {
			return err
		}
		return tx.Create(&model).Error
	})
}

// SaveRefreshToken inserts a refresh token row.
func (s *GormStore) SaveRefreshToken(t domain.RefreshToken) error {
	model := refreshTokenToModel(t)
	return s.db.Create(&model).Error
}

// GetRefreshTokenByHash looks up a refresh token by its stored hash.
func (s *GormStore) GetRefreshTokenByHash(hash string) (domain.RefreshToken, bool, error) {
	var model RefreshTokenModel
	if err := s.db.Where("token_hash = ?", hash).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.RefreshToken{}, false, nil
		}
		return domain.RefreshToken{}, false, err
	}
	return refreshTokenFromModel(model), true, nil
}

// RevokeRefreshToken marks a token revoked; the row is kept as an audit trail.
func (s *GormStore) RevokeRefreshToken(id string) error {
	return s.db.Model(&RefreshTokenModel{}).Where("id = ?", id).Update("revoked", true).Error
}

// SaveContent stores or updates a content record.
func (s *GormStore) SaveContent(c domain.Content) error {
	model := contentToModel(c)
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "description", "location", "tags", "categories",
			"media_keys", "thumbnail_key", "status", "rejection_reason",
			"expires_at",
		}),
	}).Create(&model).Error
}

// GetContent retrieves one content item.
func (s *GormStore) GetContent(id string) (domain.Content, bool, error) {
	var model ContentModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Content{}, false, nil
		}
		return domain.Content{}, false, err
	}
	return contentFromModel(model), true, nil
}

// DeleteContent removes comments, reports, and the content row in one
// transaction. Media objects are deleted by the caller first.
func (s *GormStore) DeleteContent(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&CommentModel{}, "content_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&ReportModel{}, "content_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&ContentModel{}, "id = ?", id).Error
	})
}

// ListContentByOwner returns a user's submissions, newest first.
func (s *GormStore) ListContentByOwner(ownerID string) ([]domain.Content, error) {
	return s.listContent("created_at DESC", "owner_id = ?", ownerID)
}

// ListContentByStatus returns items of one status, optionally one kind.
func (s *GormStore) ListContentByStatus(kind domain.ContentKind, status domain.ContentStatus) ([]domain.Content, error) {
	if kind == "" {
		return s.listContent("created_at ASC", "status = ?", string(status))
	}
	return s.listContent("created_at ASC", "status = ? AND kind = ?", string(status), string(kind))
}

// ListContentExpiredBefore returns every item past expiry regardless of status.
func (s *GormStore) ListContentExpiredBefore(t time.Time) ([]domain.Content, error) {
	return s.listContent("expires_at ASC", "expires_at < ?", t)
}

func (s *GormStore) listContent(order string, conds ...any) ([]domain.Content, error) {
	var models []ContentModel
	tx := s.db.Order(order)
	if len(conds) > 0 {
		tx = tx.Where(conds[0], conds[1:]...)
	}
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Content, 0, len(models))
	for _, m := range models {
		res = append(res, contentFromModel(m))
	}
	return res, nil
}

// Feed returns approved content, newest first, with optional kind, category,
// and location filters.
func (s *GormStore) Feed(kind domain.ContentKind, category, location string, page, size int) (domain.ContentPage, error) {
	tx := s.db.Model(&ContentModel{}).Where("status = ?", string(domain.StatusApproved))
	if kind != "" {
		tx = tx.Where("kind = ?", string(kind))
	}
	if category != "" {
		tx = tx.Where("categories::text ILIKE ?", "%"+category+"%")
	}
	if location != "" {
		tx = tx.Where("location ILIKE ?", "%"+location+"%")
	}
	return s.pageContent(tx, "created_at DESC", page, size)
}

// SearchContent matches approved content on title, description, tags,
// location, and categories.
func (s *GormStore) SearchContent(query string, page, size int) (domain.ContentPage, error) {
	pattern := "%" + query + "%"
	tx := s.db.Model(&ContentModel{}).
		Where("status = ?", string(domain.StatusApproved)).
		Where(
			"title ILIKE ? OR description ILIKE ? OR tags::text ILIKE ? OR location ILIKE ? OR categories::text ILIKE ?",
			pattern, pattern, pattern, pattern, pattern,
		)
	return s.pageContent(tx, "created_at DESC", page, size)
}

// AdminSearchContent matches any status on title or description.
func (s *GormStore) AdminSearchContent(query string, page, size int) (domain.ContentPage, error) {
	pattern := "%" + query + "%"
	tx := s.db.Model(&ContentModel{}).
		Where("title ILIKE ? OR description ILIKE ?", pattern, pattern)
	return s.pageContent(tx, "created_at DESC", page, size)
}

func (s *GormStore) pageContent(tx *gorm.DB, order string, page, size int) (domain.ContentPage, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 10
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return domain.ContentPage{}, err
	}
	var models []ContentModel
	if err := tx.Order(order).Offset(page * size).Limit(size).Find(&models).Error; err != nil {
		return domain.ContentPage{}, err
	}
	items := make([]domain.Content, 0, len(models))
	for _, m := range models {
		items = append(items, contentFromModel(m))
	}
	return domain.ContentPage{Items: items, Total: total, Page: page, Size: size}, nil
}

// Suggestions returns approved titles matching the query, most-viewed first.
func (s *GormStore) Suggestions(query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	var titles []string
	if err := s.db.Model(&ContentModel{}).
		Where("status = ? AND title ILIKE ?", string(domain.StatusApproved), "%"+query+"%").
		Order("views DESC").
		Limit(limit).
		Pluck("title", &titles).Error; err != nil {
		return nil, err
	}
	return titles, nil
}

// TransitionStatus flips status only from the expected prior status so the
// check and the update share one statement.
func (s *GormStore) TransitionStatus(id string, from, to domain.ContentStatus, reason string, expiresAt *time.Time) (bool, error) {
	updates := map[string]any{
		"status":           string(to),
		"rejection_reason": reason,
	}
	if expiresAt != nil {
		updates["expires_at"] = expiresAt.UTC()
	}
	res := s.db.Model(&ContentModel{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// AddLike increments the like counter atomically.
func (s *GormStore) AddLike(id string) (bool, error) {
	return s.bumpCounter(id, "likes_count", gorm.Expr("likes_count + 1"))
}

// AddDislike increments the dislike counter atomically.
func (s *GormStore) AddDislike(id string) (bool, error) {
	return s.bumpCounter(id, "dislikes_count", gorm.Expr("dislikes_count + 1"))
}

// AddView increments the view counter atomically.
func (s *GormStore) AddView(id string) (bool, error) {
	return s.bumpCounter(id, "views", gorm.Expr("views + 1"))
}

// AddShare increments the share counter atomically.
func (s *GormStore) AddShare(id string) (bool, error) {
	return s.bumpCounter(id, "shares", gorm.Expr("shares + 1"))
}

func (s *GormStore) bumpCounter(id, column string, expr clause.Expr) (bool, error) {
	res := s.db.Model(&ContentModel{}).Where("id = ?", id).UpdateColumn(column, expr)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RemoveLikeDislike decrements both counters, flooring each at zero, in one
// statement.
func (s *GormStore) RemoveLikeDislike(id string) (bool, error) {
	res := s.db.Model(&ContentModel{}).Where("id = ?", id).UpdateColumns(map[string]any{
		"likes_count":    gorm.Expr("GREATEST(likes_count - 1, 0)"),
		"dislikes_count": gorm.Expr("GREATEST(dislikes_count - 1, 0)"),
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// AddComment appends an immutable comment.
func (s *GormStore) AddComment(c domain.Comment) error {
	model := commentToModel(c)
	return s.db.Create(&model).Error
}

// ListComments returns a content item's comments, newest first.
func (s *GormStore) ListComments(contentID string) ([]domain.Comment, error) {
	var models []CommentModel
	if err := s.db.Where("content_id = ?", contentID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Comment, 0, len(models))
	for _, m := range models {
		res = append(res, commentFromModel(m))
	}
	return res, nil
}

// AddReport appends an immutable report.
func (s *GormStore) AddReport(r domain.Report) error {
	model := reportToModel(r)
	return s.db.Create(&model).Error
}

// ListReports returns all reports, newest first.
func (s *GormStore) ListReports() ([]domain.Report, error) {
	var models []ReportModel
	if err := s.db.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Report, 0, len(models))
	for _, m := range models {
		res = append(res, reportFromModel(m))
	}
	return res, nil
}

// DeleteReport removes one report.
func (s *GormStore) DeleteReport(id string) error {
	return s.db.Delete(&ReportModel{}, "id = ?", id).Error
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:                u.ID,
		Email:             u.Email,
		Username:          u.Username,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		ContactNumber:     u.ContactNumber,
		Bio:               u.Bio,
		ProfilePictureKey: u.ProfilePictureKey,
		PasswordHash:      u.PasswordHash,
		Role:              string(u.Role),
		Active:            u.Active,
		OTPHash:           u.OTPHash,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:                m.ID,
		Email:             m.Email,
		Username:          m.Username,
		FirstName:         m.FirstName,
		LastName:          m.LastName,
		ContactNumber:     m.ContactNumber,
		Bio:               m.Bio,
		ProfilePictureKey: m.ProfilePictureKey,
		PasswordHash:      m.PasswordHash,
		Role:              domain.UserRole(m.Role),
		Active:            m.Active,
		OTPHash:           m.OTPHash,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func refreshTokenToModel(t domain.RefreshToken) RefreshTokenModel {
	return RefreshTokenModel{
		ID:        t.ID,
		UserID:    t.UserID,
		TokenHash: t.TokenHash,
		ExpiresAt: t.ExpiresAt,
		Revoked:   t.Revoked,
		CreatedAt: t.CreatedAt,
	}
}

func refreshTokenFromModel(m RefreshTokenModel) domain.RefreshToken {
	return domain.RefreshToken{
		ID:        m.ID,
		UserID:    m.UserID,
		TokenHash: m.TokenHash,
		ExpiresAt: m.ExpiresAt,
		Revoked:   m.Revoked,
		CreatedAt: m.CreatedAt,
	}
}

func contentToModel(c domain.Content) ContentModel {
	tags, _ := json.Marshal(c.Tags)
	categories, _ := json.Marshal(c.Categories)
	mediaKeys, _ := json.Marshal(c.MediaKeys)
	return ContentModel{
		ID:              c.ID,
		OwnerID:         c.OwnerID,
		Kind:            string(c.Kind),
		Title:           c.Title,
		Description:     c.Description,
		Location:        c.Location,
		Tags:            tags,
		Categories:      categories,
		MediaKeys:       mediaKeys,
		ThumbnailKey:    c.ThumbnailKey,
		Status:          string(c.Status),
		RejectionReason: c.RejectionReason,
		LikesCount:      c.LikesCount,
		DislikesCount:   c.DislikesCount,
		Views:           c.Views,
		Shares:          c.Shares,
		CreatedAt:       c.CreatedAt,
		ExpiresAt:       c.ExpiresAt,
	}
}

func contentFromModel(m ContentModel) domain.Content {
	var tags, categories, mediaKeys []string
	if len(m.Tags) > 0 {
		_ = json.Unmarshal(m.Tags, &tags)
	}
	if len(m.Categories) > 0 {
		_ = json.Unmarshal(m.Categories, &categories)
	}
	if len(m.MediaKeys) > 0 {
		_ = json.Unmarshal(m.MediaKeys, &mediaKeys)
	}
	return domain.Content{
		ID:              m.ID,
		OwnerID:         m.OwnerID,
		Kind:            domain.ContentKind(m.Kind),
		Title:           m.Title,
		Description:     m.Description,
		Location:        m.Location,
		Tags:            tags,
		Categories:      categories,
		MediaKeys:       mediaKeys,
		ThumbnailKey:    m.ThumbnailKey,
		Status:          domain.ContentStatus(m.Status),
		RejectionReason: m.RejectionReason,
		LikesCount:      m.LikesCount,
		DislikesCount:   m.DislikesCount,
		Views:           m.Views,
		Shares:          m.Shares,
		CreatedAt:       m.CreatedAt,
		ExpiresAt:       m.ExpiresAt,
	}
}

func commentToModel(c domain.Comment) CommentModel {
	return CommentModel{
		ID:        c.ID,
		UserID:    c.UserID,
		ContentID: c.ContentID,
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
	}
}

func commentFromModel(m CommentModel) domain.Comment {
	return domain.Comment{
		ID:        m.ID,
		UserID:    m.UserID,
		ContentID: m.ContentID,
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	}
}

func reportToModel(r domain.Report) ReportModel {
	return ReportModel{
		ID:        r.ID,
		UserID:    r.UserID,
		ContentID: r.ContentID,
		Reason:    r.Reason,
		CreatedAt: r.CreatedAt,
	}
}

func reportFromModel(m ReportModel) domain.Report {
	return domain.Report{
		ID:        m.ID,
		UserID:    m.UserID,
		ContentID: m.ContentID,
		Reason:    m.Reason,
		CreatedAt: m.CreatedAt,
	}
}
