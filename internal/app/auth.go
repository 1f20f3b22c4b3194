package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"clipshare/internal/util"
	"clipshare/pkg/auth"
	"clipshare/pkg/domain"
)

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Email         string
	Username      string
	FirstName     string
	LastName      string
	ContactNumber string
	Password      string
}

// TokenPair is an access token plus the opaque refresh token handed to the
// client.
type TokenPair struct {
	AccessToken     string    `json:"accessToken"`
	AccessExpiresAt time.Time `json:"accessExpiresAt"`
	RefreshToken    string    `json:"refreshToken"`
}

// Register creates an inactive account and sends a verification code to the
// email. The account cannot log in until the code is confirmed.
func (a *App) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || in.Password == "" || strings.TrimSpace(in.Username) == "" {
		return domain.User{}, fmt.Errorf("%w: email, username, and password are required", ErrValidation)
	}
	exists, err := a.store.HasUserEmail(email)
	if err != nil {
		return domain.User{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.User{}, ErrEmailAlreadyExists
	}
	passwordHash, err := auth.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	user := domain.User{
		ID:            util.NewID(),
		Email:         email,
		Username:      strings.TrimSpace(in.Username),
		FirstName:     strings.TrimSpace(in.FirstName),
		LastName:      strings.TrimSpace(in.LastName),
		ContactNumber: strings.TrimSpace(in.ContactNumber),
		PasswordHash:  passwordHash,
		Role:          domain.RoleUser,
		Active:        false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := a.issueCode(ctx, &user); err != nil {
		return domain.User{}, err
	}
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

// ResendCode issues a fresh verification code for an unverified account. The
// limiter throttles repeat sends; unknown emails report success so the
// endpoint cannot confirm account existence.
func (a *App) ResendCode(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return fmt.Errorf("fetch user: %w", err)
	}
	if !ok || user.Active {
		return nil
	}
	if err := a.issueCode(ctx, &user); err != nil {
		return err
	}
	user.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveUser(user); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// issueCode generates a code, stores its hash on the user, and dispatches it.
func (a *App) issueCode(ctx context.Context, user *domain.User) error {
	if a.limiter != nil {
		allowed, err := a.limiter.Allow(ctx, user.Email)
		if err != nil {
			return fmt.Errorf("rate limit check: %w", err)
		}
		if !allowed {
			return ErrCodeRateLimited
		}
	}
	code, err := auth.GenerateOTP(a.otpLength)
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	codeHash, err := auth.HashPassword(code)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}
	user.OTPHash = codeHash
	if err := a.notifier.SendOneTimeCode(ctx, user.Email, code); err != nil {
		slog.Error("send verification code", "email", user.Email, "error", err)
	}
	return nil
}

// VerifyCode confirms the registration code, activates the account, and
// issues the first token pair.
func (a *App) VerifyCode(_ context.Context, email, code string) (domain.User, TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, TokenPair{}, fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return domain.User{}, TokenPair{}, ErrNotFound
	}
	if user.OTPHash == "" || !auth.CheckPassword(code, user.OTPHash) {
		return domain.User{}, TokenPair{}, ErrInvalidCode
	}
	user.Active = true
	user.OTPHash = ""
	user.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, TokenPair{}, fmt.Errorf("activate user: %w", err)
	}
	pair, err := a.issueTokens(user)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}
	return user, pair, nil
}

// Login validates credentials and issues a token pair, replacing any refresh
// token from a prior session.
func (a *App) Login(_ context.Context, email, password string) (domain.User, TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, TokenPair{}, fmt.Errorf("fetch user: %w", err)
	}
	if !ok || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, TokenPair{}, ErrInvalidCredentials
	}
	if !user.Active {
		return domain.User{}, TokenPair{}, ErrInactiveAccount
	}
	pair, err := a.issueTokens(user)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}
	return user, pair, nil
}

func (a *App) issueTokens(user domain.User) (TokenPair, error) {
	access, exp, err := a.signer.Issue(user.ID, user.Email, string(user.Role))
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	raw, err := auth.NewRefreshToken()
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	now := time.Now().UTC()
	token := domain.RefreshToken{
		ID:        util.NewID(),
		UserID:    user.ID,
		TokenHash: auth.HashRefreshToken(raw),
		ExpiresAt: now.Add(a.refreshTTL),
		CreatedAt: now,
	}
	if err := a.store.ReplaceRefreshToken(token); err != nil {
		return TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}
	return TokenPair{AccessToken: access, AccessExpiresAt: exp, RefreshToken: raw}, nil
}

// Refresh exchanges a live refresh token for a new access token. The refresh
// token itself is not rotated.
func (a *App) Refresh(_ context.Context, rawRefresh string) (string, time.Time, error) {
	rawRefresh = strings.TrimSpace(rawRefresh)
	if rawRefresh == "" {
		return "", time.Time{}, ErrInvalidToken
	}
	token, ok, err := a.store.GetRefreshTokenByHash(auth.HashRefreshToken(rawRefresh))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("fetch refresh token: %w", err)
	}
	if !ok || token.Revoked {
		return "", time.Time{}, ErrInvalidToken
	}
	if time.Now().UTC().After(token.ExpiresAt) {
		return "", time.Time{}, ErrExpiredToken
	}
	user, found, err := a.store.GetUserByID(token.UserID)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("fetch user: %w", err)
	}
	if !found || !user.Active {
		return "", time.Time{}, ErrInvalidToken
	}
	access, exp, err := a.signer.Issue(user.ID, user.Email, string(user.Role))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("issue access token: %w", err)
	}
	return access, exp, nil
}

// Logout revokes the refresh token. Revoked rows stay in the table as an
// audit trail, and logging out twice is a clean no-op.
func (a *App) Logout(_ context.Context, rawRefresh string) error {
	rawRefresh = strings.TrimSpace(rawRefresh)
	if rawRefresh == "" {
		return nil
	}
	token, ok, err := a.store.GetRefreshTokenByHash(auth.HashRefreshToken(rawRefresh))
	if err != nil {
		return fmt.Errorf("fetch refresh token: %w", err)
	}
	if !ok || token.Revoked {
		return nil
	}
	if err := a.store.RevokeRefreshToken(token.ID); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// Authenticate resolves a user from an access token. Deactivated accounts
// fail even when the token signature is still valid.
func (a *App) Authenticate(accessToken string) (domain.User, error) {
	claims, err := a.signer.Verify(accessToken)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return domain.User{}, ErrExpiredToken
		}
		return domain.User{}, ErrInvalidToken
	}
	user, ok, err := a.store.GetUserByID(claims.UserID)
	if err != nil {
		return domain.User{}, fmt.Errorf("fetch user: %w", err)
	}
	if !ok || !user.Active {
		return domain.User{}, ErrInvalidToken
	}
	return user, nil
}

// CreateAdmin provisions an active administrator account. Used at bootstrap
// and from the admin API.
func (a *App) CreateAdmin(email, username, password string) (domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return domain.User{}, fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	exists, err := a.store.HasUserEmail(email)
	if err != nil {
		return domain.User{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.User{}, ErrEmailAlreadyExists
	}
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	user := domain.User{
		ID:           util.NewID(),
		Email:        email,
		Username:     strings.TrimSpace(username),
		PasswordHash: passwordHash,
		Role:         domain.RoleAdmin,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

// EnsureAdmin provisions the bootstrap administrator on startup. If the email
// is already registered the existing account is returned unchanged, so the
// call is safe on every boot.
func (a *App) EnsureAdmin(email, username, password string) (domain.User, error) {
	user, err := a.CreateAdmin(email, username, password)
	if errors.Is(err, ErrEmailAlreadyExists) {
		existing, _, lookupErr := a.store.GetUserByEmail(strings.TrimSpace(strings.ToLower(email)))
		if lookupErr != nil {
			return domain.User{}, fmt.Errorf("fetch admin: %w", lookupErr)
		}
		return existing, nil
	}
	return user, err
}
