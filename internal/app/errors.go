package app

import "errors"

var (
	// ErrInvalidCredentials is returned when the supplied credentials do not match.
	// The message is shown to end users and must not enable account enumeration.
	ErrInvalidCredentials = errors.New("incorrect email address or password")

	// ErrInactiveAccount is returned when the account has not completed
	// verification yet.
	ErrInactiveAccount = errors.New("account not verified")

	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrCodeRateLimited    = errors.New("verification code recently sent")

	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")

	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation failed")

	// ErrInvalidState is returned when a moderation decision targets content
	// that is not awaiting review.
	ErrInvalidState = errors.New("content not awaiting review")
)
