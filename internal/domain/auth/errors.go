package auth

import "errors"

var (
	ErrInvalidToken     = errors.New("invalid or expired token")
	ErrTokenExpired     = errors.New("token has expired")
	ErrAccessForbidden  = errors.New("role is not allowed to access this resource")
	ErrInvalidRole      = errors.New("role must be kiosk or admin")
	ErrMissingSubject   = errors.New("token subject is required")
	ErrStreamTokenUsage = errors.New("stream tokens are only valid for the dashboard stream")
)
