package jwt

import (
	"time"

	"github.com/cmlabs-hris/qr-attendance-go/internal/domain/auth"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	TokenTypeAccess = "access"
	TokenTypeStream = "stream"

	streamTokenTTL = 5 * time.Minute
)

type Service interface {
	GenerateAccessToken(subject string, role auth.Role) (token string, expiresAt int64, err error)
	GenerateStreamToken(subject string) (token string, expiresIn int, err error)
	ValidateStreamToken(tokenString string) (subject string, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
	now                       func() time.Time
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) Service {
	return &JWTService{
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		now:                       time.Now,
	}
}

// GenerateAccessToken signs a token for a kiosk station or an admin user.
func (j *JWTService) GenerateAccessToken(subject string, role auth.Role) (token string, expiresAt int64, err error) {
	if subject == "" {
		return "", 0, auth.ErrMissingSubject
	}
	if !role.IsValid() {
		return "", 0, auth.ErrInvalidRole
	}

	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = j.now().Add(expDuration).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"sub":  subject,
		"role": string(role),
		"type": TokenTypeAccess,
		"exp":  expiresAt,
	})
	return tokenString, expiresAt, err
}

// GenerateStreamToken generates a short-lived token for the dashboard stream,
// which EventSource clients pass as a query parameter.
func (j *JWTService) GenerateStreamToken(subject string) (token string, expiresIn int, err error) {
	expiresAt := j.now().Add(streamTokenTTL).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"sub":  subject,
		"type": TokenTypeStream,
		"exp":  expiresAt,
	})
	if err != nil {
		return "", 0, err
	}

	return tokenString, int(streamTokenTTL.Seconds()), nil
}

// ValidateStreamToken validates a stream token and returns its subject
func (j *JWTService) ValidateStreamToken(tokenString string) (subject string, err error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return "", auth.ErrInvalidToken
	}

	tokenType, ok := token.Get("type")
	if !ok || tokenType != TokenTypeStream {
		return "", auth.ErrStreamTokenUsage
	}

	subject = token.Subject()
	if subject == "" {
		return "", auth.ErrInvalidToken
	}

	return subject, nil
}
