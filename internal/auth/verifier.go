package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kbase/internal/domain"
)

// Config selects how token signatures are checked. A JWKS URL takes
// precedence over a shared secret.
type Config struct {
	Secret  string
	JWKSURL string
	Issuer  string
}

// Claims is the token payload. Subject is the user id.
type Claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens issued by the identity provider.
// Tokens are never issued here.
type Verifier struct {
	keyfunc jwt.Keyfunc
	parser  *jwt.Parser
	logger  *zap.Logger
}

// NewVerifier creates a verifier. With a JWKS URL, keys are fetched and
// refreshed in the background until ctx is canceled.
func NewVerifier(ctx context.Context, cfg Config, logger *zap.Logger) (*Verifier, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	var kf jwt.Keyfunc
	switch {
	case cfg.JWKSURL != "":
		jwks, err := keyfunc.NewDefaultCtx(ctx, []string{cfg.JWKSURL})
		if err != nil {
			return nil, fmt.Errorf("create JWKS client: %w", err)
		}
		kf = jwks.Keyfunc
		opts = append(opts, jwt.WithValidMethods([]string{"RS256", "ES256"}))
		logger.Info("JWT verifier initialized", zap.String("jwks_url", cfg.JWKSURL))
	case cfg.Secret != "":
		secret := []byte(cfg.Secret)
		kf = func(*jwt.Token) (any, error) { return secret, nil }
		opts = append(opts, jwt.WithValidMethods([]string{"HS256"}))
	default:
		return nil, errors.New("auth: either jwks_url or jwt_secret is required")
	}

	return &Verifier{keyfunc: kf, parser: jwt.NewParser(opts...), logger: logger}, nil
}

// Verify parses and validates a token and maps its claims to a user.
// Every failure is reported as domain.ErrUnauthorized.
func (v *Verifier) Verify(tokenString string) (domain.User, error) {
	var claims Claims
	token, err := v.parser.ParseWithClaims(tokenString, &claims, v.keyfunc)
	if err != nil || !token.Valid {
		v.logger.Debug("Token rejected", zap.Error(err))
		return domain.User{}, fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	}
	if claims.Subject == "" {
		return domain.User{}, fmt.Errorf("%w: token missing subject", domain.ErrUnauthorized)
	}

	role := domain.RoleUser
	if strings.EqualFold(claims.Role, string(domain.RoleAdmin)) {
		role = domain.RoleAdmin
	}
	return domain.User{
		ID:    claims.Subject,
		Name:  claims.Name,
		Email: claims.Email,
		Role:  role,
	}, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header value.
func BearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
