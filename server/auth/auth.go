// Package auth verifies bearer tokens issued by the identity provider and
// resolves the caller's account.
package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	apierrors "github.com/hrygo/veida/server/internal/errors"
	"github.com/hrygo/veida/server/internal/observability"
	"github.com/hrygo/veida/store"
)

// accountContextKey is the echo context key of the authenticated account.
const accountContextKey = "veida.account"

var (
	// ErrMissingToken is returned when the request carries no bearer token.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken is returned for tokens that fail verification.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims are the token claims veida reads. The subject identifies the account.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// AccountStore is the persistence the authenticator needs.
type AccountStore interface {
	UpsertAccount(ctx context.Context, upsert *store.Account) (*store.Account, error)
}

// Authenticator verifies HS256 bearer tokens and upserts the caller account.
type Authenticator struct {
	store  AccountStore
	secret []byte
	now    func() time.Time
}

// NewAuthenticator creates an authenticator using the shared secret.
func NewAuthenticator(s AccountStore, secret string) *Authenticator {
	return &Authenticator{
		store:  s,
		secret: []byte(secret),
		now:    time.Now,
	}
}

// ParseToken verifies the token signature and expiry and returns its claims.
func (a *Authenticator) ParseToken(tokenString string) (*Claims, error) {
	if len(a.secret) == 0 {
		return nil, errors.Wrap(ErrInvalidToken, "jwt secret not configured")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, errors.Wrap(ErrInvalidToken, "token has no subject")
	}
	return claims, nil
}

// Authenticate resolves the account behind an Authorization header value.
// The account is created on first sight and its email kept current.
func (a *Authenticator) Authenticate(ctx context.Context, authHeader string) (*store.Account, error) {
	tokenString, ok := extractBearerToken(authHeader)
	if !ok {
		return nil, ErrMissingToken
	}

	claims, err := a.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}

	account, err := a.store.UpsertAccount(ctx, &store.Account{
		Subject: claims.Subject,
		Email:   claims.Email,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert account")
	}
	return account, nil
}

// Middleware rejects unauthenticated requests with 401 and stores the caller
// account in the echo context.
func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			account, err := a.Authenticate(c.Request().Context(), c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				if errors.Is(err, ErrMissingToken) || errors.Is(err, ErrInvalidToken) {
					slog.Debug("rejected request", slog.String("path", c.Path()), slog.String("error", err.Error()))
					apiErr := apierrors.Unauthorized("authentication required")
					return c.JSON(http.StatusUnauthorized, apiErr.Body())
				}
				return err
			}

			SetAccount(c, account)
			if reqCtx, ok := observability.FromContext(c.Request().Context()); ok {
				reqCtx.AccountID = account.ID
			}
			return next(c)
		}
	}
}

// CreateToken signs an HS256 token for subject. It is used by local tooling
// and tests; production tokens come from the identity provider.
func CreateToken(secret, subject, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString([]byte(secret))
}

// SetAccount stores the caller account in the echo context.
func SetAccount(c echo.Context, account *store.Account) {
	c.Set(accountContextKey, account)
}

// AccountFromContext returns the caller account set by Middleware.
func AccountFromContext(c echo.Context) (*store.Account, bool) {
	account, ok := c.Get(accountContextKey).(*store.Account)
	return account, ok && account != nil
}

func extractBearerToken(authHeader string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
