package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/isoflow/internal/auth"
	"github.com/gosuda/isoflow/internal/domain"
)

// UserLookup resolves the user a token was issued for.
// *postgres.UserRepo and the memory store's user repository satisfy this interface.
type UserLookup interface {
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.User, error)
}

// Auth authenticates the bearer token and stores the principal built from
// the current user record, so role changes and deactivation apply at once.
// allowQueryToken additionally accepts ?access_token= for WebSocket
// handshakes, where browsers cannot set headers.
func Auth(jwtSecret string, users UserLookup, allowQueryToken bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := extractBearer(r)
			if tok == "" && allowQueryToken {
				tok = r.URL.Query().Get("access_token")
			}
			if tok == "" {
				writeProblem(w, http.StatusUnauthorized, "missing credentials")
				return
			}

			p, err := authenticate(r.Context(), tok, jwtSecret, users)
			if err != nil {
				writeProblem(w, http.StatusUnauthorized, "invalid credentials")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return h[7:]
	}
	return ""
}

func authenticate(ctx context.Context, tok, secret string, users UserLookup) (*domain.Principal, error) {
	_, userID, err := auth.ValidateToken(secret, tok)
	if err != nil {
		return nil, err
	}

	u, err := users.GetByID(ctx, uuid.Nil, userID)
	if err != nil {
		log.Debug().Err(err).Str("user_id", userID.String()).Msg("middleware.Auth: user lookup failed")
		return nil, err
	}
	if !u.IsActive {
		return nil, domain.ErrUnauthorized
	}

	return u.Principal(), nil
}

type problem struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

// writeProblem writes a minimal problem+json body.
func writeProblem(w http.ResponseWriter, status int, detail string) {
	body, _ := json.Marshal(problem{Title: http.StatusText(status), Status: status, Detail: detail})
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
