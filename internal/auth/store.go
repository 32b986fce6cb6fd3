package auth

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/taskmind/taskmind-gateway/internal/logging"
)

// User identifies the authenticated user extracted from the access token.
type User struct {
	ID    string
	Email string
}

// Store holds the current token pair in memory and refreshes the access
// token against the Task API auth endpoint. All methods are safe for
// concurrent use.
type Store struct {
	mu           sync.Mutex
	accessToken  string
	refreshToken string
	user         User
	expiresAt    time.Time

	baseURL string
	http    *http.Client
	logger  *slog.Logger

	refreshing chan struct{}
}

func NewStore(baseURL string, timeout time.Duration) *Store {
	return &Store{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logging.WithComponent("auth"),
	}
}

// SetTokens installs a token pair, decoding the user claims from the
// access token payload.
func (s *Store) SetTokens(accessToken, refreshToken string) error {
	claims, err := decodeClaims(accessToken)
	if err != nil {
		return fmt.Errorf("invalid access token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	s.user = User{ID: claims.UserID, Email: claims.Email}
	s.expiresAt = time.Unix(claims.Exp, 0)
	return nil
}

// Clear drops both tokens and the cached user.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
	s.refreshToken = ""
	s.user = User{}
	s.expiresAt = time.Time{}
}

// AccessToken returns the current access token, empty when logged out.
func (s *Store) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

// IsExpired reports whether the current access token is past its exp claim.
// A missing token is not "expired"; callers check for emptiness separately.
func (s *Store) IsExpired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accessToken == "" {
		return false
	}
	return time.Now().After(s.expiresAt)
}

// CurrentUser returns the user decoded from the access token.
func (s *Store) CurrentUser() (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accessToken == "" {
		return User{}, false
	}
	return s.user, true
}

// Refresh exchanges the refresh token for a new access token. Concurrent
// callers share a single in-flight refresh. On failure both tokens are
// cleared, forcing a re-login.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.refreshing != nil {
		done := s.refreshing
		s.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.accessToken == "" {
			return fmt.Errorf("token refresh failed")
		}
		return nil
	}

	if s.refreshToken == "" {
		s.mu.Unlock()
		return fmt.Errorf("no refresh token available")
	}

	done := make(chan struct{})
	s.refreshing = done
	refreshToken := s.refreshToken
	s.mu.Unlock()

	newAccess, err := s.doRefresh(ctx, refreshToken)

	s.mu.Lock()
	s.refreshing = nil
	close(done)
	if err != nil {
		s.logger.Warn("Token refresh failed, clearing session", "error", err)
		s.accessToken = ""
		s.refreshToken = ""
		s.user = User{}
		s.expiresAt = time.Time{}
		s.mu.Unlock()
		return err
	}

	claims, err := decodeClaims(newAccess)
	if err != nil {
		s.accessToken = ""
		s.refreshToken = ""
		s.user = User{}
		s.expiresAt = time.Time{}
		s.mu.Unlock()
		return fmt.Errorf("refresh returned invalid token: %w", err)
	}
	s.accessToken = newAccess
	s.user = User{ID: claims.UserID, Email: claims.Email}
	s.expiresAt = time.Unix(claims.Exp, 0)
	s.mu.Unlock()

	s.logger.Info("Access token refreshed", "user_id", claims.UserID)
	return nil
}

func (s *Store) doRefresh(ctx context.Context, refreshToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/v1/auth/refresh", bytes.NewReader(nil))
	if err != nil {
		return "", err
	}
	req.Header.Set("refresh_token", refreshToken)

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("refresh returned status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode refresh response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("refresh response missing access_token")
	}
	return body.AccessToken, nil
}

type tokenClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Exp    int64  `json:"exp"`
	Iat    int64  `json:"iat"`
}

// decodeClaims extracts the payload of a JWT without verifying the
// signature; verification is the Task API's job, we only need the claims.
func decodeClaims(token string) (*tokenClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("token is not a JWT")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	claims := &tokenClaims{}
	if err := json.Unmarshal(payload, claims); err != nil {
		return nil, fmt.Errorf("failed to parse claims: %w", err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("token missing user_id claim")
	}
	return claims, nil
}
