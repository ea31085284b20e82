package auth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/maestro/internal/models"
	"github.com/desertthunder/maestro/internal/repositories"
	"github.com/desertthunder/maestro/internal/shared"
	tu "github.com/desertthunder/maestro/internal/testing"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func newTestAccounts(t *testing.T) *Accounts {
	t.Helper()

	db := tu.MigratedDatabase(t)

	accounts := NewAccounts(repositories.NewUserRepository(db), "test-app", nil)
	accounts.cost = bcrypt.MinCost
	return accounts
}

func TestAccounts(t *testing.T) {
	ctx := context.Background()

	t.Run("SignUp Then SignIn", func(t *testing.T) {
		accounts := newTestAccounts(t)

		created, err := accounts.SignUp(ctx, "DJ@Example.com", "secret1", "DJ Maestro")
		if err != nil {
			t.Fatalf("sign up failed: %v", err)
		}
		if created.DisplayName != "DJ Maestro" || created.AppID != "test-app" || created.UserID == "" {
			t.Errorf("unexpected session %+v", created)
		}

		signedIn, err := accounts.SignIn(ctx, "dj@example.com", "secret1")
		if err != nil {
			t.Fatalf("sign in failed: %v", err)
		}
		if signedIn != created {
			t.Errorf("expected %+v, got %+v", created, signedIn)
		}

		looked, err := accounts.Lookup(ctx, created.UserID)
		if err != nil || looked != created {
			t.Errorf("lookup mismatch: %+v %v", looked, err)
		}
	})

	t.Run("Display Name Fallbacks", func(t *testing.T) {
		accounts := newTestAccounts(t)

		session, err := accounts.SignUp(ctx, "groove@example.com", "secret1", "   ")
		if err != nil {
			t.Fatalf("sign up failed: %v", err)
		}
		if session.DisplayName != "groove" {
			t.Errorf("expected email local part, got %q", session.DisplayName)
		}
	})

	t.Run("Validation", func(t *testing.T) {
		accounts := newTestAccounts(t)

		tc := []struct {
			name     string
			email    string
			password string
			want     string
		}{
			{name: "empty", email: "", password: "", want: "Please enter an email and password."},
			{name: "short password", email: "a@b.co", password: "12345", want: "Password should be at least 6 characters."},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				_, err := accounts.SignUp(ctx, tt.email, tt.password, "")
				if !errors.Is(err, shared.ErrValidation) {
					t.Fatalf("expected ErrValidation, got %v", err)
				}
				if got := shared.Describe(err); got != tt.want {
					t.Errorf("expected %q, got %q", tt.want, got)
				}
			})
		}
	})

	t.Run("Duplicate Email", func(t *testing.T) {
		accounts := newTestAccounts(t)
		if _, err := accounts.SignUp(ctx, "dup@example.com", "secret1", ""); err != nil {
			t.Fatalf("sign up failed: %v", err)
		}

		if _, err := accounts.SignUp(ctx, "DUP@example.com", "secret2", ""); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("Wrong Password And Unknown Email", func(t *testing.T) {
		accounts := newTestAccounts(t)
		if _, err := accounts.SignUp(ctx, "dj@example.com", "secret1", ""); err != nil {
			t.Fatalf("sign up failed: %v", err)
		}

		_, wrong := accounts.SignIn(ctx, "dj@example.com", "nope!!")
		_, unknown := accounts.SignIn(ctx, "ghost@example.com", "secret1")
		for _, err := range []error{wrong, unknown} {
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		}
		if wrong.Error() != unknown.Error() {
			t.Errorf("errors should not reveal which part failed: %q vs %q", wrong, unknown)
		}
	})
}

func TestSessionStore(t *testing.T) {
	session := models.Session{UserID: "u1", Email: "a@b.co", DisplayName: "A", AppID: "app"}

	t.Run("Missing File", func(t *testing.T) {
		store := NewSessionStore(filepath.Join(t.TempDir(), "session.json"))

		if _, err := RequireSession(store); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Save Load SignOut", func(t *testing.T) {
		store := NewSessionStore(filepath.Join(t.TempDir(), "nested", "session.json"))

		if err := store.Save(session); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}

		info, err := os.Stat(store.Path())
		if err != nil {
			t.Fatalf("session file should exist: %v", err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Errorf("expected 0600 permissions, got %v", info.Mode().Perm())
		}

		loaded, err := RequireSession(store)
		if err != nil {
			t.Fatalf("failed to load session: %v", err)
		}
		if loaded != session {
			t.Errorf("expected %+v, got %+v", session, loaded)
		}

		if err := store.SignOut(); err != nil {
			t.Fatalf("sign out failed: %v", err)
		}
		if err := store.SignOut(); err != nil {
			t.Errorf("second sign out should be a no-op, got %v", err)
		}
		if _, err := store.Load(); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated after sign out, got %v", err)
		}
	})

	t.Run("Corrupt File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		if _, err := NewSessionStore(path).Load(); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Rejects Invalid Session", func(t *testing.T) {
		store := NewSessionStore(filepath.Join(t.TempDir(), "session.json"))
		if err := store.Save(models.Session{}); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}

func TestTokens(t *testing.T) {
	secret := []byte("test-secret")
	session := models.Session{UserID: "u1", Email: "a@b.co", DisplayName: "A", AppID: "app"}

	t.Run("Round Trip", func(t *testing.T) {
		raw, err := IssueToken(secret, session, time.Hour)
		if err != nil {
			t.Fatalf("failed to issue token: %v", err)
		}

		parsed, err := ParseToken(secret, raw)
		if err != nil {
			t.Fatalf("failed to parse token: %v", err)
		}
		if parsed != session {
			t.Errorf("expected %+v, got %+v", session, parsed)
		}
	})

	t.Run("Wrong Secret", func(t *testing.T) {
		raw, _ := IssueToken(secret, session, time.Hour)

		if _, err := ParseToken([]byte("other"), raw); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Expired", func(t *testing.T) {
		raw, _ := IssueToken(secret, session, -time.Minute)

		if _, err := ParseToken(secret, raw); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Rejects Other Algorithms", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "u1", AppID: "app"})
		raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("failed to build token: %v", err)
		}

		if _, err := ParseToken(secret, raw); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Missing Secret", func(t *testing.T) {
		if _, err := IssueToken(nil, session, time.Hour); !errors.Is(err, shared.ErrConfiguration) {
			t.Errorf("expected ErrConfiguration, got %v", err)
		}
		if _, err := ParseToken(nil, "x"); !errors.Is(err, shared.ErrConfiguration) {
			t.Errorf("expected ErrConfiguration, got %v", err)
		}
	})

	t.Run("Garbage", func(t *testing.T) {
		if _, err := ParseToken(secret, strings.Repeat("x", 20)); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}
