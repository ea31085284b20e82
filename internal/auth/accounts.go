package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/maestro/internal/models"
	"github.com/desertthunder/maestro/internal/shared"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password SignUp accepts.
const MinPasswordLength = 6

// UserStore is the subset of repositories.UserRepository that Accounts needs.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	Get(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// Accounts signs users up and in for one application namespace.
type Accounts struct {
	users  UserStore
	appID  string
	cost   int
	logger *log.Logger
}

// NewAccounts creates an account manager for appID.
func NewAccounts(users UserStore, appID string, logger *log.Logger) *Accounts {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Accounts{
		users:  users,
		appID:  appID,
		cost:   bcrypt.DefaultCost,
		logger: logger.With("component", "accounts"),
	}
}

// SignUp creates an account and returns its session.
//
// The display name falls back to the email local part, then to "User " and the id prefix.
func (a *Accounts) SignUp(ctx context.Context, email, password, displayName string) (models.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return models.Session{}, fmt.Errorf("%w: Please enter an email and password.", shared.ErrValidation)
	}
	if len(password) < MinPasswordLength {
		return models.Session{}, fmt.Errorf("%w: Password should be at least %d characters.", shared.ErrValidation, MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to hash password: %w", err)
	}

	id := shared.GenerateID()
	user := models.NewUser(0, email, displayName)
	user.SetID(id)
	user.SetName(models.DisplayNameFor(displayName, email, id))
	user.SetPasswordHash(string(hash))

	if err := a.users.Create(ctx, user); err != nil {
		return models.Session{}, err
	}

	a.logger.Info("account created", "user", user.ID())
	return a.sessionFor(user), nil
}

// SignIn checks the password for email and returns the account's session.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (a *Accounts) SignIn(ctx context.Context, email, password string) (models.Session, error) {
	user, err := a.users.GetByEmail(ctx, email)
	if errors.Is(err, shared.ErrNotFound) {
		return models.Session{}, fmt.Errorf("%w: invalid email or password", shared.ErrAuthFailed)
	}
	if err != nil {
		return models.Session{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash()), []byte(password)); err != nil {
		return models.Session{}, fmt.Errorf("%w: invalid email or password", shared.ErrAuthFailed)
	}

	a.logger.Debug("signed in", "user", user.ID())
	return a.sessionFor(user), nil
}

// Lookup rebuilds the session for an existing user id.
func (a *Accounts) Lookup(ctx context.Context, userID string) (models.Session, error) {
	user, err := a.users.Get(ctx, userID)
	if err != nil {
		return models.Session{}, err
	}
	return a.sessionFor(user), nil
}

func (a *Accounts) sessionFor(user *models.User) models.Session {
	return models.Session{
		UserID:      user.ID(),
		Email:       user.Email(),
		DisplayName: models.DisplayNameFor(user.Name(), user.Email(), user.ID()),
		AppID:       a.appID,
	}
}
