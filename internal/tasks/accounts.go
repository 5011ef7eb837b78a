package tasks

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/repositories"
	"github.com/desertthunder/setlist/internal/services"
	"github.com/desertthunder/setlist/internal/shared"
)

// AccountsOptions configures [Accounts].
type AccountsOptions struct {
	Store       services.Store
	Prefs       Preferences
	Cache       BookingCache
	Engine      *Engine
	Admin       shared.AdminConfig
	Rules       models.Rules
	MaxAttempts int
	Logger      *log.Logger
}

// Accounts handles login, registration and the persisted identity.
type Accounts struct {
	store       services.Store
	prefs       Preferences
	cache       BookingCache
	engine      *Engine
	admin       shared.AdminConfig
	rules       models.Rules
	maxAttempts int
	logger      *log.Logger
}

// NewAccounts creates an [Accounts] service.
func NewAccounts(opts AccountsOptions) *Accounts {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	rules := opts.Rules
	if rules == (models.Rules{}) {
		rules = models.DefaultRules()
	}
	return &Accounts{
		store:       opts.Store,
		prefs:       opts.Prefs,
		cache:       opts.Cache,
		engine:      opts.Engine,
		admin:       opts.Admin,
		rules:       rules,
		maxAttempts: opts.MaxAttempts,
		logger:      shared.WithLogger(logger, "component", "accounts"),
	}
}

// Login checks credentials and persists the identity.
//
// The configured admin credentials are checked locally. Everyone else is checked with an authenticate command.
// Rejections are counted; from the configured limit on, failures wrap [shared.ErrTooManyAttempts].
func (a *Accounts) Login(ctx context.Context, username, password string) (models.Identity, error) {
	username = strings.TrimSpace(username)
	if err := models.ValidateLogin(username, password); err != nil {
		return models.Identity{}, err
	}

	if a.isAdmin(username, password) {
		identity := models.Identity{Username: username, Role: models.RoleAdmin}
		return identity, a.establish(identity)
	}

	if _, err := a.store.Send(ctx, models.AuthenticateCommand(username, password)); err != nil {
		if !errors.Is(err, shared.ErrCommandRejected) {
			return models.Identity{}, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
		}

		failures := a.failures() + 1
		a.setFailures(failures)
		a.logger.Warn("login rejected", "username", username, "attempt", failures)

		if a.maxAttempts > 0 && failures >= a.maxAttempts {
			return models.Identity{}, fmt.Errorf("%w: reset your password to continue", shared.ErrTooManyAttempts)
		}
		if a.maxAttempts > 0 {
			return models.Identity{}, fmt.Errorf("%w: attempt %d of %d", shared.ErrInvalidCredentials, failures, a.maxAttempts)
		}
		return models.Identity{}, shared.ErrInvalidCredentials
	}

	identity := models.Identity{Username: username, Role: models.RoleUser}
	return identity, a.establish(identity)
}

// Register creates an account and logs it in.
func (a *Accounts) Register(ctx context.Context, username, password, confirm string) (models.Identity, error) {
	username = strings.TrimSpace(username)
	if err := models.ValidateRegistration(username, password, confirm, a.rules); err != nil {
		return models.Identity{}, err
	}
	if strings.EqualFold(username, a.admin.Username) {
		return models.Identity{}, fmt.Errorf("%w: %s", shared.ErrAccountExists, username)
	}

	if _, err := a.store.Send(ctx, models.RegisterCommand(username, password)); err != nil {
		return models.Identity{}, fmt.Errorf("registration failed: %w", err)
	}

	identity := models.Identity{Username: username, Role: models.RoleUser}
	return identity, a.establish(identity)
}

// ResetPassword sets a new password and clears the failed login counter.
func (a *Accounts) ResetPassword(ctx context.Context, username, password, confirm string) error {
	username = strings.TrimSpace(username)
	if err := models.ValidateRegistration(username, password, confirm, a.rules); err != nil {
		return err
	}

	if _, err := a.store.Send(ctx, models.ResetPasswordCommand(username, password)); err != nil {
		return fmt.Errorf("password reset failed: %w", err)
	}

	a.setFailures(0)
	a.logger.Info("password reset", "username", username)
	return nil
}

// Logout forgets the identity and every cached bookings list.
func (a *Accounts) Logout() error {
	if err := a.prefs.Delete(repositories.PrefCurrentUser, repositories.PrefRole); err != nil {
		return fmt.Errorf("failed to clear identity: %w", err)
	}
	if a.cache != nil {
		if err := a.cache.ClearAll(); err != nil {
			return fmt.Errorf("failed to clear cached bookings: %w", err)
		}
	}
	if a.engine != nil {
		a.engine.SetIdentity(models.Identity{})
	}
	return nil
}

// Current returns the persisted identity. The second return value is false when nobody is logged in.
func (a *Accounts) Current() (models.Identity, bool, error) {
	username, ok, err := a.prefs.Get(repositories.PrefCurrentUser)
	if err != nil {
		return models.Identity{}, false, err
	}
	if !ok || username == "" {
		return models.Identity{}, false, nil
	}

	role, _, err := a.prefs.Get(repositories.PrefRole)
	if err != nil {
		return models.Identity{}, false, err
	}
	identity := models.Identity{Username: username, Role: models.RoleUser}
	if role == string(models.RoleAdmin) {
		identity.Role = models.RoleAdmin
	}
	return identity, true, nil
}

// Restore loads the persisted identity into the engine. It returns [shared.ErrNotAuthenticated] when nobody is logged in.
func (a *Accounts) Restore() (models.Identity, error) {
	identity, ok, err := a.Current()
	if err != nil {
		return models.Identity{}, err
	}
	if !ok {
		return models.Identity{}, shared.ErrNotAuthenticated
	}
	if a.engine != nil {
		a.engine.SetIdentity(identity)
	}
	return identity, nil
}

func (a *Accounts) isAdmin(username, password string) bool {
	return a.admin.Password != "" && username == a.admin.Username && password == a.admin.Password
}

func (a *Accounts) establish(identity models.Identity) error {
	if err := a.prefs.Set(repositories.PrefCurrentUser, identity.Username); err != nil {
		return fmt.Errorf("failed to persist identity: %w", err)
	}
	if err := a.prefs.Set(repositories.PrefRole, string(identity.Role)); err != nil {
		return fmt.Errorf("failed to persist identity: %w", err)
	}
	a.setFailures(0)
	if a.engine != nil {
		a.engine.SetIdentity(identity)
	}
	a.logger.Info("logged in", "username", identity.Username, "role", identity.Role)
	return nil
}

func (a *Accounts) failures() int {
	value, _, err := a.prefs.Get(repositories.PrefLoginFailures)
	if err != nil {
		return 0
	}
	n, _ := strconv.Atoi(value)
	return n
}

func (a *Accounts) setFailures(n int) {
	var err error
	if n == 0 {
		err = a.prefs.Delete(repositories.PrefLoginFailures)
	} else {
		err = a.prefs.Set(repositories.PrefLoginFailures, strconv.Itoa(n))
	}
	if err != nil {
		a.logger.Warn("failed to record login attempts", "error", err)
	}
}
