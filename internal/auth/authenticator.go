package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ccpp/internal/core"
)

var (
	ErrConfiguration  = core.ErrConfiguration
	ErrAuthentication = core.ErrAuthentication
)

// DefaultAdminNames are the display names that unlock the unrestricted view.
var DefaultAdminNames = []string{"Ivan Manrique", "SUPER ADMIN"}

// Result is the outcome of a successful login.
type Result struct {
	Identity string
	IsAdmin  bool
	User     core.User
}

// Authenticator checks credentials against a users table.
type Authenticator struct {
	admins map[string]struct{}
	logger *slog.Logger
}

// New builds an authenticator. An empty admin list selects
// DefaultAdminNames.
func New(adminNames []string, logger *slog.Logger) *Authenticator {
	if len(adminNames) == 0 {
		adminNames = DefaultAdminNames
	}
	if logger == nil {
		logger = slog.Default()
	}
	a := &Authenticator{admins: make(map[string]struct{}, len(adminNames)), logger: logger}
	for _, n := range adminNames {
		if n = strings.TrimSpace(n); n != "" {
			a.admins[n] = struct{}{}
		}
	}
	return a
}

// IsAdminName reports whether a display name is reserved for admins.
func (a *Authenticator) IsAdminName(name string) bool {
	_, ok := a.admins[name]
	return ok
}

// Login scans users in file order. The first row whose username matches and
// whose password verifies wins; a matching row with a wrong password does
// not end the scan. A malformed hash on a matching row aborts it.
func (a *Authenticator) Login(users core.Table, username, password string) (Result, error) {
	if err := users.Require(core.UserColumns...); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	for i, u := range core.UsersFromTable(users) {
		if u.Username != username {
			continue
		}
		ok, err := VerifyPasswordString(password, u.PasswordHash)
		if err != nil {
			a.logger.Error("Unusable password hash", "row", i+2, "username", username, "error", err)
			return Result{}, fmt.Errorf("%w: row %d: %w", ErrAuthentication, i+2, err)
		}
		if !ok {
			continue
		}
		res := Result{Identity: u.DisplayName, User: u}
		if a.IsAdminName(u.DisplayName) {
			res.Identity = core.All
			res.IsAdmin = true
		}
		return res, nil
	}
	return Result{}, ErrAuthentication
}

// IsMalformed reports whether a login failed on an unusable stored hash
// rather than on bad credentials.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedHash)
}
