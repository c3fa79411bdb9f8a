package store

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/magazyn/internal/model"
	"github.com/erazemk/magazyn/internal/proxy"
)

// userRow is a users row including the password column, which model.User
// never serializes.
type userRow struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (r userRow) user() *model.User {
	return &model.User{ID: r.ID, Username: r.Username, Password: r.Password, Role: r.Role}
}

// RegisterUser creates a user. An empty role defaults to spectator. Returns
// ErrUsernameTaken if the username already exists.
func RegisterUser(ctx context.Context, q proxy.Executor, username, password, role string) (*model.User, error) {
	if role == "" {
		role = model.RoleSpectator
	}

	rows, err := q.Query(ctx,
		`INSERT INTO users (username, password, role) VALUES ($1, $2, $3) RETURNING *`,
		[]any{username, password, role},
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("registering user: %w", err)
	}

	row, err := decodeFirst[userRow](rows)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("registering user: no row returned")
	}
	return row.user(), nil
}

// LoginUser returns the user whose credentials match, or nil if they don't.
func LoginUser(ctx context.Context, q proxy.Executor, username, password string) (*model.User, error) {
	rows, err := q.Query(ctx, `SELECT * FROM users WHERE username = $1`, []any{username})
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}

	row, err := decodeFirst[userRow](rows)
	if err != nil || row == nil {
		return nil, err
	}
	if !passwordMatches(row.Password, password) {
		return nil, nil
	}
	return row.user(), nil
}

// passwordMatches compares a stored password with the one given. Accounts
// created at bootstrap hold a bcrypt hash; registered accounts hold the
// password itself.
func passwordMatches(stored, given string) bool {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

func isBcryptHash(s string) bool {
	if len(s) != 60 {
		return false
	}
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// GetUserByUsername returns a user by username, or nil if not found.
func GetUserByUsername(ctx context.Context, q proxy.Executor, username string) (*model.User, error) {
	rows, err := q.Query(ctx, `SELECT * FROM users WHERE username = $1`, []any{username})
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}

	row, err := decodeFirst[userRow](rows)
	if err != nil || row == nil {
		return nil, err
	}
	return row.user(), nil
}

// ListUsers returns all users ordered by id. Passwords are not loaded.
func ListUsers(ctx context.Context, q proxy.Executor) ([]model.User, error) {
	rows, err := q.Query(ctx, `SELECT id, username, role FROM users ORDER BY id`, nil)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	decoded, err := decodeRows[userRow](rows)
	if err != nil {
		return nil, err
	}

	users := make([]model.User, len(decoded))
	for i, r := range decoded {
		users[i] = *r.user()
	}
	return users, nil
}

// CountUsers returns the number of users.
func CountUsers(ctx context.Context, q proxy.Executor) (int, error) {
	rows, err := q.Query(ctx, `SELECT COUNT(*) AS n FROM users`, nil)
	if err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}

	type countRow struct {
		N int `json:"n"`
	}
	row, err := decodeFirst[countRow](rows)
	if err != nil || row == nil {
		return 0, err
	}
	return row.N, nil
}

// UpdateUserRole changes a user's role.
func UpdateUserRole(ctx context.Context, q proxy.Executor, username, role string) error {
	rows, err := q.Query(ctx,
		`UPDATE users SET role = $1 WHERE username = $2 RETURNING id`,
		[]any{role, username},
	)
	if err != nil {
		return fmt.Errorf("updating user role: %w", err)
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes a user.
func DeleteUser(ctx context.Context, q proxy.Executor, username string) error {
	rows, err := q.Query(ctx, `DELETE FROM users WHERE username = $1 RETURNING id`, []any{username})
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return nil
}
