package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/smartclassroom/backend/core"
	"github.com/smartclassroom/backend/core/user"
)

const userColumns = "id, username, email, password_hash, role, created_at, last_login"

type userRow struct {
	ID           int        `db:"id"`
	Username     string     `db:"username"`
	Email        string     `db:"email"`
	PasswordHash []byte     `db:"password_hash"`
	Role         string     `db:"role"`
	CreatedAt    int64      `db:"created_at"`
	LastLogin    null.Int64 `db:"last_login"`
}

type userRepository struct {
	repository
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{repository{exec: exec}}
}

func (repo userRepository) boil(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Username:     usr.Username,
		Email:        usr.Email,
		PasswordHash: usr.PasswordHash,
		Role:         string(usr.Role),
		CreatedAt:    toUnix(usr.CreatedAt),
		LastLogin:    nullUnix(&usr.LastLogin),
	}
}

func (repo userRepository) unboil(row userRow) user.User {
	usr := user.User{
		ID:           row.ID,
		Username:     row.Username,
		Email:        row.Email,
		Role:         user.Role(row.Role),
		PasswordHash: row.PasswordHash,
		CreatedAt:    fromUnix(row.CreatedAt),
	}
	if t := nullUnixPtr(row.LastLogin); t != nil {
		usr.LastLogin = *t
	}
	return usr
}

func (repo userRepository) unboilSlice(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, repo.unboil(row))
	}
	return users
}

func (repo userRepository) CheckUniqueness(ctx context.Context, username, email string, exec ...core.DBExecutor) error {
	var rows []userRow
	q := "SELECT " + userColumns + " FROM users WHERE username = ? OR email = ?"
	if err := repo.selectAll(ctx, exec, &rows, q, username, email); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	for _, row := range rows {
		if row.Username == username {
			return user.ErrUsernameExists
		}
	}
	if len(rows) > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	row := repo.boil(usr)
	id, err := repo.insert(ctx, exec,
		"INSERT INTO users (username, email, password_hash, role, created_at, last_login) VALUES (?, ?, ?, ?, ?, ?)",
		row.Username, row.Email, row.PasswordHash, row.Role, row.CreatedAt, row.LastLogin)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, core.WrapError(core.ErrConflict, err, "a user with this username or email already exists")
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	row.ID = id
	return repo.unboil(row), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, exec ...core.DBExecutor) ([]user.User, error) {
	var rows []userRow
	if err := repo.selectAll(ctx, exec, &rows, "SELECT "+userColumns+" FROM users ORDER BY id"); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return repo.unboilSlice(rows), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id int, exec ...core.DBExecutor) (user.User, error) {
	var row userRow
	if err := repo.get(ctx, exec, &row, "SELECT "+userColumns+" FROM users WHERE id = ?", id); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user by ID")
	}
	return repo.unboil(row), nil
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (user.User, error) {
	var row userRow
	if err := repo.get(ctx, exec, &row, "SELECT "+userColumns+" FROM users WHERE email = ?", email); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user by email")
	}
	return repo.unboil(row), nil
}

func (repo userRepository) SetLastLogin(ctx context.Context, id int, at time.Time, exec ...core.DBExecutor) error {
	n, err := repo.execute(ctx, exec, "UPDATE users SET last_login = ? WHERE id = ?", toUnix(at), id)
	if err != nil {
		return errors.Wrap(err, "updating last login")
	}
	if n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo userRepository) SetPassword(ctx context.Context, id int, hash []byte, exec ...core.DBExecutor) error {
	n, err := repo.execute(ctx, exec, "UPDATE users SET password_hash = ? WHERE id = ?", hash, id)
	if err != nil {
		return errors.Wrap(err, "updating password")
	}
	if n == 0 {
		return user.ErrNotFound
	}
	return nil
}
