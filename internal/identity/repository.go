package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, user *User) error
	FindByUsername(ctx context.Context, username string) (User, error)
	FindByID(ctx context.Context, id int64) (User, error)
	UpdateTokenVersion(ctx context.Context, id int64, version int) error
}

const uniqueViolation = "23505"

const userColumns = `id, username, role, password_hash, first_name, last_name, COALESCE(tckn, ''), token_version, created_at`

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed identity repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user and assigns its id.
func (r *PostgresRepository) Create(ctx context.Context, user *User) error {
	var tckn *string
	if user.TCKN != "" {
		tckn = &user.TCKN
	}
	err := r.db.QueryRow(ctx, `INSERT INTO users (username, role, password_hash, first_name, last_name, tckn, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		user.Username, string(user.Role), user.PasswordHash, user.FirstName, user.LastName, tckn, user.CreatedAt.UTC()).Scan(&user.ID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrUserExists
	}
	return err
}

// FindByUsername fetches a user by login name.
func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

// FindByID fetches a user by id.
func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// UpdateTokenVersion stores the version tokens must carry to stay valid.
func (r *PostgresRepository) UpdateTokenVersion(ctx context.Context, id int64, version int) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET token_version = $1 WHERE id = $2`, version, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		user User
		role string
	)
	err := row.Scan(&user.ID, &user.Username, &role, &user.PasswordHash, &user.FirstName, &user.LastName,
		&user.TCKN, &user.TokenVersion, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	user.Role = Role(role)
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}
