package credential

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goAccount/credential/migrations"
	"github.com/MrEthical07/goAccount/password"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const uniqueViolation = "23505"

// DBTX is the subset of database/sql used by PostgresStore.
// Both *sql.DB and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore keeps credentials in the users table. Username and email carry
// unique constraints, so a registration racing past the pre-check still fails
// with ErrDuplicate.
type PostgresStore struct {
	db       DBTX
	verifier *verifier
}

func NewPostgresStore(db DBTX, hasher password.Hasher) *PostgresStore {
	return &PostgresStore{db: db, verifier: newVerifier(hasher)}
}

// OpenPostgres parses dsn with pgx, opens a database/sql pool through the pgx
// stdlib driver, and fails fast when the server does not answer within timeout.
func OpenPostgres(ctx context.Context, dsn string, timeout time.Duration) (*sql.DB, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	db := stdlib.OpenDB(*cfg)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db error: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded schema with goose.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate users: %w", err)
	}
	return nil
}

// Register stores a new user and returns its id.
func (r *PostgresStore) Register(ctx context.Context, username, email, pw string) (int64, error) {
	if err := validRegistration(username, email, pw); err != nil {
		return 0, err
	}

	query :=
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, username, email).Scan(&exists); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	if exists {
		return 0, ErrDuplicate
	}

	hash, err := r.verifier.hasher.Hash(pw)
	if err != nil {
		return 0, err
	}

	query =
		`INSERT INTO users (username, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id`

	var id int64
	if err := r.db.QueryRowContext(ctx, query, username, email, hash).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("db error: %w", err)
	}

	return id, nil
}

// Authenticate resolves identifier as a username or an email and checks pw.
func (r *PostgresStore) Authenticate(ctx context.Context, identifier, pw string) (*User, error) {
	query :=
		`SELECT id, username, email, password_hash, created_at FROM users
		 WHERE username = $1 OR email = $1
		 ORDER BY id
		 LIMIT 1`

	user := &User{}
	err := r.db.QueryRowContext(ctx, query, identifier).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.verifier.check(nil, pw)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if !r.verifier.check(user, pw) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Ping checks the database answers.
func (r *PostgresStore) Ping(ctx context.Context) error {
	if p, ok := r.db.(interface{ PingContext(context.Context) error }); ok {
		if err := p.PingContext(ctx); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	}
	var one int
	if err := r.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
