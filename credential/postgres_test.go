package credential

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	existsQuery = `(?s)^SELECT\s+EXISTS\s*\(SELECT\s+1\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s+OR\s+email\s*=\s*\$2\)\s*$`
	insertQuery = `(?s)^INSERT\s+INTO\s+users\s*\(username,\s*email,\s*password_hash\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id\s*$`
	selectQuery = `(?s)^SELECT\s+id,\s*username,\s*email,\s*password_hash,\s*created_at\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s+OR\s+email\s*=\s*\$1\s+ORDER\s+BY\s+id\s+LIMIT\s+1\s*$`
)

func newRepoWithMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresStore(db, newTestHasher(t)), mock, db
}

func TestPostgresRegister_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(existsQuery).
		WithArgs("alice", "alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(insertQuery).
		WithArgs("alice", "alice@example.com", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := repo.Register(context.Background(), "alice", "alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if id != 7 {
		t.Fatalf("expected id 7, got %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRegister_DuplicatePrecheck(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(existsQuery).
		WithArgs("alice", "other@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := repo.Register(context.Background(), "alice", "other@example.com", "secret1")
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("insert must not run after duplicate pre-check: %v", err)
	}
}

func TestPostgresRegister_UniqueViolationRace(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(existsQuery).
		WithArgs("bob", "bob@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(insertQuery).
		WithArgs("bob", "bob@example.com", sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Register(context.Background(), "bob", "bob@example.com", "secret1")
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate from unique violation, got %v", err)
	}
}

func TestPostgresRegister_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(existsQuery).
		WithArgs("alice", "alice@example.com").
		WillReturnError(errors.New("db down"))

	_, err := repo.Register(context.Background(), "alice", "alice@example.com", "secret1")
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestPostgresRegister_EmptyFields(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	if _, err := repo.Register(context.Background(), "", "a@example.com", "secret1"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no queries expected: %v", err)
	}
}

func TestPostgresAuthenticate(t *testing.T) {
	hash, err := newTestHasher(t).Hash("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name       string
		identifier string
		password   string
		rows       *sqlmock.Rows
		wantErr    error
	}{
		{
			name:       "by username",
			identifier: "alice",
			password:   "secret1",
			rows: sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at"}).
				AddRow(int64(1), "alice", "alice@example.com", hash, created),
		},
		{
			name:       "by email",
			identifier: "alice@example.com",
			password:   "secret1",
			rows: sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at"}).
				AddRow(int64(1), "alice", "alice@example.com", hash, created),
		},
		{
			name:       "wrong password",
			identifier: "alice",
			password:   "wrongpass",
			rows: sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at"}).
				AddRow(int64(1), "alice", "alice@example.com", hash, created),
			wantErr: ErrInvalidCredentials,
		},
		{
			name:       "unknown user",
			identifier: "nonexistent",
			password:   "x",
			rows:       sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at"}),
			wantErr:    ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			mock.ExpectQuery(selectQuery).WithArgs(tt.identifier).WillReturnRows(tt.rows)

			user, err := repo.Authenticate(context.Background(), tt.identifier, tt.password)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if err.Error() != "invalid credentials" {
					t.Fatalf("failure message must not leak detail, got %q", err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate error: %v", err)
			}
			if user.ID != 1 || user.Username != "alice" || !user.CreatedAt.Equal(created) {
				t.Fatalf("unexpected user: %+v", user)
			}
		})
	}
}

func TestPostgresPing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresStore(db, newTestHasher(t))

	mock.ExpectPing()
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("expected ping to succeed: %v", err)
	}

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	if err := repo.Ping(context.Background()); err == nil {
		t.Fatal("expected ping failure")
	}
}
