package credential

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/goAccount/internal/filestore"
	"github.com/MrEthical07/goAccount/password"
)

// fileRecord is the on-disk shape of one user in users.json.
type fileRecord struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"password"`
	CreatedAt    string `json:"created_at"`
}

// FileStore keeps users in a JSON array. IDs are max(id)+1 and every
// registration runs its uniqueness check and append under one lock.
type FileStore struct {
	col      *filestore.Collection[[]fileRecord]
	verifier *verifier
	now      func() time.Time
}

// NewFileStore opens (or creates) the user file at path.
func NewFileStore(path string, hasher password.Hasher) (*FileStore, error) {
	col, err := filestore.Open(path, func() []fileRecord { return []fileRecord{} })
	if err != nil {
		return nil, err
	}
	return &FileStore{col: col, verifier: newVerifier(hasher), now: time.Now}, nil
}

// Register stores a new user and returns its id.
func (s *FileStore) Register(ctx context.Context, username, email, pw string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := validRegistration(username, email, pw); err != nil {
		return 0, err
	}

	// Hash outside the lock; argon2 is the slow part.
	hash, err := s.verifier.hasher.Hash(pw)
	if err != nil {
		return 0, err
	}

	var id int64
	err = s.col.Update(func(users *[]fileRecord) (bool, error) {
		var maxID int64
		for _, u := range *users {
			if u.Username == username || u.Email == email {
				return false, ErrDuplicate
			}
			if u.ID > maxID {
				maxID = u.ID
			}
		}

		id = maxID + 1
		*users = append(*users, fileRecord{
			ID:           id,
			Username:     username,
			Email:        email,
			PasswordHash: hash,
			CreatedAt:    s.now().UTC().Format(time.RFC3339),
		})
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Authenticate resolves identifier as a username or an email and checks pw.
func (s *FileStore) Authenticate(ctx context.Context, identifier, pw string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user *User
	err := s.col.Read(func(users []fileRecord) error {
		for _, u := range users {
			if u.Username == identifier || u.Email == identifier {
				user = u.toUser()
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !s.verifier.check(user, pw) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Ping checks the user file is readable.
func (s *FileStore) Ping(ctx context.Context) error {
	if err := s.col.Ping(ctx); err != nil {
		return fmt.Errorf("credential file: %w", err)
	}
	return nil
}

func (r fileRecord) toUser() *User {
	created, _ := time.Parse(time.RFC3339, r.CreatedAt)
	return &User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    created,
	}
}
