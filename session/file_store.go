package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goAccount/internal"
	"github.com/MrEthical07/goAccount/internal/filestore"
)

// fileRecord is the on-disk shape of one session in sessions.json.
type fileRecord struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	LoginTime int64  `json:"login_time"`
	ExpiresAt int64  `json:"expires_at"`
}

type fileDoc map[string]fileRecord

// FileStore keeps sessions in a single JSON object keyed by token. It is the
// fallback when Redis is not reachable and serializes every mutation through
// the collection lock.
type FileStore struct {
	col *filestore.Collection[fileDoc]
	ttl time.Duration
	now func() time.Time
}

// NewFileStore opens (or creates) the session file at path.
func NewFileStore(path string, ttl time.Duration, opts ...Option) (*FileStore, error) {
	o := buildOptions(opts)
	col, err := filestore.Open(path, func() fileDoc { return fileDoc{} })
	if err != nil {
		return nil, err
	}
	return &FileStore{col: col, ttl: normalizeTTL(ttl), now: o.now}, nil
}

// TTL returns the sliding lifetime applied on create and validate.
func (s *FileStore) TTL() time.Duration {
	return s.ttl
}

// Create issues a new token for owner and persists the session.
func (s *FileStore) Create(ctx context.Context, owner Owner) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var token string
	err := s.col.Update(func(doc *fileDoc) (bool, error) {
		if *doc == nil {
			*doc = fileDoc{}
		}
		for attempt := 0; attempt < maxCreateRetries; attempt++ {
			candidate, err := internal.NewSessionToken()
			if err != nil {
				return false, err
			}
			if _, taken := (*doc)[candidate]; taken {
				continue
			}
			token = candidate
			(*doc)[token] = toRecord(newSession(token, owner, s.now(), s.ttl))
			return true, nil
		}
		return false, errors.New("session token collision")
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// Validate returns the session for token and slides its expiry to now+TTL.
// An expired record is removed from the file before ErrExpired is returned.
func (s *FileStore) Validate(ctx context.Context, token string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !internal.ValidSessionToken(token) {
		return nil, ErrNotFound
	}

	var out *Session
	err := s.col.Update(func(doc *fileDoc) (bool, error) {
		rec, ok := (*doc)[token]
		if !ok {
			return false, ErrNotFound
		}

		sess := fromRecord(token, rec)
		now := s.now()
		if sess.Expired(now) {
			delete(*doc, token)
			return true, ErrExpired
		}

		sess.ExpiresAt = now.Truncate(time.Second).Add(s.ttl)
		(*doc)[token] = toRecord(sess)
		out = sess
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Destroy removes the session. Destroying an absent token is not an error.
func (s *FileStore) Destroy(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.col.Update(func(doc *fileDoc) (bool, error) {
		if _, ok := (*doc)[token]; !ok {
			return false, nil
		}
		delete(*doc, token)
		return true, nil
	})
}

// Take removes the session and returns it, or (nil, nil) when absent.
func (s *FileStore) Take(ctx context.Context, token string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out *Session
	err := s.col.Update(func(doc *fileDoc) (bool, error) {
		rec, ok := (*doc)[token]
		if !ok {
			return false, nil
		}
		delete(*doc, token)
		out = fromRecord(token, rec)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PurgeExpired drops every record already past its expiry and reports how
// many were removed.
func (s *FileStore) PurgeExpired(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	removed := 0
	now := s.now().Unix()
	err := s.col.Update(func(doc *fileDoc) (bool, error) {
		for token, rec := range *doc {
			if now > rec.ExpiresAt {
				delete(*doc, token)
				removed++
			}
		}
		return removed > 0, nil
	})
	return removed, err
}

// Ping checks the session file is readable.
func (s *FileStore) Ping(ctx context.Context) error {
	if err := s.col.Ping(ctx); err != nil {
		return fmt.Errorf("session file: %w", err)
	}
	return nil
}

func toRecord(s *Session) fileRecord {
	return fileRecord{
		UserID:    s.UserID,
		Username:  s.Username,
		Email:     s.Email,
		LoginTime: s.LoginTime.Unix(),
		ExpiresAt: s.ExpiresAt.Unix(),
	}
}

func fromRecord(token string, r fileRecord) *Session {
	return &Session{
		Token:     token,
		UserID:    r.UserID,
		Username:  r.Username,
		Email:     r.Email,
		LoginTime: time.Unix(r.LoginTime, 0),
		ExpiresAt: time.Unix(r.ExpiresAt, 0),
	}
}
