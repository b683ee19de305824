package profile

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/MrEthical07/goAccount/internal/filestore"
)

type fileDoc map[string]Profile

// FileStore keeps profiles in a JSON object keyed by user id. It is the
// fallback backend and the only one that supports Delete.
type FileStore struct {
	col *filestore.Collection[fileDoc]
	now func() time.Time
}

var _ Deleter = (*FileStore)(nil)

// NewFileStore opens (or creates) the profile file at path.
func NewFileStore(path string, opts ...Option) (*FileStore, error) {
	col, err := filestore.Open(path, func() fileDoc { return fileDoc{} })
	if err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	return &FileStore{col: col, now: o.now}, nil
}

func fileKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// Get returns the profile for userID.
func (s *FileStore) Get(ctx context.Context, userID int64) (*Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out *Profile
	err := s.col.Read(func(doc fileDoc) error {
		p, ok := doc[fileKey(userID)]
		if !ok {
			return ErrNotFound
		}
		out = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Upsert merges f into the stored profile, creating it when absent.
func (s *FileStore) Upsert(ctx context.Context, userID int64, f Fields) (*Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out *Profile
	err := s.col.Update(func(doc *fileDoc) (bool, error) {
		if *doc == nil {
			*doc = fileDoc{}
		}
		var existing *Profile
		if p, ok := (*doc)[fileKey(userID)]; ok {
			existing = &p
		}
		out = merge(existing, userID, f, s.now())
		(*doc)[fileKey(userID)] = *out
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the profile for userID.
func (s *FileStore) Delete(ctx context.Context, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.col.Update(func(doc *fileDoc) (bool, error) {
		if _, ok := (*doc)[fileKey(userID)]; !ok {
			return false, ErrNotFound
		}
		delete(*doc, fileKey(userID))
		return true, nil
	})
}

// Ping checks the profile file is readable.
func (s *FileStore) Ping(ctx context.Context) error {
	if err := s.col.Ping(ctx); err != nil {
		return fmt.Errorf("profile file: %w", err)
	}
	return nil
}
