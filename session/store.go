package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goAccount/internal"
	"github.com/redis/go-redis/v9"
)

const (
	// expiryGrace keeps the Redis key alive one second past ExpiresAt so a
	// validate at exactly ExpiresAt still finds the record.
	expiryGrace = time.Second

	maxWatchRetries  = 5
	maxCreateRetries = 3
)

// RedisStore is a Redis-backed session store. Each session lives under
// <prefix>:<token> as an Encode blob; the Redis TTL mirrors ExpiresAt and is
// only a backstop, the stored expiry is authoritative.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStore creates a session store on the given client. prefix sets the
// key namespace and ttl the sliding lifetime (DefaultTTL when <= 0).
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration, opts ...Option) *RedisStore {
	o := buildOptions(opts)
	if prefix == "" {
		prefix = "as"
	}
	return &RedisStore{
		redis:  client,
		prefix: prefix,
		ttl:    normalizeTTL(ttl),
		now:    o.now,
	}
}

func (s *RedisStore) key(token string) string {
	return s.prefix + ":" + token
}

// TTL returns the sliding lifetime applied on create and validate.
func (s *RedisStore) TTL() time.Duration {
	return s.ttl
}

// Create issues a new token for owner and persists the session.
//
//	Performance: 1 Redis SET NX.
func (s *RedisStore) Create(ctx context.Context, owner Owner) (string, error) {
	for attempt := 0; attempt < maxCreateRetries; attempt++ {
		token, err := internal.NewSessionToken()
		if err != nil {
			return "", err
		}

		sess := newSession(token, owner, s.now(), s.ttl)
		data, err := Encode(sess)
		if err != nil {
			return "", err
		}

		ok, err := s.redis.SetNX(ctx, s.key(token), data, s.ttl+expiryGrace).Result()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		if ok {
			return token, nil
		}
	}
	return "", errors.New("session token collision")
}

// Validate returns the session for token and slides its expiry to now+TTL.
// An expired record is deleted and ErrExpired returned. The read and the
// write-back run under WATCH so a concurrent Destroy is never undone.
//
//	Performance: GET + MULTI/SET/EXEC, retried on watch conflicts.
func (s *RedisStore) Validate(ctx context.Context, token string) (*Session, error) {
	if !internal.ValidSessionToken(token) {
		return nil, ErrNotFound
	}
	key := s.key(token)

	var out *Session
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}

		sess, decErr := Decode(data)
		now := s.now()
		if decErr != nil || sess.Expired(now) {
			_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			if err != nil {
				return err
			}
			if decErr != nil {
				return ErrNotFound
			}
			return ErrExpired
		}

		sess.Token = token
		sess.ExpiresAt = now.Truncate(time.Second).Add(s.ttl)
		encoded, err := Encode(sess)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, sess.ExpiresAt.Sub(now)+expiryGrace)
			return nil
		})
		if err != nil {
			return err
		}

		out = sess
		return nil
	}

	for attempt := 0; attempt < maxWatchRetries; attempt++ {
		err := s.redis.Watch(ctx, txf, key)
		switch {
		case err == nil:
			return out, nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.Is(err, ErrInvalidOrExpired), errors.Is(err, ErrRedisUnavailable):
			return nil, err
		default:
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return nil, fmt.Errorf("%w: session validate contention", ErrRedisUnavailable)
}

// Destroy removes the session. Destroying an absent token is not an error.
//
//	Performance: 1 Redis DEL.
func (s *RedisStore) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.redis.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Take removes the session and returns it. An absent or undecodable record
// yields (nil, nil) so logout stays idempotent.
//
//	Performance: 1 Redis GETDEL.
func (s *RedisStore) Take(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, nil
	}
	data, err := s.redis.GetDel(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	sess, err := Decode(data)
	if err != nil {
		return nil, nil
	}
	sess.Token = token
	return sess, nil
}

// Ping checks Redis reachability.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
