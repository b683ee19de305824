package goAccount

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// testConfig pins every store to its file fallback under dir and uses the
// cheapest Argon2 parameters Validate accepts.
func testConfig(dir string) Config {
	cfg := DefaultConfig()
	cfg.Password = PasswordConfig{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
	cfg.Backends.Credential = ModeFile
	cfg.Backends.Session = ModeFile
	cfg.Backends.Profile = ModeFile
	cfg.Backends.ProbeTimeout = 500 * time.Millisecond
	cfg.Backends.DataDir = dir
	return cfg
}

type testEnv struct {
	ctx    context.Context
	engine *Engine
	clock  *fakeClock
	dir    string
}

func newTestEnv(t *testing.T, customize ...func(*Config, *Builder)) *testEnv {
	t.Helper()

	dir := t.TempDir()
	clock := newFakeClock()
	cfg := testConfig(dir)
	b := New().WithClock(clock.Now)
	for _, fn := range customize {
		fn(&cfg, b)
	}

	engine, err := b.WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testEnv{
		ctx:    context.Background(),
		engine: engine,
		clock:  clock,
		dir:    dir,
	}
}

func (env *testEnv) registerAndLogin(t *testing.T, username, email, pw string) string {
	t.Helper()

	if res := env.engine.Register(env.ctx, username, email, pw); !res.Success {
		t.Fatalf("register %s: %+v", username, res)
	}
	res := env.engine.Login(env.ctx, username, pw)
	if !res.Success {
		t.Fatalf("login %s: %+v", username, res)
	}
	return res.SessionToken
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}
