// Command account-loadtest measures session store throughput: validate
// (read plus expiry slide) and churn (create then destroy).
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goAccount/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// sessionStore is the part of a session backend the phases drive.
type sessionStore interface {
	Create(ctx context.Context, owner session.Owner) (string, error)
	Validate(ctx context.Context, token string) (*session.Session, error)
	Destroy(ctx context.Context, token string) error
	TTL() time.Duration
}

func main() {
	var (
		sessions    = flag.Int("sessions", 100000, "number of sessions to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (validate + churn)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, ACCOUNT_REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "as", "session key prefix")
		ttl         = flag.Duration("ttl", time.Hour, "sliding session lifetime")
		filePath    = flag.String("file", "", "benchmark the JSON file store at this path instead of redis")
	)
	flag.Parse()

	if *sessions <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "sessions, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	store, cleanup, err := openStore(*filePath, *redisAddr, *prefix, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	tokens := make([]string, *sessions)
	fmt.Printf("seeding %d sessions (ttl %s)...\n", *sessions, store.TTL())
	startSeed := time.Now()
	for i := 0; i < *sessions; i++ {
		token, err := store.Create(ctx, ownerFor(i))
		if err != nil {
			fmt.Fprintf(os.Stderr, "create failed: %v\n", err)
			os.Exit(1)
		}
		tokens[i] = token
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	validateStats := runPhase(*ops, *concurrency, 7919, func(r *rand.Rand, _ int) error {
		_, err := store.Validate(ctx, tokens[r.Intn(len(tokens))])
		return err
	})
	churnStats := runPhase(*ops, *concurrency, 6151, func(_ *rand.Rand, i int) error {
		token, err := store.Create(ctx, ownerFor(i))
		if err != nil {
			return err
		}
		return store.Destroy(ctx, token)
	})

	fmt.Println("---- results ----")
	printStats("validate", validateStats)
	printStats("churn", churnStats)
}

func openStore(filePath, redisAddr, prefix string, ttl time.Duration) (sessionStore, func(), error) {
	if filePath != "" {
		store, err := session.NewFileStore(filePath, ttl)
		if err != nil {
			return nil, nil, err
		}
		fmt.Printf("using file store at %s\n", filePath)
		return store, func() {}, nil
	}

	addr := redisAddr
	if addr == "" {
		addr = os.Getenv("ACCOUNT_REDIS_ADDR")
	}

	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start miniredis: %w", err)
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{mr.Addr()},
		})
		fmt.Printf("using miniredis at %s\n", mr.Addr())
		return session.NewRedisStore(client, prefix, ttl), func() {
			_ = client.Close()
			mr.Close()
		}, nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{addr},
	})
	fmt.Printf("using redis at %s\n", addr)
	return session.NewRedisStore(client, prefix, ttl), func() { _ = client.Close() }, nil
}

// runPhase runs ops calls of op across concurrency workers and records the
// latency of each.
func runPhase(ops, concurrency int, seedStride int64, op func(r *rand.Rand, i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seedStride))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r, i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

func ownerFor(i int) session.Owner {
	return session.Owner{
		UserID:   int64(i%1000) + 1,
		Username: fmt.Sprintf("user%d", i%1000),
		Email:    fmt.Sprintf("user%d@example.com", i%1000),
	}
}
