// Command accountd serves the account API over HTTP.
//
// Engines are optional. Without ACCOUNT_POSTGRES_DSN, ACCOUNT_REDIS_ADDR or
// ACCOUNT_SQLITE_PATH the matching store runs on its JSON file under
// ACCOUNT_BACKEND_DATA_DIR.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/api"
	"github.com/MrEthical07/goAccount/credential"
	"github.com/MrEthical07/goAccount/internal/logging"
	"github.com/MrEthical07/goAccount/metrics/export/prometheus"
	"github.com/MrEthical07/goAccount/profile"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "accountd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	srvCfg, err := loadServerConfig(nil)
	if err != nil {
		return err
	}
	addr := flag.String("addr", srvCfg.Addr, "listen address")
	flag.Parse()

	log := logging.New(os.Stdout, srvCfg.LogFormat, srvCfg.LogLevel)

	cfg, err := goAccount.LoadConfigFromEnv()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	builder := goAccount.New().WithConfig(cfg).WithLogger(log)
	if srvCfg.AuditLog {
		builder.WithAuditSink(goAccount.NewLoggerSink(log))
	}

	closers, err := openEngines(ctx, srvCfg, cfg, builder, log)
	defer func() {
		for _, c := range closers {
			_ = c()
		}
	}()
	if err != nil {
		return err
	}

	engine, err := builder.BuildContext(ctx)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	e := api.New(engine, api.Options{
		Logger:       log,
		Metrics:      prometheus.NewExporter(engine).Handler(),
		AllowOrigins: srvCfg.AllowOrigins,
	})

	go purgeLoop(ctx, engine, srvCfg.PurgeInterval, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "http server listening", "addr", *addr)
		if err := e.Start(*addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), srvCfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openEngines connects whatever engines are configured and hands them to
// builder. The returned closers run even when an error is returned.
func openEngines(ctx context.Context, srv serverConfig, cfg goAccount.Config, builder *goAccount.Builder, log logging.Logger) ([]func() error, error) {
	var closers []func() error

	if srv.PostgresDSN != "" {
		db, err := credential.OpenPostgres(ctx, srv.PostgresDSN, cfg.Backends.ProbeTimeout)
		if err != nil {
			if cfg.Backends.Credential == goAccount.ModeEngine {
				return closers, fmt.Errorf("postgres: %w", err)
			}
			log.Warn(ctx, "postgres unreachable", "error", err)
		} else {
			closers = append(closers, db.Close)
			builder.WithPostgres(db)
		}
	}

	if srv.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     srv.RedisAddr,
			Password: srv.RedisPassword,
			DB:       srv.RedisDB,
		})
		closers = append(closers, client.Close)
		builder.WithRedis(client)
	}

	if srv.SQLitePath != "" {
		db, err := profile.OpenSQLite(srv.SQLitePath)
		if err != nil {
			if cfg.Backends.Profile == goAccount.ModeEngine {
				return closers, fmt.Errorf("sqlite: %w", err)
			}
			log.Warn(ctx, "sqlite unavailable", "error", err)
		} else {
			closers = append(closers, db.Close)
			builder.WithSQLite(db)
		}
	}

	return closers, nil
}

// purgeLoop sweeps expired sessions from backends without native expiry.
func purgeLoop(ctx context.Context, engine *goAccount.Engine, every time.Duration, log logging.Logger) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := engine.PurgeExpiredSessions(ctx)
			if err != nil {
				log.Warn(ctx, "session purge failed", "error", err)
				continue
			}
			if n > 0 {
				log.Info(ctx, "expired sessions purged", "count", n)
			}
		}
	}
}
