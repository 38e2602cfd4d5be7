package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/digital-native-cli/internal/batch"
	"github.com/sells-group/digital-native-cli/internal/config"
	"github.com/sells-group/digital-native-cli/internal/scoring"
	"github.com/sells-group/digital-native-cli/internal/store"
	"github.com/sells-group/digital-native-cli/pkg/anthropic"
)

// runtimeEnv bundles the wired components a command needs.
type runtimeEnv struct {
	Store       store.Store
	Engine      *scoring.Engine
	Queue       *batch.Queue
	Coordinator *batch.Coordinator
}

// initEnv opens the store, runs migrations, and wires the scoring engine and
// batch coordinator.
func initEnv(ctx context.Context) (*runtimeEnv, error) {
	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	var client anthropic.Client
	if cfg.Anthropic.Key != "" {
		client = anthropic.NewClient(cfg.Anthropic.Key)
	} else {
		zap.L().Warn("no Anthropic API key configured, scoring runs in fallback-only mode")
	}
	engine := scoring.NewEngine(client, cfg.Anthropic)

	queue := batch.NewQueue(cfg.Batch.Workers, cfg.Batch.QueueSize)
	coord := batch.NewCoordinator(st, engine, queue)

	return &runtimeEnv{
		Store:       st,
		Engine:      engine,
		Queue:       queue,
		Coordinator: coord,
	}, nil
}

// Close drains the queue and closes the store. Drain waits up to 30s.
func (e *runtimeEnv) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := e.Queue.Shutdown(ctx); err != nil {
		zap.L().Warn("queue drain incomplete", zap.Error(err))
	}
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("store close failed", zap.Error(err))
	}
}

func openStore(ctx context.Context, sc config.StoreConfig) (store.Store, error) {
	switch sc.Driver {
	case "postgres":
		return store.NewPostgres(ctx, sc.DatabaseURL, &store.PoolConfig{
			MaxConns: sc.MaxConns,
			MinConns: sc.MinConns,
		})
	case "sqlite", "":
		return store.NewSQLite(sc.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", sc.Driver)
	}
}
