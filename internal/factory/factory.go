package factory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"analytics-service/internal/analytics"
	"analytics-service/internal/config"
	"analytics-service/internal/store"
	"analytics-service/internal/util"
)

// Factory manages the lifecycle of all application dependencies
type Factory struct {
	config *config.Config
	store  *store.Store
	engine *analytics.Engine

	closeOnce sync.Once
	closed    chan struct{}
}

// NewFactory creates and initializes all application dependencies: config,
// logger, the embedded store (with schema ensured) and the aggregation engine
func NewFactory() (*Factory, error) {
	cfg := config.LoadConfig()

	util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)

	factory := &Factory{
		config: cfg,
		closed: make(chan struct{}),
	}

	st, err := store.New(cfg, util.Get())
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	factory.store = st

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := st.InitSchema(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	factory.engine = analytics.NewEngine(st, util.Get())

	util.Info("Factory initialized successfully",
		util.String("environment", cfg.Environment),
		util.String("store_path", cfg.Store.Path),
	)

	return factory, nil
}

// HealthCheck reports the health of the store
func (f *Factory) HealthCheck(ctx context.Context) error {
	if f.store == nil {
		return fmt.Errorf("store not initialized")
	}
	return f.store.HealthCheck(ctx)
}

// Close shuts down all dependencies exactly once
func (f *Factory) Close() error {
	f.closeOnce.Do(func() {
		close(f.closed)
		util.Info("Shutting down factory...")

		if f.store != nil {
			if err := f.store.Close(); err != nil {
				util.Error("Failed to close store", util.ErrorField(err))
			}
		}

		util.Sync()
		util.Info("Factory shutdown completed")
	})

	return nil
}

// WaitForClose blocks until the factory has been closed
func (f *Factory) WaitForClose() {
	<-f.closed
}

func (f *Factory) Config() *config.Config {
	return f.config
}

func (f *Factory) Store() *store.Store {
	return f.store
}

func (f *Factory) Engine() *analytics.Engine {
	return f.engine
}
