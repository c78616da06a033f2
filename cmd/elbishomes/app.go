package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nkiryanov/elbishomes/internal/cache"
	"github.com/nkiryanov/elbishomes/internal/cache/memory"
	rediscache "github.com/nkiryanov/elbishomes/internal/cache/redis"
	"github.com/nkiryanov/elbishomes/internal/db"
	"github.com/nkiryanov/elbishomes/internal/handlers"
	"github.com/nkiryanov/elbishomes/internal/logger"
	"github.com/nkiryanov/elbishomes/internal/notify"
	"github.com/nkiryanov/elbishomes/internal/repository/postgres"
	"github.com/nkiryanov/elbishomes/internal/service/auth"
	"github.com/nkiryanov/elbishomes/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/elbishomes/internal/service/enquiry"
	"github.com/nkiryanov/elbishomes/internal/service/favorite"
	"github.com/nkiryanov/elbishomes/internal/service/property"
	"github.com/nkiryanov/elbishomes/internal/service/reset"
	"github.com/nkiryanov/elbishomes/internal/service/user"
)

const (
	shutdownTimeout = 5 * time.Second
	janitorInterval = time.Minute
	redisKeyPrefix  = "elbishomes"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger logger.Logger

	// Started with the server, stopped with it
	background []func(ctx context.Context) <-chan struct{}

	// Released after server stopped
	closers []func()
}

func NewServerApp(ctx context.Context, c *Config) (_ *ServerApp, err error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	app := &ServerApp{ListenAddr: c.ListenAddr, logger: logger}
	defer func() {
		if err != nil {
			app.close()
		}
	}()

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	app.closers = append(app.closers, pool.Close)

	revocations, err := app.newCache(ctx, c)
	if err != nil {
		return nil, err
	}

	dispatcher := notify.NewDispatcher(notify.DispatcherConfig{}, newSender(c, logger), logger)
	app.background = append(app.background, dispatcher.Run)

	app.Handler, err = newHandler(c, pool, revocations, dispatcher, logger)
	if err != nil {
		return nil, err
	}

	return app, nil
}

func (s *ServerApp) newCache(ctx context.Context, c *Config) (cache.Cache, error) {
	if c.RedisURL == "" {
		s.logger.Warn("REDIS_URL not set, revocations are kept in memory of this process")

		mc := memory.New()
		s.background = append(s.background, func(ctx context.Context) <-chan struct{} {
			return mc.Janitor(ctx, janitorInterval)
		})
		return mc, nil
	}

	client, err := rediscache.Connect(ctx, c.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to redis. Err: %w", err)
	}
	s.closers = append(s.closers, func() { _ = client.Close() })

	return rediscache.New(client, redisKeyPrefix), nil
}

func newSender(c *Config, logger logger.Logger) notify.Sender {
	if c.SMTPHost == "" {
		return &notify.LogSender{Logger: logger}
	}

	return &notify.SMTPSender{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUsername,
		Password: c.SMTPPassword,
		From:     c.FromEmail,
	}
}

func newHandler(c *Config, pool *pgxpool.Pool, revocations cache.Cache, dispatcher *notify.Dispatcher, logger logger.Logger) (http.Handler, error) {
	storage := postgres.NewStorage(pool)

	tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: c.SecretKey, AccessTTL: c.AccessTokenTTL})
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	authService, err := auth.NewService(auth.Config{}, tokenManager, storage.User(), revocations)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	resetService, err := reset.NewService(reset.Config{}, storage.User(), revocations, dispatcher, logger)
	if err != nil {
		return nil, fmt.Errorf("error while creating reset service. Err: %w", err)
	}

	enquiryService, err := enquiry.NewService(c.EnquiryEmail, storage.Property(), dispatcher, logger)
	if err != nil {
		return nil, fmt.Errorf("error while creating enquiry service. Err: %w", err)
	}

	return handlers.NewRouter(handlers.Services{
		Auth:     authService,
		Reset:    resetService,
		User:     user.NewService(storage.User()),
		Property: property.NewService(storage.Property()),
		Favorite: favorite.NewService(storage),
		Enquiry:  enquiryService,
	}, logger), nil
}

func (s *ServerApp) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Run starts http server and closes gracefully on context cancellation
// Background workers run as long as the server does
func (s *ServerApp) Run(ctx context.Context) error {
	defer s.close()

	bgCtx, bgCancel := context.WithCancel(context.Background())
	var done []<-chan struct{}
	for _, start := range s.background {
		done = append(done, start(bgCtx))
	}
	defer func() {
		bgCancel()
		for _, d := range done {
			<-d
		}
	}()

	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
