// Package server wires the flow endpoint together: configuration, storage
// backend, crypto material, event sinks, notifier, and the HTTP and gRPC
// listeners with graceful shutdown.
package server

import (
	"context"
	"crypto/rsa"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/tripflow/internal/cryptox"
	"github.com/dmitrijs2005/tripflow/internal/logging"
	"github.com/dmitrijs2005/tripflow/internal/server/config"
	"github.com/dmitrijs2005/tripflow/internal/server/events"
	"github.com/dmitrijs2005/tripflow/internal/server/flow"
	"github.com/dmitrijs2005/tripflow/internal/server/flow/catalog"
	"github.com/dmitrijs2005/tripflow/internal/server/httpapi"
	"github.com/dmitrijs2005/tripflow/internal/server/metrics"
	"github.com/dmitrijs2005/tripflow/internal/server/notify"
	"github.com/dmitrijs2005/tripflow/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tripflow/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/tripflow/internal/server/grpc"
)

// redisStreamMaxLen approximately caps the analytics stream.
const redisStreamMaxLen = 100_000

var ErrNoPrivateKey = errors.New("private key is not configured")

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	redis    *redis.Client
	bookings *services.BookingService
	handler  http.Handler
	grpc     *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	key, err := loadKey(c)
	if err != nil {
		return nil, err
	}

	prices := catalog.DefaultPriceTable()
	if c.PriceTableFile != "" {
		prices, err = catalog.LoadPriceTable(c.PriceTableFile)
		if err != nil {
			return nil, fmt.Errorf("price table: %w", err)
		}
	}

	app := &App{config: c, logger: logger}

	rm, err := app.initStorage(ctx)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	sinks, err := app.initSinks(ctx, m)
	if err != nil {
		app.close(ctx)
		return nil, err
	}
	emitter := events.NewEmitter(logger, c.EventTimeout, sinks...).CountFailures(m.SinkFailures)

	if c.AppSecret == "" {
		logger.Warn(ctx, "app secret is empty, request signatures are not verified")
	}

	sessions := services.NewSessionService(app.db, rm, c, logger)
	app.bookings = services.NewBookingService(app.db, rm, c, app.notifier(ctx), emitter, logger)
	processor := flow.NewProcessor(flow.NewMachine(prices), sessions, app.bookings, emitter, logger)

	app.handler = httpapi.NewHandler(processor, key, c, m, reg, logger).Router()
	app.grpc = gs.NewGRPCServer(c.EndpointAddrGRPC, logger)

	return app, nil
}

func loadKey(c *config.Config) (*rsa.PrivateKey, error) {
	raw := c.PrivateKey
	if raw == "" && c.PrivateKeyFile != "" {
		b, err := os.ReadFile(c.PrivateKeyFile)
		if err != nil {
			return nil, fmt.Errorf("reading private key: %w", err)
		}
		raw = string(b)
	}
	if raw == "" {
		return nil, ErrNoPrivateKey
	}
	return cryptox.LoadPrivateKey(raw, c.PrivateKeyPassphrase)
}

func (app *App) initStorage(ctx context.Context) (repomanager.RepositoryManager, error) {
	switch app.config.StorageBackend {
	case config.StorageMemory:
		app.logger.Warn(ctx, "using in-memory storage, sessions and bookings are lost on restart")
		return repomanager.NewMemoryRepositoryManager(), nil

	case config.StoragePostgres:
		db, err := sql.Open("pgx", app.config.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("db init error: %w", err)
		}

		rm := repomanager.NewPostgresRepositoryManager()
		if err := rm.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		app.db = db
		return rm, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", app.config.StorageBackend)
	}
}

func (app *App) initSinks(ctx context.Context, m *metrics.Metrics) ([]events.Sink, error) {
	sinks := []events.Sink{events.NewLogSink(app.logger), events.NewMetricsSink(m.Events)}

	if app.config.RedisAddr != "" {
		app.redis = events.NewRedisClient(app.config.RedisAddr)
		sinks = append(sinks, events.NewRedisSink(app.redis, app.config.RedisStream, redisStreamMaxLen))
	}

	if app.config.S3Bucket != "" {
		client, err := events.NewS3Client(ctx, app.config)
		if err != nil {
			return nil, fmt.Errorf("s3 init error: %w", err)
		}
		sinks = append(sinks, events.NewS3Sink(client, app.config.S3Bucket, app.config.S3EventPrefix))
	}

	return sinks, nil
}

func (app *App) notifier(ctx context.Context) services.Notifier {
	c := app.config
	if c.WhatsAppAccessToken == "" || c.WhatsAppPhoneNumberID == "" {
		app.logger.Warn(ctx, "messaging is not configured, confirmations are only logged")
		return notify.NewLogNotifier(app.logger)
	}
	return notify.NewWhatsAppNotifier(&http.Client{Timeout: c.NotifyTimeout},
		c.WhatsAppAPIBase, c.WhatsAppPhoneNumberID, c.WhatsAppAccessToken, app.logger)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.handler, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.grpc.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a signal arrives, then waits for
// pending confirmations and releases connections.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.bookings.Wait()
	app.close(ctx)

	app.logger.Info(ctx, "App stopped")
}

func (app *App) close(ctx context.Context) {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "closing database", "error", err)
		}
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error(ctx, "closing redis", "error", err)
		}
	}
}
