// Package server initializes and runs the account server. It wires storage,
// notification, object storage and the resend limiter into the account
// service, handles graceful shutdown and starts the gRPC endpoint.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophauth/internal/filex"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/notify"
	"github.com/dmitrijs2005/gophauth/internal/server/objectstore"
	"github.com/dmitrijs2005/gophauth/internal/server/ratelimit"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
)

// memoryObjectsBaseURL prefixes avatar URLs when objects are kept in memory.
const memoryObjectsBaseURL = "memory://avatars"

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	redis    *redis.Client
	accounts *services.AccountService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	return newApp(ctx, c, os.Stdout)
}

func newApp(ctx context.Context, c *config.Config, logOut io.Writer) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	var opts []services.Option
	if c.UploadDir != "" {
		dir, err := filex.EnsureSubdDir(c.UploadDir)
		if err != nil {
			return nil, fmt.Errorf("upload dir: %w", err)
		}
		opts = append(opts, services.WithUploadDir(dir))
	}

	logger := logging.NewJSONLogger(logOut, c.LogLevel)
	app := &App{config: c, logger: logger}

	rm, store, err := app.initStorage(ctx)
	if err != nil {
		app.close(ctx)
		return nil, err
	}

	if c.RedisAddr != "" {
		client, err := ratelimit.NewRedisClient(ctx, c.RedisAddr)
		if err != nil {
			// the service fails open without a limiter
			logger.Warn(ctx, "redis unavailable, resend limiter disabled", "error", err)
		} else {
			app.redis = client
			opts = append(opts, services.WithLimiter(ratelimit.NewFixedWindow(client, c.ResendLimit, c.ResendWindow)))
		}
	}

	signer := auth.NewSigner(c.SecretKey, c.SessionTokenValidityDuration)

	svc, err := services.NewAccountService(app.db, rm, c, signer, app.newNotifier(), store, logger, opts...)
	if err != nil {
		app.close(ctx)
		return nil, fmt.Errorf("account service init error: %w", err)
	}
	app.accounts = svc

	return app, nil
}

// initStorage picks the account store and the avatar object store.
func (app *App) initStorage(ctx context.Context) (repomanager.RepositoryManager, objectstore.Store, error) {
	c := app.config

	if c.Storage == config.StorageMemory {
		app.logger.Warn(ctx, "using in-memory storage, data is lost on restart")
		return repomanager.NewInMemoryRepositoryManager(), objectstore.NewMemoryStore(memoryObjectsBaseURL), nil
	}

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}
	app.db = db

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, nil, fmt.Errorf("migrations error: %w", err)
	}

	store, err := objectstore.NewS3Store(ctx, objectstore.S3Options{
		AccessKey:     c.S3RootUser,
		SecretKey:     c.S3RootPassword,
		Region:        c.S3Region,
		Endpoint:      c.S3BaseEndpoint,
		Bucket:        c.S3Bucket,
		PublicBaseURL: c.S3PublicBaseURL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("object store init error: %w", err)
	}

	return rm, store, nil
}

func (app *App) newNotifier() notify.Notifier {
	c := app.config
	if c.SMTPHost == "" {
		return notify.NewLogSender(app.logger, c.VerificationBaseURL)
	}
	return notify.NewSMTPSender(c.SMTPHost, c.SMTPPort, c.SMTPUser, c.SMTPPassword, c.SMTPFrom, c.VerificationBaseURL)
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

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.accounts, app.config.MaxAvatarBytes)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// drains pending verification sends and releases connections.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.accounts.Wait()
	app.close(ctx)
	app.logger.Info(ctx, "App stopped")
}

func (app *App) close(ctx context.Context) {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close error", "error", err)
		}
		app.db = nil
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error(ctx, "redis close error", "error", err)
		}
		app.redis = nil
	}
}
