// @title           Payroll API
// @version         1.0
// @description     Employee records and payroll aggregates.
// @BasePath        /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/payroll-api/internal/api"
	"github.com/sirpyerre/payroll-api/internal/api/handler"
	"github.com/sirpyerre/payroll-api/internal/core/payroll"
	"github.com/sirpyerre/payroll-api/internal/core/ports"
	"github.com/sirpyerre/payroll-api/internal/core/service"
	"github.com/sirpyerre/payroll-api/internal/infrastructure/config"
	mongodb "github.com/sirpyerre/payroll-api/internal/infrastructure/db/mongo"
	"github.com/sirpyerre/payroll-api/internal/infrastructure/db/postgres"
	redisdb "github.com/sirpyerre/payroll-api/internal/infrastructure/db/redis"
	"github.com/sirpyerre/payroll-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// stores groups the repositories of the selected backend.
type stores struct {
	employees ports.EmployeeRepository
	events    ports.EventRepository
	users     ports.AuthRepository
	check     handler.Check
	close     func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := logger.Init(logger.Options{})
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "payroll-api",
		Env:     cfg.Env,
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	engine := payroll.NewEngine(cfg.Brackets(), nil)
	employees := service.NewEmployeeService(
		st.employees,
		st.events,
		redisdb.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL),
		engine,
		log.With().Str("component", "employee_service").Logger(),
	)
	auth := service.NewAuthService(st.users, cfg.JWTSecret, cfg.TokenTTL)
	if err := bootstrapAdmin(ctx, auth, cfg.Admin, log); err != nil {
		return err
	}

	e := api.NewRouter(api.Dependencies{
		Employees: employees,
		Auth:      auth,
		JWTSecret: cfg.JWTSecret,
		Checks: map[string]handler.Check{
			cfg.StoreBackend: st.check,
			"redis":          func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		Logger: log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("store", cfg.StoreBackend).
			Strs("bracket_roles", cfg.Brackets().Roles()).
			Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// bootstrapAdmin ensures the configured admin account exists. It is a no-op
// when no bootstrap admin is configured.
func bootstrapAdmin(ctx context.Context, auth ports.AuthService, admin config.AdminConfig, log zerolog.Logger) error {
	if !admin.Enabled() {
		return nil
	}
	created, err := auth.EnsureAdmin(ctx, ports.NewUserInput{
		Username: admin.Username,
		Email:    admin.Email,
		Password: admin.Password,
	})
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	log.Info().Str("email", admin.Email).Bool("created", created).Msg("bootstrap admin ready")
	return nil
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := postgres.Connect(ctx, postgres.Config{
			DSN:      cfg.Postgres.DSN,
			MaxConns: cfg.Postgres.MaxConns,
		})
		if err != nil {
			return nil, err
		}
		return &stores{
			employees: postgres.NewEmployeeRepository(pool),
			events:    postgres.NewEventRepository(pool),
			users:     postgres.NewAuthRepository(pool),
			check:     pool.Ping,
			close:     pool.Close,
		}, nil

	default:
		client, db, err := mongodb.Connect(ctx, mongodb.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			return nil, err
		}
		employeeRepo := mongodb.NewEmployeeRepository(db)
		authRepo := mongodb.NewAuthRepository(db)
		if err := mongodb.EnsureIndexes(ctx, employeeRepo, authRepo); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return &stores{
			employees: employeeRepo,
			events:    mongodb.NewEventRepository(db),
			users:     authRepo,
			check:     func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close:     func() { _ = client.Disconnect(context.Background()) },
		}, nil
	}
}
