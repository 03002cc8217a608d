// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	authHTTP "github.com/wardenauth/warden/internal/auth/http"
	authUsecase "github.com/wardenauth/warden/internal/auth/usecase"
	authzHTTP "github.com/wardenauth/warden/internal/authz/http"
	authzService "github.com/wardenauth/warden/internal/authz/service"
	authzUsecase "github.com/wardenauth/warden/internal/authz/usecase"
	"github.com/wardenauth/warden/internal/config"
	"github.com/wardenauth/warden/internal/database"
	"github.com/wardenauth/warden/internal/http"
	keysService "github.com/wardenauth/warden/internal/keys/service"
	"github.com/wardenauth/warden/internal/metrics"
	principalHTTP "github.com/wardenauth/warden/internal/principal/http"
	principalUsecase "github.com/wardenauth/warden/internal/principal/usecase"
	tokenService "github.com/wardenauth/warden/internal/token/service"
	tokenUsecase "github.com/wardenauth/warden/internal/token/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger *slog.Logger
	db     *sql.DB

	// Managers
	txManager database.TxManager

	// Metrics
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Principals
	principalRepo    principalUsecase.PrincipalRepository
	principalUseCase principalUsecase.UseCase
	principalHandler *principalHTTP.PrincipalHandler

	// Tokens and signing keys
	keyStore            keysService.KeyStore
	accessTokenService  tokenService.AccessTokenService
	refreshTokenService tokenService.RefreshTokenService
	refreshTokenRepo    tokenUsecase.RefreshTokenRepository
	tokenUseCase        tokenUsecase.TokenUseCase

	// Authorization
	roleRepo           authzUsecase.RoleRepository
	roleAssignmentRepo authzUsecase.RoleAssignmentRepository
	policyRepo         authzUsecase.PolicyRepository
	decisionLogRepo    authzUsecase.DecisionLogRepository
	rbacEvaluator      authzService.RbacEvaluator
	abacEvaluator      authzService.AbacEvaluator
	auditSigner        authzService.AuditSigner
	auditRecorder      authzService.AuditRecorder
	authorizeUseCase   authzUsecase.AuthorizeUseCase
	roleUseCase        authzUsecase.RoleUseCase
	policyUseCase      authzUsecase.PolicyUseCase
	decisionLogUseCase authzUsecase.DecisionLogUseCase
	roleHandler        *authzHTTP.RoleHandler
	policyHandler      *authzHTTP.PolicyHandler
	decisionLogHandler *authzHTTP.DecisionLogHandler

	// Authentication
	authUseCase authUsecase.AuthUseCase
	authHandler *authHTTP.AuthHandler

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                      sync.Mutex
	loggerInit              sync.Once
	dbInit                  sync.Once
	txManagerInit           sync.Once
	metricsProviderInit     sync.Once
	businessMetricsInit     sync.Once
	principalRepoInit       sync.Once
	principalUseCaseInit    sync.Once
	principalHandlerInit    sync.Once
	keyStoreInit            sync.Once
	accessTokenServiceInit  sync.Once
	refreshTokenServiceInit sync.Once
	refreshTokenRepoInit    sync.Once
	tokenUseCaseInit        sync.Once
	roleRepoInit            sync.Once
	roleAssignmentRepoInit  sync.Once
	policyRepoInit          sync.Once
	decisionLogRepoInit     sync.Once
	rbacEvaluatorInit       sync.Once
	abacEvaluatorInit       sync.Once
	auditSignerInit         sync.Once
	auditRecorderInit       sync.Once
	authorizeUseCaseInit    sync.Once
	roleUseCaseInit         sync.Once
	policyUseCaseInit       sync.Once
	decisionLogUseCaseInit  sync.Once
	roleHandlerInit         sync.Once
	policyHandlerInit       sync.Once
	decisionLogHandlerInit  sync.Once
	authUseCaseInit         sync.Once
	authHandlerInit         sync.Once
	httpServerInit          sync.Once
	metricsServerInit       sync.Once
	initErrors              map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the OpenTelemetry metrics provider. Returns nil
// without error when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. A no-op recorder is
// returned when metrics are disabled, so callers never branch on the setting.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// HTTPServer returns the HTTP server instance with the full route tree mounted.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server instance. Returns nil without
// error when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	// Shutdown HTTP servers if initialized
	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}
	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	// Drain the decision log queue before closing the database
	if c.auditRecorder != nil {
		if err := c.auditRecorder.Close(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("audit recorder close: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	// Close database connection if initialized
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	// Return combined errors if any occurred
	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initBusinessMetrics creates the business metrics recorder.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	if !c.config.MetricsEnabled {
		return metrics.NewNoOpBusinessMetrics(), nil
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}

	businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	return businessMetrics, nil
}

// initHTTPServer creates the HTTP server with all its dependencies.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	authHandler, err := c.AuthHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth handler for http server: %w", err)
	}

	principalHandler, err := c.PrincipalHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get principal handler for http server: %w", err)
	}

	roleHandler, err := c.RoleHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get role handler for http server: %w", err)
	}

	policyHandler, err := c.PolicyHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get policy handler for http server: %w", err)
	}

	decisionLogHandler, err := c.DecisionLogHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get decision log handler for http server: %w", err)
	}

	authUC, err := c.AuthUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth use case for http server: %w", err)
	}

	rbacEvaluator, err := c.RbacEvaluator()
	if err != nil {
		return nil, fmt.Errorf("failed to get rbac evaluator for http server: %w", err)
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, logger)
	server.SetupRouter(&http.RouterConfig{
		Config:             c.config,
		MeterProvider:      metricsProvider,
		AuthHandler:        authHandler,
		PrincipalHandler:   principalHandler,
		RoleHandler:        roleHandler,
		PolicyHandler:      policyHandler,
		DecisionLogHandler: decisionLogHandler,
		AuthUseCase:        authUC,
		RbacEvaluator:      rbacEvaluator,
	})

	return server, nil
}

// initMetricsServer creates the metrics server.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}

	return http.NewMetricsServer(
		c.config.ServerHost,
		c.config.MetricsPort,
		c.Logger(),
		provider,
	), nil
}
