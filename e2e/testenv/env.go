// Package testenv provides ephemeral test infrastructure using testcontainers.
//
// This package manages the complete E2E test environment including:
//   - Ephemeral PostgreSQL container via testcontainers-go
//   - The sandbox login server as a subprocess
//   - A shared Chromium browser for page object tests
//   - Test isolation and cleanup utilities
//
// Example usage:
//
//	func TestMain(m *testing.M) {
//	    env, err := testenv.Setup(context.Background(), testenv.DefaultConfig())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    code := m.Run()
//	    env.Teardown()
//	    os.Exit(code)
//	}
package testenv

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gti/pagekit/e2e/helpers"
	"github.com/gti/pagekit/internal/database"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// TestEnv holds all resources for E2E testing.
//
// This struct is safe for use across parallel tests when using
// proper isolation (separate data per test, cleanup between tests).
type TestEnv struct {
	// Postgres is the ephemeral PostgreSQL container.
	Postgres *PostgresContainer

	// Service is the running application service.
	Service *Service

	// Instrumented is the coverage build, set only when
	// EnvConfig.CoverageDir is set. Service points at the same process.
	Instrumented *InstrumentedService

	// DB provides database helper for tests.
	DB *helpers.DBHelper

	// API provides HTTP client for tests (pre-configured with API key).
	API *helpers.APIClient

	// Pool provides direct database access.
	Pool *pgxpool.Pool

	// Config holds the environment configuration.
	Config EnvConfig

	// mu protects browser lazy initialization.
	mu sync.Mutex

	// browser is lazily initialized.
	browser *helpers.Browser

	// cleanupFuncs holds cleanup functions in reverse order.
	cleanupFuncs []func()
}

// EnvConfig holds configuration for the test environment.
type EnvConfig struct {
	// Postgres holds PostgreSQL container configuration.
	Postgres PostgresConfig

	// Service holds service configuration.
	Service ServiceConfig

	// Browser holds browser and page object settings. BaseURL is replaced
	// with the service URL once the service is up.
	Browser helpers.Config

	// SkipService skips starting the service (for DB-only tests).
	SkipService bool

	// CoverageDir runs a coverage-instrumented server build writing to
	// this directory. Empty runs the plain build.
	CoverageDir string

	// ExternalDatabaseURL is an optional external database URL to use instead of testcontainers.
	// If set, testcontainers will be skipped. Useful for CI environments without Docker.
	ExternalDatabaseURL string

	// Logger receives environment lifecycle logs. Nil discards them.
	Logger *zap.Logger
}

// DefaultConfig returns the default test environment configuration.
//
// Environment variables:
//   - TEST_DATABASE_URL: use an existing database instead of a container
//   - E2E_COVERAGE_DIR: run the coverage-instrumented server
//   - E2E_*: browser settings, see helpers.LoadConfig
func DefaultConfig() EnvConfig {
	return EnvConfig{
		Postgres:            DefaultPostgresConfig(),
		Service:             DefaultServiceConfig(),
		Browser:             helpers.LoadConfig(),
		SkipService:         false,
		CoverageDir:         os.Getenv("E2E_COVERAGE_DIR"),
		ExternalDatabaseURL: os.Getenv("TEST_DATABASE_URL"),
	}
}

// Setup initializes the complete E2E test environment.
//
// This function:
//  1. Starts an ephemeral PostgreSQL container (or uses external database if provided)
//  2. Runs database migrations
//  3. Starts the application service connected to the database
//  4. Initializes test helpers (DB, API)
//
// The browser is started on first use of Browser.
//
// Always call Teardown() when done:
//
//	env, err := testenv.Setup(ctx, testenv.DefaultConfig())
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer env.Teardown()
func Setup(ctx context.Context, cfg EnvConfig) (*TestEnv, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Postgres.Logger == nil {
		cfg.Postgres.Logger = cfg.Logger
	}
	if cfg.Service.Logger == nil {
		cfg.Service.Logger = cfg.Logger
	}
	if cfg.Browser.Logger == nil {
		cfg.Browser.Logger = cfg.Logger
	}

	env := &TestEnv{
		Config:       cfg,
		cleanupFuncs: make([]func(), 0),
	}

	var pool *pgxpool.Pool
	var dbURL string

	// Use external database if provided, otherwise start testcontainer
	if cfg.ExternalDatabaseURL != "" {
		db, err := database.New(cfg.ExternalDatabaseURL, cfg.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to external database: %w", err)
		}

		if err := db.RunMigrations(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations on external database: %w", err)
		}

		pool = db.Pool
		dbURL = cfg.ExternalDatabaseURL
		env.addCleanup(db.Close)
	} else {
		pg, pgCleanup, err := StartPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("failed to start postgres: %w", err)
		}
		env.addCleanup(pgCleanup)
		env.Postgres = pg
		pool = pg.Pool
		dbURL = pg.ConnectionString
	}

	env.Pool = pool
	env.DB = helpers.NewDBHelper(pool)

	if !cfg.SkipService {
		svcCfg := cfg.Service
		svcCfg.DatabaseURL = dbURL

		if err := env.startService(ctx, svcCfg); err != nil {
			env.Teardown()
			return nil, err
		}

		env.API = helpers.NewAPIClient(env.Service.URL, svcCfg.APIKey)
		env.Config.Browser.BaseURL = env.Service.URL
	}

	return env, nil
}

func (env *TestEnv) startService(ctx context.Context, svcCfg ServiceConfig) error {
	if env.Config.CoverageDir != "" {
		icfg := DefaultInstrumentedConfig()
		icfg.ServiceConfig = svcCfg
		icfg.CoverageDir = env.Config.CoverageDir

		isvc, cleanup, err := StartInstrumentedService(ctx, icfg)
		if err != nil {
			return fmt.Errorf("failed to start instrumented service: %w", err)
		}
		env.addCleanup(cleanup)
		env.Instrumented = isvc
		env.Service = isvc.Service
		return nil
	}

	svc, cleanup, err := StartService(ctx, svcCfg)
	if err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	env.addCleanup(cleanup)
	env.Service = svc
	return nil
}

// Teardown releases all test resources in reverse order.
//
// This function:
//  1. Closes the browser (if started)
//  2. Stops the application service
//  3. Closes database connections
//  4. Terminates the PostgreSQL container
func (env *TestEnv) Teardown() {
	env.mu.Lock()
	if env.browser != nil {
		_ = env.browser.Close()
		env.browser = nil
	}
	env.mu.Unlock()

	for i := len(env.cleanupFuncs) - 1; i >= 0; i-- {
		env.cleanupFuncs[i]()
	}
	env.cleanupFuncs = nil
}

// CleanupTestData removes all data from tables.
//
// Call this between tests for isolation:
//
//	func TestSomething(t *testing.T) {
//	    env.CleanupTestData(ctx)
//	    // ... test with clean state ...
//	}
func (env *TestEnv) CleanupTestData(ctx context.Context) error {
	return truncate(ctx, env.Pool)
}

// ResetData truncates all tables and recreates the seed user, restoring
// the state the server starts in.
func (env *TestEnv) ResetData(ctx context.Context) error {
	if err := env.CleanupTestData(ctx); err != nil {
		return err
	}
	if err := database.FromPool(env.Pool, env.Config.Logger).SeedData(ctx); err != nil {
		return fmt.Errorf("failed to reseed: %w", err)
	}
	return nil
}

// Browser returns the shared browser, launching it on first use.
//
// The browser is closed during Teardown. Each test should open its own
// Session for cookie isolation.
func (env *TestEnv) Browser(ctx context.Context) (*helpers.Browser, error) {
	env.mu.Lock()
	defer env.mu.Unlock()

	if env.browser != nil {
		return env.browser, nil
	}

	browser, err := helpers.NewBrowser(ctx, env.Config.Browser)
	if err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	env.browser = browser
	return browser, nil
}

// BrowserConfig returns the browser settings with BaseURL pointing at the
// running service.
func (env *TestEnv) BrowserConfig() helpers.Config {
	return env.Config.Browser
}

// ServiceURL returns the base URL of the running service.
func (env *TestEnv) ServiceURL() string {
	if env.Service == nil {
		return ""
	}
	return env.Service.URL
}

// SeedUser creates a login through the protected users API.
//
//	err := env.SeedUser(ctx, "alice@example.com", "password123")
func (env *TestEnv) SeedUser(ctx context.Context, email, password string) error {
	return seedUser(ctx, env.API, email, password)
}

func seedUser(ctx context.Context, api *helpers.APIClient, email, password string) error {
	if api == nil {
		return fmt.Errorf("service not started")
	}
	_, err := api.CreateUser(ctx, email, password)
	return err
}

// NewIsolatedEnv creates a new test environment for parallel test isolation.
//
// Each isolated environment shares the same PostgreSQL container but gets
// its own API client. Tests should use unique emails for their data.
//
// Example:
//
//	func TestParallel(t *testing.T) {
//	    t.Parallel()
//	    iso := env.NewIsolatedEnv(t.Name())
//	    defer iso.Cleanup(ctx)
//	    email := iso.UniqueEmail("alice")
//	}
func (env *TestEnv) NewIsolatedEnv(testName string) *IsolatedEnv {
	api := helpers.NewAPIClient(env.ServiceURL(), env.Config.Service.APIKey)

	return &IsolatedEnv{
		parent:   env,
		TestName: testName,
		prefix:   "e2e-" + strings.ToLower(uuid.NewString()[:8]),
		DB:       env.DB,
		API:      api,
		Pool:     env.Pool,
	}
}

// IsolatedEnv provides test isolation for parallel tests.
type IsolatedEnv struct {
	// parent is the shared test environment.
	parent *TestEnv

	// TestName identifies this test in logs.
	TestName string

	// prefix marks every email this env hands out.
	prefix string

	// DB provides database access.
	DB *helpers.DBHelper

	// API provides HTTP client (separate instance per test).
	API *helpers.APIClient

	// Pool provides direct database access.
	Pool *pgxpool.Pool
}

// UniqueEmail returns an address owned by this test.
//
//	email := iso.UniqueEmail("alice")
//	// Returns something like "e2e-1a2b3c4d.alice@example.com"
func (iso *IsolatedEnv) UniqueEmail(local string) string {
	return fmt.Sprintf("%s.%s@example.com", iso.prefix, local)
}

// SeedUser creates a login through the API.
func (iso *IsolatedEnv) SeedUser(ctx context.Context, email, password string) error {
	return seedUser(ctx, iso.API, email, password)
}

// Browser returns the shared browser of the parent environment.
func (iso *IsolatedEnv) Browser(ctx context.Context) (*helpers.Browser, error) {
	return iso.parent.Browser(ctx)
}

// Cleanup removes all users created by this test. Their sessions cascade.
func (iso *IsolatedEnv) Cleanup(ctx context.Context) error {
	_, err := iso.DB.Exec(ctx, "DELETE FROM users WHERE email LIKE $1", iso.prefix+".%")
	return err
}

// addCleanup adds a cleanup function to be called during Teardown.
func (env *TestEnv) addCleanup(fn func()) {
	env.cleanupFuncs = append(env.cleanupFuncs, fn)
}
