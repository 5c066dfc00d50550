// Package testenv provides ephemeral test infrastructure using testcontainers.
package testenv

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gti/pagekit/e2e/helpers"
	"github.com/gti/pagekit/internal/poll"
	"go.uber.org/zap"
)

// readyTimeout bounds how long a freshly started server may take to answer
// its health check.
const readyTimeout = 30 * time.Second

// Service represents a running instance of the sandbox server.
type Service struct {
	// URL is the base URL of the running service.
	URL string

	// Port is the port the service is listening on.
	Port int

	// Process is the underlying OS process.
	Process *os.Process

	// cmd is the exec.Cmd (kept for cleanup).
	cmd *exec.Cmd

	log *zap.Logger
}

// ServiceConfig holds configuration for starting the service.
type ServiceConfig struct {
	// DatabaseURL is the PostgreSQL connection string.
	DatabaseURL string

	// APIKey is the API key for protected endpoints.
	APIKey string

	// Port is the port to listen on (0 for random available port).
	Port int

	// SeedUsers creates the demo login on startup.
	SeedUsers bool

	// BinaryPath is the path to the compiled server binary.
	// If empty, the service will be built automatically.
	BinaryPath string

	// WorkingDir is the working directory for the service.
	// Defaults to project root.
	WorkingDir string

	// Output receives the server's stdout and stderr. Defaults to os.Stderr.
	Output io.Writer

	// Logger receives lifecycle events. Nil discards them.
	Logger *zap.Logger
}

// DefaultServiceConfig returns default service configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		APIKey:    "test-api-key",
		Port:      0, // Random port
		SeedUsers: true,
	}
}

// StartService builds the server if needed and starts it as a subprocess.
//
// It waits for GET /api/health to answer 200 before returning.
// Always call cleanup when done:
//
//	svc, cleanup, err := StartService(ctx, cfg)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer cleanup()
func StartService(ctx context.Context, cfg ServiceConfig) (*Service, func(), error) {
	workDir, err := resolveWorkDir(cfg.WorkingDir)
	if err != nil {
		return nil, nil, err
	}

	binaryPath := cfg.BinaryPath
	if binaryPath == "" {
		binaryPath, err = buildService(ctx, workDir, false)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to build service: %w", err)
		}
	}

	svc, err := startProcess(ctx, cfg, workDir, binaryPath)
	if err != nil {
		return nil, nil, err
	}

	return svc, func() { _ = svc.Stop() }, nil
}

// startProcess launches binaryPath with the app's environment and waits
// for it to become healthy. extraEnv entries are appended last.
func startProcess(ctx context.Context, cfg ServiceConfig, workDir, binaryPath string, extraEnv ...string) (*Service, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("service")

	port := cfg.Port
	if port == 0 {
		var err error
		port, err = findAvailablePort()
		if err != nil {
			return nil, fmt.Errorf("failed to find available port: %w", err)
		}
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	env := append(os.Environ(), serviceEnv(cfg, port)...)
	env = append(env, extraEnv...)

	cmd := exec.CommandContext(ctx, binaryPath)
	cmd.Dir = workDir
	cmd.Env = env
	cmd.Stdout = out
	cmd.Stderr = out

	// Set process group for clean termination
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start service: %w", err)
	}

	svc := &Service{
		URL:     fmt.Sprintf("http://localhost:%d", port),
		Port:    port,
		Process: cmd.Process,
		cmd:     cmd,
		log:     log,
	}

	if err := waitForService(ctx, svc.URL, readyTimeout); err != nil {
		_ = svc.Stop()
		return nil, fmt.Errorf("service failed to become ready: %w", err)
	}

	log.Info("service ready", zap.String("url", svc.URL), zap.Int("pid", cmd.Process.Pid))
	return svc, nil
}

// serviceEnv is the environment the server reads through internal/config.
func serviceEnv(cfg ServiceConfig, port int) []string {
	return []string{
		"DATABASE_URL=" + cfg.DatabaseURL,
		"API_KEY=" + cfg.APIKey,
		"PORT=" + strconv.Itoa(port),
		"SEED_USERS=" + strconv.FormatBool(cfg.SeedUsers),
	}
}

// Stop gracefully stops the service.
func (s *Service) Stop() error {
	return s.stop(5 * time.Second)
}

// stop sends SIGTERM and waits up to grace before killing the process.
// It reports whether the process exited on its own.
func (s *Service) stop(grace time.Duration) error {
	if s.Process == nil {
		return nil
	}

	// Send SIGTERM for graceful shutdown
	if err := s.Process.Signal(syscall.SIGTERM); err != nil {
		// If SIGTERM fails, try SIGKILL
		_ = s.Process.Kill()
		return fmt.Errorf("failed to send SIGTERM: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- s.cmd.Wait()
	}()

	select {
	case <-done:
		if s.log != nil {
			s.log.Info("service stopped", zap.Int("pid", s.Process.Pid))
		}
		return nil
	case <-time.After(grace):
		// Force kill if graceful shutdown takes too long
		_ = s.Process.Kill()
		return fmt.Errorf("service did not stop within %v", grace)
	}
}

// HealthCheck verifies the service and its database are responding.
func (s *Service) HealthCheck(ctx context.Context) error {
	_, err := helpers.NewAPIClient(s.URL, "").Health(ctx)
	return err
}

// findAvailablePort finds a random available TCP port.
func findAvailablePort() (int, error) {
	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		return 0, err
	}
	defer func() { _ = listener.Close() }()
	return listener.Addr().(*net.TCPAddr).Port, nil
}

func resolveWorkDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	root, err := findProjectRoot()
	if err != nil {
		return "", fmt.Errorf("failed to find project root: %w", err)
	}
	return root, nil
}

// findProjectRoot finds the project root by looking for go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// buildService compiles ./cmd/server into tmp/, with coverage
// instrumentation when cover is set.
func buildService(ctx context.Context, workDir string, cover bool) (string, error) {
	name := "e2e-server"
	args := []string{"build"}
	if cover {
		name = "e2e-server-instrumented"
		args = append(args, "-cover")
	}
	binaryPath := filepath.Join(workDir, "tmp", name)
	args = append(args, "-o", binaryPath, "./cmd/server")

	if err := os.MkdirAll(filepath.Join(workDir, "tmp"), 0755); err != nil {
		return "", fmt.Errorf("failed to create tmp dir: %w", err)
	}

	cmd := exec.CommandContext(ctx, "go", args...)
	cmd.Dir = workDir
	cmd.Env = os.Environ()

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("failed to build: %w\nOutput: %s", err, output)
	}

	return binaryPath, nil
}

// waitForService polls the health endpoint until it answers 200 or times out.
func waitForService(ctx context.Context, url string, timeout time.Duration) error {
	api := helpers.NewAPIClient(url, "")

	return poll.Until(ctx, timeout, poll.DefaultInterval, func(ctx context.Context) (bool, error) {
		_, err := api.Health(ctx)
		return err == nil, nil
	})
}
