// Package testenv provides ephemeral test infrastructure using testcontainers.
package testenv

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// InstrumentedService is a server built with coverage instrumentation.
//
// When the service shuts down gracefully, coverage data is written to
// CoverageDir, so browser tests can report which server code they reached.
type InstrumentedService struct {
	*Service

	// CoverageDir is the directory where coverage data is written on shutdown.
	CoverageDir string

	// BinaryPath is the path to the instrumented binary.
	BinaryPath string
}

// InstrumentedConfig holds configuration for the instrumented service.
type InstrumentedConfig struct {
	ServiceConfig

	// CoverageDir is the directory for coverage data output.
	// Defaults to coverage/e2e-service in project root.
	CoverageDir string

	// RebuildBinary forces rebuilding even if BinaryPath is set.
	RebuildBinary bool
}

// DefaultInstrumentedConfig returns default instrumented service configuration.
func DefaultInstrumentedConfig() InstrumentedConfig {
	return InstrumentedConfig{
		ServiceConfig: DefaultServiceConfig(),
		RebuildBinary: false,
	}
}

// StartInstrumentedService starts a coverage-instrumented service subprocess.
//
//	svc, cleanup, err := StartInstrumentedService(ctx, cfg)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer cleanup()
//
// After tests complete, convert coverage data with:
//
//	go tool covdata textfmt -i=coverage/e2e-service -o=coverage/e2e-service.out
func StartInstrumentedService(ctx context.Context, cfg InstrumentedConfig) (*InstrumentedService, func(), error) {
	workDir, err := resolveWorkDir(cfg.WorkingDir)
	if err != nil {
		return nil, nil, err
	}

	coverageDir := cfg.CoverageDir
	if coverageDir == "" {
		coverageDir = filepath.Join(workDir, "coverage", "e2e-service")
	}

	// Ensure coverage directory exists and is empty
	if err := os.RemoveAll(coverageDir); err != nil {
		return nil, nil, fmt.Errorf("failed to clean coverage dir: %w", err)
	}
	if err := os.MkdirAll(coverageDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create coverage dir: %w", err)
	}

	binaryPath := cfg.BinaryPath
	if binaryPath == "" || cfg.RebuildBinary {
		binaryPath, err = buildService(ctx, workDir, true)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to build instrumented service: %w", err)
		}
	}

	svc, err := startProcess(ctx, cfg.ServiceConfig, workDir, binaryPath, "GOCOVERDIR="+coverageDir)
	if err != nil {
		return nil, nil, err
	}

	isvc := &InstrumentedService{
		Service:     svc,
		CoverageDir: coverageDir,
		BinaryPath:  binaryPath,
	}

	return isvc, func() { _ = isvc.Stop() }, nil
}

// Stop gracefully stops the instrumented service, writing coverage data.
//
// SIGKILL skips the coverage flush, so the grace period is longer than
// Service.Stop.
func (s *InstrumentedService) Stop() error {
	if err := s.stop(10 * time.Second); err != nil {
		return fmt.Errorf("%w, coverage may be incomplete", err)
	}
	return nil
}

// CoverageFiles returns the list of coverage data files in CoverageDir.
func (s *InstrumentedService) CoverageFiles() ([]string, error) {
	entries, err := os.ReadDir(s.CoverageDir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, filepath.Join(s.CoverageDir, entry.Name()))
		}
	}
	return files, nil
}

// HasCoverageData returns true if coverage data files exist.
func (s *InstrumentedService) HasCoverageData() bool {
	files, err := s.CoverageFiles()
	return err == nil && len(files) > 0
}

// ConvertCoverageData converts binary coverage data to text format.
//
// This runs: go tool covdata textfmt -i=<coverageDir> -o=<outputFile>
//
// Call this after the instrumented service has stopped:
//
//	err := svc.ConvertCoverageData("coverage/e2e-service.out")
func (s *InstrumentedService) ConvertCoverageData(outputFile string) error {
	if !s.HasCoverageData() {
		return fmt.Errorf("no coverage data found in %s", s.CoverageDir)
	}

	cmd := exec.Command("go", "tool", "covdata", "textfmt",
		"-i="+s.CoverageDir,
		"-o="+outputFile,
	)
	cmd.Env = os.Environ()

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to convert coverage data: %w\nOutput: %s", err, output)
	}

	return nil
}
