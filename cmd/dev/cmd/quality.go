package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

// tinygoPackages are the packages built into the firmware. Files excluded
// from TinyGo builds must not be needed by them.
var tinygoPackages = []string{"./i2c/...", "./transport/...", "./hub/...", "./expander/...", "./scan/..."}

func TestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run unit tests (host and tinygo tagged builds)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := test.Test(); err != nil {
				return fmt.Errorf("failed to run tests: %w", err)
			}
			if err := vetTinyGo(); err != nil {
				return fmt.Errorf("failed to check firmware packages: %w", err)
			}
			return nil
		},
	}
	return cmd
}

func LintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Run linting",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := test.Lint(); err != nil {
				return fmt.Errorf("failed to run linting: %w", err)
			}
			return nil
		},
	}
	return cmd
}

func IntegrationTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "integration-test",
		Short: "Run integration tests against a connected MCP2221 + PCA9546A hub",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := test.Integ(); err != nil {
				return fmt.Errorf("failed to run integration testing: %w", err)
			}
			return nil
		},
	}
	return cmd
}

// vetTinyGo type-checks the firmware packages with the tinygo build tag so the
// host-only files (periph bus, serial and readline transports) stay optional.
func vetTinyGo() error {
	args := append([]string{"vet", "-tags", "tinygo"}, tinygoPackages...)
	slog.Info("Running go", "args", args)
	vet := exec.Command("go", args...)
	vet.Stdout = os.Stdout
	vet.Stderr = os.Stderr
	return vet.Run()
}
