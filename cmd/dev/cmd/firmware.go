package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

func FirmwareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "firmware",
		Short: "Build (and optionally flash) the RP2040 console firmware with TinyGo",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := cmd.Flags().GetString("target")
			if err != nil {
				return fmt.Errorf("could not get target flag: %w", err)
			}
			flash, err := cmd.Flags().GetBool("flash")
			if err != nil {
				return fmt.Errorf("could not get flash flag: %w", err)
			}
			if _, err := exec.LookPath("tinygo"); err != nil {
				slog.Error("tinygo not found in PATH, see https://tinygo.org/getting-started/install/")
				return fmt.Errorf("tinygo not installed: %w", err)
			}

			tinygoArgs := []string{"build", "-target", target, "-o", "dist/i2chub-" + target + ".uf2", "./cmd/i2chub-pico"}
			if flash {
				tinygoArgs = []string{"flash", "-target", target, "./cmd/i2chub-pico"}
			}
			slog.Info("Running tinygo", "args", tinygoArgs)
			tinygo := exec.Command("tinygo", tinygoArgs...)
			tinygo.Stdout = os.Stdout
			tinygo.Stderr = os.Stderr
			if err := tinygo.Run(); err != nil {
				return fmt.Errorf("tinygo %s failed: %w", tinygoArgs[0], err)
			}
			return nil
		},
	}
	cmd.Flags().String("target", "pico", "tinygo target board")
	cmd.Flags().Bool("flash", false, "flash the board instead of writing a uf2 file")
	return cmd
}
