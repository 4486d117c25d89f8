package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/urraka/volumeicon/internal/config"
	"github.com/urraka/volumeicon/internal/icons"
	"github.com/urraka/volumeicon/internal/ipc"
	"github.com/urraka/volumeicon/internal/logging"
	"github.com/urraka/volumeicon/internal/status"
)

var (
	version      = "0.1.0"
	cfgFile      string
	statusFormat string
	iconsOut     string
)

var log = logging.L("main")

var rootCmd = &cobra.Command{
	Use:           "volumeicon",
	Short:         "Volume level tray icon",
	Long:          `volumeicon shows the default playback device's volume as a number in the notification area.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCmd.RunE(cmd, args)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Show the tray icon until closed",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		closer, err := logging.Setup(cfg.LogFormat, cfg.LogLevel, cfg.LogFile, cfg.LogMaxSizeMB, cfg.LogMaxBackups)
		if err != nil {
			return err
		}
		defer closer.Close()

		log.Info("starting volumeicon", "version", version)
		return runTray(cmd.Context(), cfg)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query the running instance",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), ipc.RequestTimeout)
		defer cancel()

		var snap status.Snapshot
		if err := ipc.Request(ctx, ipc.Dialer(cfg.PipeName), ipc.TypeStatus, nil, &snap); err != nil {
			if errors.Is(err, ipc.ErrNotRunning) {
				return fmt.Errorf("volumeicon is not running")
			}
			return err
		}
		return writeStatus(cmd.OutOrStdout(), snap, statusFormat)
	},
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that an instance is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), ipc.RequestTimeout)
		defer cancel()

		pong, err := ipc.Ping(ctx, ipc.Dialer(cfg.PipeName))
		if err != nil {
			if errors.Is(err, ipc.ErrNotRunning) {
				return fmt.Errorf("volumeicon is not running")
			}
			return err
		}
		writePong(cmd.OutOrStdout(), pong)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		return enc.Close()
	},
}

var iconsCmd = &cobra.Command{
	Use:   "icons",
	Short: "Write the rendered icon set as PNG files",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		n, err := icons.WritePNGs(iconsOut, cfg.ForegroundColor())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d icons to %s\n", n, iconsOut)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "volumeicon v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is volumeicon.yaml in the user config dir)")

	statusCmd.Flags().StringVarP(&statusFormat, "format", "f", "text", "output format: text, json or yaml")
	iconsCmd.Flags().StringVarP(&iconsOut, "out", "o", "icons", "output directory")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(iconsCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads and validates the config, printing warnings to w.
func loadConfig(w io.Writer) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	res := cfg.ValidateTiered()
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "config warning: %v\n", warn)
	}
	if res.HasFatals() {
		return nil, fmt.Errorf("invalid config: %w", errors.Join(res.Fatals...))
	}
	return cfg, nil
}
