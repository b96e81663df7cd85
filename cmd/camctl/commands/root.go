package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fly-io/camctl/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	verbose  bool
	logLevel *slog.LevelVar
)

var rootCmd = &cobra.Command{
	Use:   "camctl",
	Short: "Capture and archive images from a USB or PTP/IP camera",
	Long:  `Drives a camera through libgphoto2: captures images, downloads them, records them in SQLite and archives them in S3.`,

	SilenceErrors: true,
	SilenceUsage:  true,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose && logLevel != nil {
			logLevel.Set(slog.LevelDebug)
		}
	},
}

// Execute runs the CLI. level is raised to Debug by --verbose.
func Execute(level *slog.LevelVar) {
	logLevel = level
	if err := rootCmd.Execute(); err != nil {
		if errors.OpOf(err) != "" {
			fmt.Fprintln(os.Stderr, err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log camera lifecycle events")

	rootCmd.PersistentFlags().String("driver", "gphoto2", "Camera driver (gphoto2 or simulated)")
	rootCmd.PersistentFlags().String("output-dir", ".", "Directory downloaded files are written to")
	rootCmd.PersistentFlags().String("file-type", "normal", "File representation to download (normal, preview, raw, audio, exif, metadata)")
	rootCmd.PersistentFlags().String("sqlite-path", ".artifacts/captures.db", "SQLite database path")
	rootCmd.PersistentFlags().String("fsm-db-path", ".artifacts/fsm.db", "FSM BoltDB path")
	rootCmd.PersistentFlags().Bool("upload-enabled", false, "Archive downloads in S3")
	rootCmd.PersistentFlags().String("s3-bucket", "", "S3 bucket name")
	rootCmd.PersistentFlags().String("s3-region", "us-east-1", "S3 region")
	rootCmd.PersistentFlags().String("s3-endpoint", "", "S3-compatible endpoint URL")
	rootCmd.PersistentFlags().String("s3-prefix", "captures", "Key prefix for archived captures")
	rootCmd.PersistentFlags().Int64("max-file-size", 512*1024*1024, "Max downloaded file size in bytes")
	rootCmd.PersistentFlags().Int64("max-total-size", 20*1024*1024*1024, "Max bytes downloaded per run")
	rootCmd.PersistentFlags().Int("fsm-max-retries", 5, "Max retries per workflow state")

	for _, name := range []string{
		"driver", "output-dir", "file-type", "sqlite-path", "fsm-db-path",
		"upload-enabled", "s3-bucket", "s3-region", "s3-endpoint", "s3-prefix",
		"max-file-size", "max-total-size", "fsm-max-retries",
	} {
		viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}
