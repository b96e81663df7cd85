package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fly-io/camctl/pkg/db"
	"github.com/fly-io/camctl/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	cleanupFailed   bool
	cleanupUploaded bool
	cleanupCapture  int64
	cleanupOrphaned bool
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Clean up capture records and local copies",
	Long: `Clean up resources associated with captures:
  --failed         Remove partial files of failed captures
  --uploaded       Remove local copies of captures archived in S3
  --capture <id>   Remove the local copy of one capture
  --orphaned       Mark records whose local file has disappeared as cleaned`,
	Args: cobra.NoArgs,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
	cleanupCmd.Flags().BoolVar(&cleanupFailed, "failed", false, "Clean failed captures")
	cleanupCmd.Flags().BoolVar(&cleanupUploaded, "uploaded", false, "Clean local copies of uploaded captures")
	cleanupCmd.Flags().Int64Var(&cleanupCapture, "capture", 0, "Clean one capture by ID")
	cleanupCmd.Flags().BoolVar(&cleanupOrphaned, "orphaned", false, "Clean records without a local file")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	repo, err := db.NewRepository(cfg.SQLitePath)
	if err != nil {
		return errors.Wrap(err, "db init failed")
	}
	defer repo.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	switch {
	case cleanupFailed:
		return cleanupByStatus(ctx, repo, out, db.StatusFailed)
	case cleanupUploaded:
		return cleanupByStatus(ctx, repo, out, db.StatusUploaded)
	case cleanupCapture != 0:
		c, err := repo.Get(ctx, cleanupCapture)
		if err != nil {
			return errors.Wrap(err, "capture lookup failed")
		}
		if c == nil {
			return fmt.Errorf("capture %d not found", cleanupCapture)
		}
		if err := cleanupCaptureFiles(ctx, repo, c); err != nil {
			return errors.Wrap(err, "cleanup failed")
		}
		fmt.Fprintf(out, "Cleaned: %s\n", c.Name)
		return nil
	case cleanupOrphaned:
		return cleanupOrphanedRecords(ctx, repo, out)
	default:
		return fmt.Errorf("must specify --failed, --uploaded, --capture, or --orphaned")
	}
}

func cleanupByStatus(ctx context.Context, repo *db.Repository, out io.Writer, status string) error {
	captures, err := repo.List(ctx, status)
	if err != nil {
		return errors.Wrap(err, "list failed")
	}

	fmt.Fprintf(out, "Cleaning up %d %s captures...\n", len(captures), status)

	for _, c := range captures {
		if err := cleanupCaptureFiles(ctx, repo, c); err != nil {
			fmt.Fprintf(out, "Failed to clean %s: %v\n", c.Name, err)
		} else {
			fmt.Fprintf(out, "Cleaned: %s\n", c.Name)
		}
	}

	return nil
}

// cleanupCaptureFiles removes the local copy of c and marks it cleaned.
// The file on the camera and the archived object are left alone.
func cleanupCaptureFiles(ctx context.Context, repo *db.Repository, c *db.Capture) error {
	if c.LocalPath != "" {
		if err := os.Remove(c.LocalPath); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, "failed to remove local copy")
		}
	}

	c.Status = db.StatusCleaned
	c.LocalPath = ""
	if err := repo.Update(ctx, c); err != nil {
		return errors.Wrap(err, "failed to update database")
	}

	return nil
}

func cleanupOrphanedRecords(ctx context.Context, repo *db.Repository, out io.Writer) error {
	fmt.Fprintln(out, "Scanning for orphaned records...")

	captures, err := repo.List(ctx, "")
	if err != nil {
		return errors.Wrap(err, "list failed")
	}

	orphanCount := 0
	for _, c := range captures {
		if c.Status == db.StatusCleaned || c.LocalPath == "" {
			continue
		}
		if _, err := os.Stat(c.LocalPath); !os.IsNotExist(err) {
			continue
		}
		if err := repo.UpdateStatus(ctx, c.ID, db.StatusCleaned, "local file missing"); err != nil {
			fmt.Fprintf(out, "Failed to mark %s: %v\n", c.Name, err)
			continue
		}
		fmt.Fprintf(out, "Marked orphaned record: %s\n", c.Name)
		orphanCount++
	}

	fmt.Fprintf(out, "Marked %d orphaned records\n", orphanCount)
	return nil
}
