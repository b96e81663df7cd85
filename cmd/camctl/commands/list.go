package commands

import (
	"context"
	"fmt"

	"github.com/fly-io/camctl/pkg/db"
	"github.com/fly-io/camctl/pkg/errors"
	"github.com/spf13/cobra"
)

var listStatus string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded captures and their status",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listStatus, "status", "", "Only show captures with this status")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Ensure database directory exists
	if err := ensureDirectories(cfg.SQLitePath, "", ""); err != nil {
		return err
	}

	repo, err := db.NewRepository(cfg.SQLitePath)
	if err != nil {
		return errors.Wrap(err, "db init failed")
	}
	defer repo.Close()

	captures, err := repo.List(context.Background(), listStatus)
	if err != nil {
		return errors.Wrap(err, "list failed")
	}

	out := cmd.OutOrStdout()
	if len(captures) == 0 {
		fmt.Fprintln(out, "No captures found")
		return nil
	}

	fmt.Fprintf(out, "%-6s %-24s %-12s %-40s %-20s\n", "ID", "NAME", "STATUS", "LOCAL PATH", "S3 KEY")
	fmt.Fprintln(out, "----------------------------------------------------------------------------------------------------------")

	for _, c := range captures {
		fmt.Fprintf(out, "%-6d %-24s %-12s %-40s %-20s\n",
			c.ID, c.Name, c.Status, orDash(c.LocalPath), orDash(c.S3Key))
	}

	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
