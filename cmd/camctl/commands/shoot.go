package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/fly-io/camctl/pkg/db"
	"github.com/fly-io/camctl/pkg/errors"
	appfsm "github.com/fly-io/camctl/pkg/fsm"
	"github.com/fly-io/camctl/pkg/security"
	"github.com/fly-io/camctl/pkg/storage"
	"github.com/spf13/cobra"
	"github.com/superfly/fsm"
)

var (
	shootCount int
	shootFile  string
)

var shootCmd = &cobra.Command{
	Use:   "shoot",
	Short: "Capture, download, record and archive images through the durable workflow",
	Long: `Runs the capture workflow (capture -> download -> upload -> complete)
once per shot. Every step is recorded in the capture database; camera
errors fail the shot immediately, storage errors are retried.

  --count <n>          Take n shots in a row
  --file <folder/name> Fetch a file already on the camera instead of shooting`,
	Args: cobra.NoArgs,
	RunE: runShoot,
}

func init() {
	rootCmd.AddCommand(shootCmd)
	shootCmd.Flags().IntVar(&shootCount, "count", 1, "Number of shots")
	shootCmd.Flags().StringVar(&shootFile, "file", "", "Existing camera file to fetch (folder/name)")
}

func runShoot(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if shootCount < 1 {
		return fmt.Errorf("--count must be at least 1")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Ensure all necessary directories exist
	if err := ensureDirectories(cfg.SQLitePath, cfg.FSMDBPath, cfg.OutputDir); err != nil {
		return err
	}

	repo, err := db.NewRepository(cfg.SQLitePath)
	if err != nil {
		return errors.Wrap(err, "db init failed")
	}
	defer repo.Close()

	var archiver appfsm.Archiver
	if cfg.UploadEnabled {
		s3Client, err := storage.NewClient(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Endpoint)
		if err != nil {
			return errors.Wrap(err, "S3 client failed")
		}
		archiver = s3Client
	}

	validator := security.NewValidator(cfg.MaxFileSize, cfg.MaxTotalSize)

	cam, err := openCamera(cfg.Driver)
	if err != nil {
		return err
	}
	defer cam.Close()

	manager, err := fsm.New(fsm.Config{DBPath: cfg.FSMDBPath})
	if err != nil {
		return errors.Wrap(err, "FSM manager failed")
	}
	defer manager.Shutdown(10 * time.Second)

	machine := appfsm.NewMachine(cam.session, cam.Camera, repo, archiver, validator, appfsm.Options{
		OutputDir:  cfg.OutputDir,
		S3Prefix:   cfg.S3Prefix,
		FileType:   cfg.DownloadFileType(),
		MaxRetries: cfg.FSMMaxRetries,
	})
	start, _, err := machine.Register(ctx, manager)
	if err != nil {
		return errors.Wrap(err, "FSM register failed")
	}

	req := appfsm.CaptureRequest{}
	if shootFile != "" {
		p := path.Clean("/" + shootFile)
		req.Folder, req.Name = path.Dir(p), path.Base(p)
		shootCount = 1
	}

	for i := 0; i < shootCount; i++ {
		runID := fmt.Sprintf("shoot-%d-%d", time.Now().UnixNano(), i)
		shot := req
		shot.RunID = runID
		resp := &appfsm.CaptureResponse{}

		version, err := start(ctx, runID, fsm.NewRequest(&shot, resp))
		if err != nil {
			return errors.Wrap(err, "FSM start failed")
		}

		slog.Info("fsm_started", "run_id", runID, "version", version)

		if err := manager.Wait(ctx, version); err != nil {
			if resp.ErrorMessage != "" {
				return errors.Op(appfsm.WorkflowName, fmt.Errorf("%s", resp.ErrorMessage))
			}
			return errors.Wrap(err, "FSM execution failed")
		}

		slog.Info("shoot_completed", "run_id", runID, "status", resp.Status, "local_path", resp.LocalPath, "s3_key", resp.S3Key)
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", resp.Status, resp.LocalPath, resp.S3Key)
	}

	return nil
}
