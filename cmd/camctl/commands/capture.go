package commands

import (
	"fmt"
	"log/slog"

	"github.com/fly-io/camctl/pkg/errors"
	"github.com/fly-io/camctl/pkg/gphoto"
	"github.com/fly-io/camctl/pkg/security"
	"github.com/spf13/cobra"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture one image and download it into the output directory",
	Long: `Autodetects a camera, captures an image and downloads it to
<output-dir>/<name on camera>. An existing file is never overwritten.`,
	Args: cobra.NoArgs,
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)
}

func runCapture(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cam, err := openCamera(cfg.Driver)
	if err != nil {
		return err
	}
	defer cam.Close()

	file, err := cam.CaptureImage(cam.session)
	if err != nil {
		return errors.Op("capture", err)
	}

	validator := security.NewValidator(cfg.MaxFileSize, cfg.MaxTotalSize)
	dest, err := validator.ResolveDestination(cfg.OutputDir, file.Basename())
	if err != nil {
		return errors.Op("create file", err)
	}
	dst, err := gphoto.CreateFileMedia(cam.session.Driver(), dest)
	if err != nil {
		return errors.Op("create file", err)
	}
	defer dst.Close()

	if err := cam.Download(cam.session, file, dst, gphoto.WithFileType(cfg.DownloadFileType())); err != nil {
		return errors.Op("download", err)
	}

	slog.Info("capture_saved", "camera_path", file.Path(), "local_path", dest)
	fmt.Fprintln(cmd.OutOrStdout(), dest)
	return nil
}
