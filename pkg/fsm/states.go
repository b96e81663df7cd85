package fsm

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fly-io/camctl/pkg/db"
	"github.com/fly-io/camctl/pkg/errors"
	"github.com/fly-io/camctl/pkg/gphoto"
	"github.com/fly-io/camctl/pkg/security"
	"github.com/fly-io/camctl/pkg/storage"
	"github.com/superfly/fsm"
)

// Archiver stores downloaded captures. *storage.Client implements it.
type Archiver interface {
	Upload(ctx context.Context, s3Key, localPath string) (*storage.UploadResult, error)
	Exists(ctx context.Context, s3Key string) (bool, error)
}

// Options tune the workflow.
type Options struct {
	OutputDir  string
	S3Prefix   string
	FileType   gphoto.FileType
	MaxRetries int
}

// Machine holds dependencies for FSM transitions. It drives one camera and
// must run one workflow at a time.
type Machine struct {
	session   *gphoto.Session
	camera    *gphoto.Camera
	repo      *db.Repository
	archiver  Archiver
	validator *security.Validator
	opts      Options
}

// NewMachine creates a new FSM machine with dependencies. A nil archiver
// disables the upload step.
func NewMachine(
	session *gphoto.Session,
	camera *gphoto.Camera,
	repo *db.Repository,
	archiver Archiver,
	validator *security.Validator,
	opts Options,
) *Machine {
	return &Machine{
		session:   session,
		camera:    camera,
		repo:      repo,
		archiver:  archiver,
		validator: validator,
		opts:      opts,
	}
}

func (m *Machine) checkRetries(ctx context.Context, state, runID string) error {
	if retryCount := fsm.RetryFromContext(ctx); retryCount >= uint64(m.opts.MaxRetries) {
		slog.Error("max_retries_exceeded", "state", state, "run_id", runID, "max_retries", m.opts.MaxRetries)
		return fsm.Abort(fmt.Errorf("max retries (%d) exceeded", m.opts.MaxRetries))
	}
	return nil
}

// fail records err on the capture and aborts the workflow.
func (m *Machine) fail(ctx context.Context, resp *CaptureResponse, err error) error {
	resp.Status = db.StatusFailed
	resp.ErrorMessage = err.Error()
	if resp.CaptureID != 0 {
		if uerr := m.repo.UpdateStatus(ctx, resp.CaptureID, db.StatusFailed, err.Error()); uerr != nil {
			slog.Error("status_update_failed", "capture_id", resp.CaptureID, "status", db.StatusFailed, "error", uerr)
		}
	}
	return fsm.Abort(err)
}

// handleCapture captures an image (or adopts the requested camera file)
// and creates its capture record.
func (m *Machine) handleCapture(ctx context.Context, req *fsm.Request[CaptureRequest, CaptureResponse]) (*fsm.Response[CaptureResponse], error) {
	slog.Info("fsm_state_capture", "run_id", req.Msg.RunID)

	if err := m.checkRetries(ctx, StateCapture, req.Msg.RunID); err != nil {
		return nil, err
	}

	resp := req.W.Msg
	if resp == nil {
		resp = &CaptureResponse{}
	}

	// A retried transition must not press the shutter twice.
	if resp.Folder == "" {
		if req.Msg.Name != "" {
			resp.Folder, resp.Name = req.Msg.Folder, req.Msg.Name
			slog.Info("capture_skipped", "run_id", req.Msg.RunID, "reason", "existing_file", "name", resp.Name)
		} else {
			file, err := m.camera.CaptureImage(m.session)
			if err != nil {
				slog.Error("capture_failed", "run_id", req.Msg.RunID, "error", err)
				return nil, m.fail(ctx, resp, errors.Op("capture", err))
			}
			resp.Folder, resp.Name = file.Directory(), file.Basename()
			slog.Info("capture_complete", "run_id", req.Msg.RunID, "path", file.Path())
		}
	}

	if err := m.validator.ValidateBasename(resp.Name); err != nil {
		return nil, m.fail(ctx, resp, err)
	}

	c, err := m.repo.GetByPath(ctx, resp.Folder, resp.Name)
	if err != nil {
		slog.Error("database_check_failed", "run_id", req.Msg.RunID, "error", err)
		return nil, errors.Wrap(err, "database error")
	}
	if c != nil {
		slog.Info("capture_found_continue_processing", "capture_id", c.ID, "status", c.Status)
		resp.CaptureID = c.ID
		resp.Status = c.Status
		return fsm.NewResponse(resp), nil
	}

	c = &db.Capture{
		Folder:   resp.Folder,
		Name:     resp.Name,
		Status:   db.StatusPending,
		FileType: m.opts.FileType.String(),
	}
	if err := m.repo.Create(ctx, c); err != nil {
		slog.Error("create_capture_failed", "name", resp.Name, "error", err)
		return nil, errors.Wrap(err, "failed to create capture record")
	}
	resp.CaptureID = c.ID
	resp.Status = c.Status
	slog.Info("capture_recorded", "capture_id", c.ID, "name", c.Name)

	return fsm.NewResponse(resp), nil
}

// handleDownload copies the camera file into the output directory.
func (m *Machine) handleDownload(ctx context.Context, req *fsm.Request[CaptureRequest, CaptureResponse]) (*fsm.Response[CaptureResponse], error) {
	slog.Info("fsm_state_download", "run_id", req.Msg.RunID)

	if err := m.checkRetries(ctx, StateDownload, req.Msg.RunID); err != nil {
		return nil, err
	}

	resp := req.W.Msg
	if resp == nil || resp.CaptureID == 0 {
		return nil, fsm.Abort(fmt.Errorf("response not initialized"))
	}

	if resp.Status == db.StatusStored || resp.Status == db.StatusUploaded {
		c, err := m.repo.Get(ctx, resp.CaptureID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load capture")
		}
		if c != nil && c.LocalPath != "" {
			if _, err := os.Stat(c.LocalPath); err == nil {
				slog.Info("download_skipped", "capture_id", c.ID, "local_path", c.LocalPath)
				resp.LocalPath, resp.SHA256, resp.Size, resp.S3Key = c.LocalPath, c.SHA256, c.Size, c.S3Key
				return fsm.NewResponse(resp), nil
			}
		}
	}

	dest, err := m.validator.ResolveDestination(m.opts.OutputDir, resp.Name)
	if err != nil {
		return nil, m.fail(ctx, resp, err)
	}
	if err := os.MkdirAll(m.opts.OutputDir, 0755); err != nil {
		slog.Error("output_dir_creation_failed", "path", m.opts.OutputDir, "error", err)
		return nil, errors.Wrap(err, "failed to create output dir")
	}

	// A download interrupted mid-transfer leaves a partial file behind.
	if resp.Status == db.StatusDownloading {
		if err := os.Remove(dest); err == nil {
			slog.Warn("partial_download_removed", "path", dest)
		}
	}

	if err := m.repo.UpdateStatus(ctx, resp.CaptureID, db.StatusDownloading, ""); err != nil {
		slog.Error("status_update_failed", "capture_id", resp.CaptureID, "status", db.StatusDownloading, "error", err)
		return nil, errors.Wrap(err, "failed to update status")
	}
	resp.Status = db.StatusDownloading

	if err := m.download(resp, dest); err != nil {
		slog.Error("download_failed", "capture_id", resp.CaptureID, "error", err)
		if IsCameraError(err) {
			return nil, m.fail(ctx, resp, err)
		}
		return nil, err
	}

	d, err := storage.DigestFile(dest)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash download")
	}
	if err := m.validator.ValidateFileSize(d.Size); err != nil {
		_ = os.Remove(dest)
		return nil, m.fail(ctx, resp, err)
	}
	if err := m.validator.AddDownloadedSize(d.Size); err != nil {
		_ = os.Remove(dest)
		return nil, m.fail(ctx, resp, err)
	}

	resp.LocalPath, resp.SHA256, resp.Size = dest, d.SHA256, d.Size
	if err := m.store(ctx, resp, db.StatusStored); err != nil {
		return nil, err
	}

	slog.Info("download_complete",
		"capture_id", resp.CaptureID,
		"local_path", dest,
		"size_kb", d.Size/1024,
		"sha256", d.SHA256[:16]+"...",
	)

	return fsm.NewResponse(resp), nil
}

func (m *Machine) download(resp *CaptureResponse, dest string) error {
	file, err := gphoto.NewCameraFile(resp.Folder, resp.Name)
	if err != nil {
		return errors.Op("download", err)
	}
	dst, err := gphoto.CreateFileMedia(m.session.Driver(), dest)
	if err != nil {
		return errors.Op("create file", err)
	}
	err = m.camera.Download(m.session, file, dst, gphoto.WithFileType(m.opts.FileType))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dest)
		return errors.Op("download", err)
	}
	return nil
}

// store writes the response's file fields to the capture record.
func (m *Machine) store(ctx context.Context, resp *CaptureResponse, status string) error {
	c, err := m.repo.Get(ctx, resp.CaptureID)
	if err != nil {
		return errors.Wrap(err, "failed to load capture")
	}
	if c == nil {
		return fsm.Abort(fmt.Errorf("capture %d not found in database", resp.CaptureID))
	}
	c.Status = status
	c.LocalPath = resp.LocalPath
	c.SHA256 = resp.SHA256
	c.Size = resp.Size
	c.S3Key = resp.S3Key
	c.ErrorMessage = ""
	if err := m.repo.Update(ctx, c); err != nil {
		slog.Error("capture_update_failed", "capture_id", c.ID, "error", err)
		return errors.Wrap(err, "failed to update capture")
	}
	resp.Status = status
	return nil
}

// handleUpload archives the downloaded file. It is a no-op without an
// archiver.
func (m *Machine) handleUpload(ctx context.Context, req *fsm.Request[CaptureRequest, CaptureResponse]) (*fsm.Response[CaptureResponse], error) {
	slog.Info("fsm_state_upload", "run_id", req.Msg.RunID)

	if err := m.checkRetries(ctx, StateUpload, req.Msg.RunID); err != nil {
		return nil, err
	}

	resp := req.W.Msg
	if resp == nil || resp.LocalPath == "" {
		return nil, fsm.Abort(fmt.Errorf("response not initialized"))
	}

	if m.archiver == nil {
		slog.Info("upload_skipped", "capture_id", resp.CaptureID, "reason", "disabled")
		return fsm.NewResponse(resp), nil
	}
	if resp.Status == db.StatusUploaded {
		slog.Info("upload_skipped", "capture_id", resp.CaptureID, "reason", "already_uploaded", "s3_key", resp.S3Key)
		return fsm.NewResponse(resp), nil
	}

	key := storage.ObjectKey(m.opts.S3Prefix, resp.Folder, resp.Name)
	if err := m.validator.ValidatePath(key); err != nil {
		return nil, m.fail(ctx, resp, err)
	}

	exists, err := m.archiver.Exists(ctx, key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check archive")
	}
	if exists {
		slog.Info("upload_skipped", "capture_id", resp.CaptureID, "reason", "object_exists", "s3_key", key)
	} else {
		result, err := m.archiver.Upload(ctx, key, resp.LocalPath)
		if err != nil {
			slog.Error("upload_failed", "capture_id", resp.CaptureID, "s3_key", key, "error", err)
			return nil, errors.Wrap(err, "failed to upload capture")
		}
		if result.SHA256 != resp.SHA256 {
			return nil, m.fail(ctx, resp, fmt.Errorf("checksum mismatch: uploaded %s, downloaded %s", result.SHA256, resp.SHA256))
		}
	}

	resp.S3Key = key
	if err := m.store(ctx, resp, db.StatusUploaded); err != nil {
		return nil, err
	}

	slog.Info("upload_complete", "capture_id", resp.CaptureID, "s3_key", key)
	return fsm.NewResponse(resp), nil
}

// handleComplete marks the FSM as complete
func (m *Machine) handleComplete(ctx context.Context, req *fsm.Request[CaptureRequest, CaptureResponse]) (*fsm.Response[CaptureResponse], error) {
	slog.Info("fsm_state_complete", "run_id", req.Msg.RunID)

	resp := req.W.Msg
	if resp == nil || resp.CaptureID == 0 {
		return nil, fsm.Abort(fmt.Errorf("response not initialized"))
	}

	c, err := m.repo.Get(ctx, resp.CaptureID)
	if err != nil {
		slog.Error("failed_to_load_capture", "capture_id", resp.CaptureID, "error", err)
		return nil, errors.Wrap(err, "failed to load capture")
	}
	if c == nil {
		slog.Error("capture_not_found", "capture_id", resp.CaptureID)
		return nil, fsm.Abort(fmt.Errorf("capture not found in database"))
	}

	resp.Status = c.Status
	resp.ErrorMessage = ""

	slog.Info("fsm_complete", "capture_id", c.ID, "status", c.Status, "local_path", c.LocalPath, "s3_key", c.S3Key)
	return fsm.NewResponse(resp), nil
}
