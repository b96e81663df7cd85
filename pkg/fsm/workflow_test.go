package fsm

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fly-io/camctl/pkg/db"
	perrors "github.com/fly-io/camctl/pkg/errors"
	"github.com/fly-io/camctl/pkg/gphoto"
	"github.com/fly-io/camctl/pkg/native"
	"github.com/fly-io/camctl/pkg/native/simulated"
	"github.com/fly-io/camctl/pkg/security"
	"github.com/fly-io/camctl/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/superfly/fsm"
)

type fakeArchiver struct {
	objects   map[string]string
	uploadErr error
	uploads   int
}

func (a *fakeArchiver) Upload(_ context.Context, key, localPath string) (*storage.UploadResult, error) {
	if a.uploadErr != nil {
		return nil, a.uploadErr
	}
	d, err := storage.DigestFile(localPath)
	if err != nil {
		return nil, err
	}
	a.uploads++
	a.objects[key] = d.SHA256
	return &storage.UploadResult{S3Key: key, SHA256: d.SHA256, Size: d.Size}, nil
}

func (a *fakeArchiver) Exists(_ context.Context, key string) (bool, error) {
	_, ok := a.objects[key]
	return ok, nil
}

type harness struct {
	drv     *simulated.Driver
	camera  *gphoto.Camera
	repo    *db.Repository
	archive *fakeArchiver
	machine *Machine
	outDir  string
}

func newHarness(t *testing.T, withArchive bool) *harness {
	t.Helper()
	h := &harness{
		drv:    simulated.New(simulated.DefaultConfig()),
		outDir: filepath.Join(t.TempDir(), "captures"),
	}

	s, err := gphoto.NewSession(h.drv)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	h.camera, err = gphoto.Open(s)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.camera.Close() })

	h.repo, err = db.NewRepository(filepath.Join(t.TempDir(), "captures.db"))
	require.NoError(t, err)
	t.Cleanup(func() { h.repo.Close() })

	var archiver Archiver
	if withArchive {
		h.archive = &fakeArchiver{objects: make(map[string]string)}
		archiver = h.archive
	}

	h.machine = NewMachine(s, h.camera, h.repo, archiver, security.NewValidator(1<<20, 1<<24), Options{
		OutputDir:  h.outDir,
		S3Prefix:   "captures",
		FileType:   gphoto.FileNormal,
		MaxRetries: 3,
	})
	return h
}

type handler func(context.Context, *fsm.Request[CaptureRequest, CaptureResponse]) (*fsm.Response[CaptureResponse], error)

// run drives the transitions in order, stopping at the first error.
func (h *harness) run(req *CaptureRequest, resp *CaptureResponse) error {
	ctx := context.Background()
	for _, step := range []handler{
		h.machine.handleCapture,
		h.machine.handleDownload,
		h.machine.handleUpload,
		h.machine.handleComplete,
	} {
		if _, err := step(ctx, fsm.NewRequest(req, resp)); err != nil {
			return err
		}
	}
	return nil
}

func TestWorkflowCaptureDownloadUpload(t *testing.T) {
	h := newHarness(t, true)
	resp := &CaptureResponse{}

	require.NoError(t, h.run(&CaptureRequest{RunID: "run-1"}, resp))

	assert.Equal(t, db.StatusUploaded, resp.Status)
	assert.Equal(t, "IMG_0001.JPG", resp.Name)
	assert.Equal(t, filepath.Join(h.outDir, "IMG_0001.JPG"), resp.LocalPath)
	assert.Equal(t, "captures/store_00010001/DCIM/100CANON/IMG_0001.JPG", resp.S3Key)
	assert.Equal(t, 1, h.archive.uploads)
	assert.Equal(t, resp.SHA256, h.archive.objects[resp.S3Key])

	got, err := os.ReadFile(resp.LocalPath)
	require.NoError(t, err)
	assert.Len(t, got, 8192)
	assert.Equal(t, int64(8192), resp.Size)

	c, err := h.repo.Get(context.Background(), resp.CaptureID)
	require.NoError(t, err)
	assert.Equal(t, db.StatusUploaded, c.Status)
	assert.Equal(t, resp.SHA256, c.SHA256)
	assert.Equal(t, resp.S3Key, c.S3Key)

	assert.Equal(t, gphoto.StateIdle, h.camera.State())
	assert.Zero(t, h.drv.LiveFiles())
}

func TestWorkflowWithoutArchive(t *testing.T) {
	h := newHarness(t, false)
	resp := &CaptureResponse{}

	require.NoError(t, h.run(&CaptureRequest{RunID: "run-1"}, resp))
	assert.Equal(t, db.StatusStored, resp.Status)
	assert.Empty(t, resp.S3Key)
}

func TestWorkflowRetriedCaptureDoesNotShootTwice(t *testing.T) {
	h := newHarness(t, false)
	req := &CaptureRequest{RunID: "run-1"}
	resp := &CaptureResponse{}

	ctx := context.Background()
	_, err := h.machine.handleCapture(ctx, fsm.NewRequest(req, resp))
	require.NoError(t, err)
	first := resp.CaptureID
	_, err = h.machine.handleCapture(ctx, fsm.NewRequest(req, resp))
	require.NoError(t, err)

	assert.Equal(t, "IMG_0001.JPG", resp.Name)
	assert.Equal(t, first, resp.CaptureID)

	// The next run gets the next sequence number, so only one capture
	// happened above.
	next := &CaptureResponse{}
	_, err = h.machine.handleCapture(ctx, fsm.NewRequest(&CaptureRequest{RunID: "run-2"}, next))
	require.NoError(t, err)
	assert.Equal(t, "IMG_0002.JPG", next.Name)

	all, err := h.repo.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestWorkflowCameraErrorAborts(t *testing.T) {
	h := newHarness(t, false)
	h.drv.FailNext(simulated.OpCapture, native.ErrorCameraBusy)
	resp := &CaptureResponse{}

	err := h.run(&CaptureRequest{RunID: "run-1"}, resp)
	require.Error(t, err)
	assert.Equal(t, db.StatusFailed, resp.Status)
	assert.Equal(t, "capture: I/O in progress", resp.ErrorMessage)
}

func TestWorkflowMissingFileMarksFailed(t *testing.T) {
	h := newHarness(t, false)
	resp := &CaptureResponse{}

	err := h.run(&CaptureRequest{RunID: "run-1", Folder: "/store_00010001/DCIM/100CANON", Name: "IMG_9999.JPG"}, resp)
	require.Error(t, err)
	assert.Equal(t, "download: File not found", resp.ErrorMessage)

	c, err := h.repo.GetByPath(context.Background(), "/store_00010001/DCIM/100CANON", "IMG_9999.JPG")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, db.StatusFailed, c.Status)

	_, statErr := os.Stat(filepath.Join(h.outDir, "IMG_9999.JPG"))
	assert.True(t, os.IsNotExist(statErr), "failed download leaves no file")
	assert.Zero(t, h.drv.LiveFiles())
}

func TestWorkflowRefusesToOverwrite(t *testing.T) {
	h := newHarness(t, false)
	require.NoError(t, os.MkdirAll(h.outDir, 0755))
	existing := filepath.Join(h.outDir, "IMG_0001.JPG")
	require.NoError(t, os.WriteFile(existing, []byte("keep"), 0644))

	resp := &CaptureResponse{}
	err := h.run(&CaptureRequest{RunID: "run-1"}, resp)
	require.Error(t, err)
	assert.Equal(t, db.StatusFailed, resp.Status)
	assert.Contains(t, resp.ErrorMessage, "File already exists")

	got, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(got))
}

func TestWorkflowUploadErrorRetries(t *testing.T) {
	h := newHarness(t, true)
	h.archive.uploadErr = errors.New("connection reset")
	resp := &CaptureResponse{}

	err := h.run(&CaptureRequest{RunID: "run-1"}, resp)
	require.Error(t, err)
	assert.False(t, IsCameraError(err))
	assert.Equal(t, db.StatusStored, resp.Status, "stored copy survives a failed upload")

	// The retry picks up where the upload left off.
	h.archive.uploadErr = nil
	require.NoError(t, h.run(&CaptureRequest{RunID: "run-1"}, resp))
	assert.Equal(t, db.StatusUploaded, resp.Status)
	assert.Equal(t, 1, h.archive.uploads)
}

func TestWorkflowExistingObjectNotReuploaded(t *testing.T) {
	h := newHarness(t, true)
	h.archive.objects["captures/store_00010001/DCIM/100CANON/IMG_0001.JPG"] = "whatever"
	resp := &CaptureResponse{}

	require.NoError(t, h.run(&CaptureRequest{RunID: "run-1"}, resp))
	assert.Zero(t, h.archive.uploads)
	assert.Equal(t, db.StatusUploaded, resp.Status)
}

func TestWorkflowRejectsUnsafeName(t *testing.T) {
	h := newHarness(t, false)
	resp := &CaptureResponse{}

	err := h.run(&CaptureRequest{RunID: "run-1", Folder: "/DCIM", Name: "../../etc/passwd"}, resp)
	require.Error(t, err)
	assert.Equal(t, db.StatusFailed, resp.Status)

	all, err := h.repo.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestIsCameraError(t *testing.T) {
	drv := simulated.New(simulated.DefaultConfig())
	drv.FailNext(simulated.OpContextNew, native.ErrorNoMemory)
	_, err := gphoto.NewSession(drv)
	require.Error(t, err)

	assert.True(t, IsCameraError(err))
	assert.True(t, IsCameraError(perrors.Op("capture", err)))
	assert.False(t, IsCameraError(errors.New("connection reset")))
	assert.False(t, IsCameraError(nil))
}
