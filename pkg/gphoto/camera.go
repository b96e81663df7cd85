package gphoto

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/fly-io/camctl/pkg/native"
)

// State is the lifecycle position of a Camera.
type State int

const (
	StateCreated State = iota
	StateInitialized
	StateCapturing
	StateTransferring
	StateIdle
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInitialized:
		return "initialized"
	case StateCapturing:
		return "capturing"
	case StateTransferring:
		return "transferring"
	case StateIdle:
		return "idle"
	case StateReleased:
		return "released"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// CaptureKind selects what a capture records.
type CaptureKind int

const (
	KindImage CaptureKind = CaptureKind(native.CaptureImage)
	KindMovie CaptureKind = CaptureKind(native.CaptureMovie)
	KindSound CaptureKind = CaptureKind(native.CaptureSound)
)

// FileType selects which representation of a camera file is downloaded.
type FileType int

const (
	FilePreview  FileType = FileType(native.FileTypePreview)
	FileNormal   FileType = FileType(native.FileTypeNormal)
	FileRaw      FileType = FileType(native.FileTypeRaw)
	FileAudio    FileType = FileType(native.FileTypeAudio)
	FileExif     FileType = FileType(native.FileTypeExif)
	FileMetadata FileType = FileType(native.FileTypeMetadata)
)

var fileTypeNames = map[string]FileType{
	"preview":  FilePreview,
	"normal":   FileNormal,
	"raw":      FileRaw,
	"audio":    FileAudio,
	"exif":     FileExif,
	"metadata": FileMetadata,
}

// ParseFileType parses a file type name such as "normal" or "preview".
func ParseFileType(name string) (FileType, error) {
	if t, ok := fileTypeNames[name]; ok {
		return t, nil
	}
	return 0, &Error{code: native.ErrorBadParameters, msg: fmt.Sprintf("unknown file type %q", name)}
}

func (t FileType) String() string {
	for name, v := range fileTypeNames {
		if v == t {
			return name
		}
	}
	return fmt.Sprintf("FileType(%d)", int(t))
}

type downloadOptions struct {
	fileType FileType
}

// DownloadOption configures Camera.Download.
type DownloadOption func(*downloadOptions)

// WithFileType downloads the given representation instead of the normal
// file.
func WithFileType(t FileType) DownloadOption {
	return func(o *downloadOptions) { o.fileType = t }
}

// Camera is an opened camera. It keeps its own reference to the Session
// it was opened with, so the native context outlives it.
//
// Capture and Download leave the camera idle (exited) when they finish;
// the next call initializes it again. A Camera is not safe for
// concurrent use; callers serialize access.
type Camera struct {
	drv     native.Driver
	cam     native.Handle
	session *Session
	state   State
}

// Open opens the first camera the driver detects.
func Open(s *Session) (*Camera, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	drv := s.drv
	slog.Debug("camera_open_start", "context", s.ctx)

	h, code := drv.CameraNew()
	if code == native.OK && h == 0 {
		code = native.ErrorNoMemory
	}
	if err := checkResult(drv, code); err != nil {
		slog.Error("camera_new_failed", "error", err)
		return nil, err
	}

	held, err := s.Retain()
	if err != nil {
		drv.CameraUnref(h)
		return nil, err
	}

	c := &Camera{drv: drv, cam: h, session: held, state: StateCreated}
	if err := c.init(s); err != nil {
		slog.Error("camera_init_failed", "error", err)
		_ = c.Close()
		return nil, err
	}

	slog.Debug("camera_open_complete", "camera", h)
	return c, nil
}

// Autodetect is Open.
func Autodetect(s *Session) (*Camera, error) { return Open(s) }

// State returns the camera's lifecycle state.
func (c *Camera) State() State { return c.state }

func (c *Camera) init(s *Session) error {
	if err := checkResult(c.drv, c.drv.CameraInit(c.cam, s.ctx)); err != nil {
		return err
	}
	c.state = StateInitialized
	return nil
}

// begin checks s and brings the camera to Initialized.
func (c *Camera) begin(s *Session) error {
	if err := s.check(); err != nil {
		return err
	}
	if s.drv != c.drv {
		return &Error{code: native.ErrorBadParameters, msg: "session belongs to another driver"}
	}
	switch c.state {
	case StateInitialized:
		return nil
	case StateCreated, StateIdle:
		return c.init(s)
	case StateReleased:
		return &Error{code: native.ErrorBadParameters, msg: "camera is closed"}
	default:
		return &Error{code: native.ErrorCameraBusy, msg: fmt.Sprintf("camera is %s", c.state)}
	}
}

// settle exits the camera after a transient operation.
func (c *Camera) settle(s *Session) {
	if code := c.drv.CameraExit(c.cam, s.ctx); code != native.OK {
		slog.Warn("camera_exit_failed", "camera", c.cam, "error", Message(c.drv, code))
	}
	c.state = StateIdle
}

// CaptureImage takes a picture and returns where the camera stored it.
func (c *Camera) CaptureImage(s *Session) (CameraFile, error) {
	return c.Capture(s, KindImage)
}

// Capture records kind and returns where the camera stored the result.
func (c *Camera) Capture(s *Session, kind CaptureKind) (CameraFile, error) {
	if kind < KindImage || kind > KindSound {
		return CameraFile{}, newError(c.drv, native.ErrorBadParameters)
	}
	if err := c.begin(s); err != nil {
		return CameraFile{}, err
	}

	c.state = StateCapturing
	path, code := c.drv.CameraCapture(c.cam, native.CaptureType(kind), s.ctx)
	c.settle(s)
	if err := checkResult(c.drv, code); err != nil {
		slog.Error("camera_capture_failed", "camera", c.cam, "error", err)
		return CameraFile{}, err
	}

	f := CameraFile{path: path}
	slog.Debug("camera_capture_complete", "camera", c.cam, "path", f.Path())
	return f, nil
}

// Download copies file from the camera into dst.
func (c *Camera) Download(s *Session, file CameraFile, dst Media, opts ...DownloadOption) error {
	o := downloadOptions{fileType: FileNormal}
	for _, opt := range opts {
		opt(&o)
	}
	if o.fileType < FilePreview || o.fileType > FileMetadata {
		return newError(c.drv, native.ErrorBadParameters)
	}
	if dst == nil || dst.driver() != c.drv {
		return &Error{code: native.ErrorBadParameters, msg: "media belongs to another driver"}
	}
	fh, err := dst.nativeFile()
	if err != nil {
		return err
	}
	if err := c.begin(s); err != nil {
		return err
	}

	c.state = StateTransferring
	code := c.drv.CameraFileGet(c.cam, file.path, native.FileType(o.fileType), fh, s.ctx)
	c.settle(s)
	if err := checkResult(c.drv, code); err != nil {
		slog.Error("camera_download_failed", "camera", c.cam, "path", file.Path(), "error", err)
		return err
	}

	slog.Debug("camera_download_complete", "camera", c.cam, "path", file.Path(), "file_type", o.fileType)
	return nil
}

// Abilities returns the camera model's capabilities. It cannot fail on an
// open camera and panics if it does.
func (c *Camera) Abilities() Abilities {
	c.mustBeOpen("camera_get_abilities")
	a, code := c.drv.CameraAbilities(c.cam)
	mustOK("camera_get_abilities", code)
	return abilitiesFromNative(a)
}

// Port describes the connection to the camera. It cannot fail on an open
// camera and panics if it does.
func (c *Camera) Port() Port {
	c.mustBeOpen("camera_get_port_info")
	info, code := c.drv.CameraPortInfo(c.cam)
	mustOK("camera_get_port_info", code)
	return copyPort(info)
}

// Storage lists the camera's filesystems.
func (c *Camera) Storage(s *Session) ([]Storage, error) {
	if err := c.begin(s); err != nil {
		return nil, err
	}
	list, code := c.drv.CameraStorageInfo(c.cam, s.ctx)
	if err := checkResult(c.drv, code); err != nil {
		return nil, err
	}
	if list == nil {
		return []Storage{}, nil
	}
	return takeStorage(list), nil
}

// Summary returns non-configurable information such as the manufacturer
// and the number of pictures taken.
//
// Errors: NotSupported if the driver has no summary, CorruptedData if
// the text is not valid UTF-8.
func (c *Camera) Summary(s *Session) (string, error) {
	return c.text(s, c.drv.CameraSummary)
}

// Manual returns the driver's usage notes for the camera.
//
// Errors: NotSupported, CorruptedData as for Summary.
func (c *Camera) Manual(s *Session) (string, error) {
	return c.text(s, c.drv.CameraManual)
}

// AboutDriver returns information about the driver, such as its authors.
//
// Errors: NotSupported, CorruptedData as for Summary.
func (c *Camera) AboutDriver(s *Session) (string, error) {
	return c.text(s, c.drv.CameraAbout)
}

func (c *Camera) text(s *Session, get func(cam, ctx native.Handle) (native.Text, int)) (string, error) {
	if err := c.begin(s); err != nil {
		return "", err
	}
	t, code := get(c.cam, s.ctx)
	if err := checkResult(c.drv, code); err != nil {
		return "", err
	}
	if t == nil {
		return "", newError(c.drv, native.ErrorCorruptedData)
	}
	return takeText(c.drv, t)
}

// Close exits the camera if it is initialized, releases the native
// camera and drops the camera's session reference. Closing twice is a
// no-op.
func (c *Camera) Close() error {
	if c.state == StateReleased {
		return nil
	}
	var errs []error
	if c.state == StateInitialized {
		errs = append(errs, checkResult(c.drv, c.drv.CameraExit(c.cam, c.session.ctx)))
	}
	errs = append(errs, checkResult(c.drv, c.drv.CameraUnref(c.cam)))
	c.state = StateReleased
	errs = append(errs, c.session.Close())
	slog.Debug("camera_released", "camera", c.cam)
	return errors.Join(errs...)
}

func (c *Camera) mustBeOpen(op string) {
	if c.state == StateReleased {
		panic(fmt.Sprintf("gphoto: %s on a closed camera", op))
	}
}

func mustOK(op string, code int) {
	if code != native.OK {
		panic(fmt.Sprintf("gphoto: %s failed on an open camera: status %d", op, code))
	}
}
