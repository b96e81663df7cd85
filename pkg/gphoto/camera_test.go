package gphoto

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fly-io/camctl/pkg/native"
	"github.com/fly-io/camctl/pkg/native/simulated"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndClose(t *testing.T) {
	drv, s := newTestSession(t, simulated.DefaultConfig())

	cam, err := Open(s)
	require.NoError(t, err)
	assert.Equal(t, StateInitialized, cam.State())
	assert.Equal(t, 2, drv.ContextRefs(s.ctx))
	assert.True(t, drv.Initialized(cam.cam))

	require.NoError(t, cam.Close())
	require.NoError(t, cam.Close())

	stats := drv.Stats(cam.cam)
	assert.Equal(t, StateReleased, cam.State())
	assert.True(t, stats.Unreffed)
	assert.False(t, stats.UnrefWhileInitialized, "close must exit before unref")
	assert.Equal(t, 1, stats.Exits)
	assert.Equal(t, 1, drv.ContextRefs(s.ctx))
	assert.Zero(t, drv.LiveCameras())
}

func TestOpenInitFailureLeaksNothing(t *testing.T) {
	drv, s := newTestSession(t, simulated.DefaultConfig())
	drv.FailNext(simulated.OpCameraInit, native.ErrorIOUSBClaim)

	cam, err := Open(s)
	assert.Nil(t, cam)
	require.Error(t, err)
	assert.True(t, errors.Is(err, Other))
	assert.Zero(t, drv.LiveCameras())
	assert.Equal(t, 1, drv.ContextRefs(s.ctx), "camera's session reference must be dropped")
}

func TestOpenNoCamera(t *testing.T) {
	cfg := simulated.DefaultConfig()
	cfg.Connected = false
	drv, s := newTestSession(t, cfg)

	_, err := Autodetect(s)
	assert.True(t, errors.Is(err, ModelNotFound))
	assert.Zero(t, drv.LiveCameras())
}

func TestOpenClosedSession(t *testing.T) {
	drv, s := newTestSession(t, simulated.DefaultConfig())
	require.NoError(t, s.Close())

	_, err := Open(s)
	assert.True(t, errors.Is(err, InvalidInput))
	assert.Zero(t, drv.LiveCameras())
}

func TestSequentialCaptures(t *testing.T) {
	cfg := simulated.DefaultConfig()
	drv, s, cam := openTestCamera(t, cfg)

	first, err := cam.CaptureImage(s)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, cam.State())

	second, err := cam.CaptureImage(s)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, cam.State())

	assert.Equal(t, "IMG_0001.JPG", first.Basename())
	assert.Equal(t, "IMG_0002.JPG", second.Basename())
	assert.Equal(t, cfg.Folder, first.Directory())

	stats := drv.Stats(cam.cam)
	assert.Equal(t, 2, stats.Captures)
	assert.Equal(t, 2, stats.Inits, "second capture re-initializes")
	assert.Equal(t, 2, stats.Exits)
	assert.False(t, drv.Initialized(cam.cam))
}

func TestCaptureFailureReturnsToIdle(t *testing.T) {
	drv, s, cam := openTestCamera(t, simulated.DefaultConfig())
	drv.FailNext(simulated.OpCapture, native.ErrorCameraBusy)

	_, err := cam.CaptureImage(s)
	assert.True(t, errors.Is(err, CameraBusy))
	assert.Equal(t, StateIdle, cam.State())

	f, err := cam.CaptureImage(s)
	require.NoError(t, err)
	assert.Equal(t, "IMG_0001.JPG", f.Basename())
}

func TestCaptureUnsupportedKind(t *testing.T) {
	_, s, cam := openTestCamera(t, simulated.DefaultConfig())

	_, err := cam.Capture(s, KindMovie)
	assert.True(t, errors.Is(err, NotSupported))

	_, err = cam.Capture(s, CaptureKind(9))
	assert.True(t, errors.Is(err, InvalidInput))
}

func TestCaptureThenDownloadToMemory(t *testing.T) {
	cfg := simulated.DefaultConfig()
	drv, s, cam := openTestCamera(t, cfg)

	f, err := cam.CaptureImage(s)
	require.NoError(t, err)

	mem, err := NewMemoryMedia(drv)
	require.NoError(t, err)
	defer mem.Close()

	require.NoError(t, cam.Download(s, f, mem))
	assert.Equal(t, StateIdle, cam.State())

	data, err := mem.Data()
	require.NoError(t, err)
	want, ok := drv.StoredFile(cam.cam, f.Directory(), f.Basename())
	require.True(t, ok)
	assert.Len(t, data, cfg.ImageSize)
	assert.Equal(t, want, data)

	// Data is a copy.
	data[0] = 0
	again, err := mem.Data()
	require.NoError(t, err)
	assert.Equal(t, byte(0xff), again[0])
}

func TestDownloadFileType(t *testing.T) {
	cfg := simulated.DefaultConfig()
	drv, s, cam := openTestCamera(t, cfg)
	f, err := cam.CaptureImage(s)
	require.NoError(t, err)

	mem, err := NewMemoryMedia(drv)
	require.NoError(t, err)
	defer mem.Close()

	require.NoError(t, cam.Download(s, f, mem, WithFileType(FilePreview)))
	data, err := mem.Data()
	require.NoError(t, err)
	assert.Len(t, data, cfg.ImageSize/4)

	err = cam.Download(s, f, mem, WithFileType(FileRaw))
	assert.True(t, errors.Is(err, NotSupported))

	err = cam.Download(s, f, mem, WithFileType(FileType(42)))
	assert.True(t, errors.Is(err, InvalidInput))
}

func TestDownloadMissingFile(t *testing.T) {
	drv, s, cam := openTestCamera(t, simulated.DefaultConfig())
	f, err := NewCameraFile("/store_00010001/DCIM", "NOPE.JPG")
	require.NoError(t, err)

	mem, err := NewMemoryMedia(drv)
	require.NoError(t, err)
	defer mem.Close()

	err = cam.Download(s, f, mem)
	assert.True(t, errors.Is(err, FileNotFound))
	assert.Equal(t, StateIdle, cam.State())
}

func TestDownloadToFile(t *testing.T) {
	drv, s, cam := openTestCamera(t, simulated.DefaultConfig())
	f, err := cam.CaptureImage(s)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), f.Basename())
	dst, err := CreateFileMedia(drv, path)
	require.NoError(t, err)
	require.NoError(t, cam.Download(s, f, dst))
	require.NoError(t, dst.Close())
	assert.Zero(t, drv.LiveFiles())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	want, _ := drv.StoredFile(cam.cam, f.Directory(), f.Basename())
	assert.Equal(t, want, got)
}

func TestDownloadClosedMedia(t *testing.T) {
	drv, s, cam := openTestCamera(t, simulated.DefaultConfig())
	f, err := cam.CaptureImage(s)
	require.NoError(t, err)

	mem, err := NewMemoryMedia(drv)
	require.NoError(t, err)
	require.NoError(t, mem.Close())

	err = cam.Download(s, f, mem)
	assert.True(t, errors.Is(err, InvalidInput))
	assert.Zero(t, drv.Stats(cam.cam).Downloads)
}

func TestDownloadForeignMedia(t *testing.T) {
	_, s, cam := openTestCamera(t, simulated.DefaultConfig())
	f, err := cam.CaptureImage(s)
	require.NoError(t, err)

	other := simulated.New(simulated.DefaultConfig())
	mem, err := NewMemoryMedia(other)
	require.NoError(t, err)
	defer mem.Close()

	err = cam.Download(s, f, mem)
	assert.True(t, errors.Is(err, InvalidInput))
}

func TestCallWithClosedSession(t *testing.T) {
	drv, s, cam := openTestCamera(t, simulated.DefaultConfig())
	held, err := s.Retain()
	require.NoError(t, err)
	require.NoError(t, held.Close())

	_, err = cam.CaptureImage(held)
	assert.True(t, errors.Is(err, InvalidInput))
	assert.Zero(t, drv.Stats(cam.cam).Captures)
}

func TestCallOnClosedCamera(t *testing.T) {
	_, s, cam := openTestCamera(t, simulated.DefaultConfig())
	require.NoError(t, cam.Close())

	_, err := cam.CaptureImage(s)
	assert.True(t, errors.Is(err, InvalidInput))
	_, err = cam.Summary(s)
	assert.True(t, errors.Is(err, InvalidInput))
	_, err = cam.Storage(s)
	assert.True(t, errors.Is(err, InvalidInput))
}

func TestSummary(t *testing.T) {
	cfg := simulated.DefaultConfig()
	drv, s, cam := openTestCamera(t, cfg)

	summary, err := cam.Summary(s)
	require.NoError(t, err)
	assert.Equal(t, string(cfg.Summary), summary)

	about, err := cam.AboutDriver(s)
	require.NoError(t, err)
	assert.Equal(t, string(cfg.About), about)

	// Metadata calls leave the camera initialized.
	assert.Equal(t, StateInitialized, cam.State())
	assert.Zero(t, drv.Stats(cam.cam).Exits)
	assert.Zero(t, drv.LiveBuffers())
}

func TestManualNotSupported(t *testing.T) {
	drv, s, cam := openTestCamera(t, simulated.DefaultConfig())

	manual, err := cam.Manual(s)
	assert.Empty(t, manual)
	assert.True(t, errors.Is(err, NotSupported))
	assert.Zero(t, drv.LiveBuffers())
}

func TestSummaryNotSupported(t *testing.T) {
	cfg := simulated.DefaultConfig()
	cfg.Summary = nil
	_, s, cam := openTestCamera(t, cfg)

	summary, err := cam.Summary(s)
	assert.Empty(t, summary)
	assert.True(t, errors.Is(err, NotSupported))
}

func TestSummaryCorrupted(t *testing.T) {
	cfg := simulated.DefaultConfig()
	cfg.Summary = []byte{'M', 'o', 'd', 'e', 'l', ':', ' ', 0xff, 0xfe}
	drv, s, cam := openTestCamera(t, cfg)

	summary, err := cam.Summary(s)
	assert.Empty(t, summary)
	assert.True(t, errors.Is(err, CorruptedData))
	assert.Zero(t, drv.LiveBuffers(), "buffer released on the error path")
}

func TestMetadataAfterCaptureReinitializes(t *testing.T) {
	drv, s, cam := openTestCamera(t, simulated.DefaultConfig())
	_, err := cam.CaptureImage(s)
	require.NoError(t, err)
	require.Equal(t, StateIdle, cam.State())

	_, err = cam.Summary(s)
	require.NoError(t, err)
	assert.Equal(t, StateInitialized, cam.State())
	assert.Equal(t, 2, drv.Stats(cam.cam).Inits)
}

func TestStorage(t *testing.T) {
	drv, s, cam := openTestCamera(t, simulated.DefaultConfig())

	storage, err := cam.Storage(s)
	require.NoError(t, err)
	require.Len(t, storage, 1)

	card := storage[0]
	assert.Equal(t, "SD", card.Label)
	assert.Equal(t, "/store_00010001", card.BaseDir)
	assert.Equal(t, StorageRemovableRAM, card.Type)
	assert.Equal(t, FilesystemDCF, card.Filesystem)
	assert.Equal(t, AccessReadWrite, card.Access)
	assert.True(t, card.HasCapacity())
	assert.True(t, card.HasFreeImages())
	assert.Equal(t, uint64(4200), card.FreeImages)
	assert.Zero(t, drv.LiveBuffers())
}

func TestStorageEmpty(t *testing.T) {
	cfg := simulated.DefaultConfig()
	cfg.Storage = nil
	drv, s, cam := openTestCamera(t, cfg)

	storage, err := cam.Storage(s)
	require.NoError(t, err)
	assert.NotNil(t, storage)
	assert.Empty(t, storage)
	assert.Zero(t, drv.LiveBuffers())
}

func TestStorageFailure(t *testing.T) {
	drv, s, cam := openTestCamera(t, simulated.DefaultConfig())
	drv.FailNext(simulated.OpStorageInfo, native.ErrorNotSupported)

	storage, err := cam.Storage(s)
	assert.Nil(t, storage)
	assert.True(t, errors.Is(err, NotSupported))
}

func TestAbilities(t *testing.T) {
	cfg := simulated.DefaultConfig()
	_, _, cam := openTestCamera(t, cfg)

	a := cam.Abilities()
	assert.Equal(t, cfg.Model, a.Model)
	assert.Equal(t, "ptp2", a.Library)
	assert.Equal(t, DriverProduction, a.Status)
	assert.Equal(t, DeviceStillCamera, a.DeviceType)
	assert.True(t, a.Can(OperationCaptureImage))
	assert.True(t, a.Can(OperationConfig|OperationTriggerCapture))
	assert.False(t, a.Can(OperationCaptureVideo))
	assert.True(t, a.CanFile(FileOperationPreview))
	assert.False(t, a.CanFile(FileOperationRaw))
	assert.True(t, a.CanFolder(FolderOperationPutFile))
	assert.True(t, a.SupportsPort(PortUSB))
	assert.False(t, a.SupportsPort(PortSerial))
	assert.Equal(t, "capture_image,config,trigger_capture", a.Operations.String())
}

func TestAbilitiesInvariant(t *testing.T) {
	drv, _, cam := openTestCamera(t, simulated.DefaultConfig())

	drv.FailNext(simulated.OpAbilities, native.ErrorIO)
	assert.Panics(t, func() { cam.Abilities() })

	require.NoError(t, cam.Close())
	assert.Panics(t, func() { cam.Abilities() })
}

func TestPort(t *testing.T) {
	cfg := simulated.DefaultConfig()
	_, _, cam := openTestCamera(t, cfg)

	p := cam.Port()
	assert.Equal(t, PortUSB, p.Type())
	assert.Equal(t, "USB", p.Type().String())
	assert.Equal(t, cfg.PortName, p.Name())
	assert.Equal(t, cfg.PortPath, p.Path())

	// The copy outlives the camera.
	require.NoError(t, cam.Close())
	assert.Equal(t, cfg.PortPath, p.Path())
	assert.Panics(t, func() { cam.Port() })
}

func TestPortTypeMapping(t *testing.T) {
	cases := map[native.PortType]PortType{
		native.PortNone:          PortOther,
		native.PortSerial:        PortSerial,
		native.PortUSB:           PortUSB,
		native.PortDisk:          PortDisk,
		native.PortPTPIP:         PortPTPIP,
		native.PortUSBDiskDirect: PortDirect,
		native.PortUSBSCSI:       PortSCSI,
		native.PortIP:            PortOther,
		native.PortType(1 << 12): PortOther,
	}
	for in, want := range cases {
		assert.Equal(t, want, portTypeFromNative(in), "native port type %d", in)
	}
}

func TestParseFileType(t *testing.T) {
	ft, err := ParseFileType("raw")
	require.NoError(t, err)
	assert.Equal(t, FileRaw, ft)
	assert.Equal(t, "raw", ft.String())

	_, err = ParseFileType("thumbnail")
	assert.True(t, errors.Is(err, InvalidInput))
}
