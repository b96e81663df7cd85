package gphoto

import (
	"log/slog"

	"github.com/fly-io/camctl/pkg/native"
)

// Media receives bytes downloaded from a camera. The implementations are
// FileMedia and MemoryMedia. A Media must not be handed to two downloads
// at once.
type Media interface {
	// Close releases the native file. It is safe to call more than once.
	Close() error

	nativeFile() (native.Handle, error)
	driver() native.Driver
}

// mediaFile is the native camera file shared by both media kinds.
type mediaFile struct {
	drv    native.Driver
	file   native.Handle
	closed bool
}

func (m *mediaFile) nativeFile() (native.Handle, error) {
	if m.closed {
		return 0, &Error{code: native.ErrorBadParameters, msg: "media is closed"}
	}
	return m.file, nil
}

func (m *mediaFile) driver() native.Driver { return m.drv }

func (m *mediaFile) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	m.drv.FileUnref(m.file)
	slog.Debug("media_released", "file", m.file)
	return nil
}

// MemoryMedia keeps downloaded bytes in a native memory buffer.
type MemoryMedia struct {
	mediaFile
}

// NewMemoryMedia allocates an empty in-memory camera file.
func NewMemoryMedia(drv native.Driver) (*MemoryMedia, error) {
	file, code := drv.FileNew()
	if err := checkResult(drv, code); err != nil {
		return nil, err
	}
	slog.Debug("memory_media_created", "file", file)
	return &MemoryMedia{mediaFile{drv: drv, file: file}}, nil
}

// Data returns a copy of the buffer's current contents.
func (m *MemoryMedia) Data() ([]byte, error) {
	file, err := m.nativeFile()
	if err != nil {
		return nil, err
	}
	view, code := m.drv.FileDataAndSize(file)
	if err := checkResult(m.drv, code); err != nil {
		return nil, err
	}
	return append([]byte{}, view...), nil
}

// FileMedia writes downloaded bytes to a file on the local filesystem.
type FileMedia struct {
	mediaFile
	path string
}

// Path returns the local file path.
func (m *FileMedia) Path() string { return m.path }
