//go:build unix

package gphoto

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/fly-io/camctl/pkg/native"
	"golang.org/x/sys/unix"
)

// CreateFileMedia creates path, which must not exist, and wraps it in a
// native camera file. The file starts out empty.
//
// Errors: FileExists if path exists, InvalidInput if path contains a NUL
// byte, OSFailure for any other open failure.
func CreateFileMedia(drv native.Driver, path string) (*FileMedia, error) {
	if path == "" || strings.ContainsRune(path, 0) {
		return nil, newError(drv, native.ErrorBadParameters)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
	if err != nil {
		slog.Error("file_media_open_failed", "path", path, "error", err)
		if errors.Is(err, fs.ErrExist) {
			return nil, osError(drv, native.ErrorFileExists, err)
		}
		return nil, osError(drv, native.ErrorOSFailure, err)
	}
	// The native file gets its own descriptor; ours is closed on every path.
	defer f.Close()

	fd, err := unix.Dup(int(f.Fd()))
	if err != nil {
		_ = os.Remove(path)
		return nil, osError(drv, native.ErrorOSFailure, err)
	}
	unix.CloseOnExec(fd)

	file, code := drv.FileNewFromFD(fd)
	if code == native.OK && file == 0 {
		code = native.ErrorNoMemory
	}
	if err := checkResult(drv, code); err != nil {
		_ = unix.Close(fd)
		_ = os.Remove(path)
		slog.Error("file_media_wrap_failed", "path", path, "error", err)
		return nil, err
	}

	slog.Debug("file_media_created", "path", path, "file", file)
	return &FileMedia{mediaFile: mediaFile{drv: drv, file: file}, path: path}, nil
}
