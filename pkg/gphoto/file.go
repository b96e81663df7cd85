package gphoto

import (
	"path"
	"strings"

	"github.com/fly-io/camctl/pkg/native"
)

// CameraFile names a file stored on the camera, typically the result of a
// capture. It is a plain value: copying it is cheap and it owns nothing.
// The file itself stays on the camera until it is deleted there.
type CameraFile struct {
	path native.FilePath
}

// NewCameraFile builds a descriptor for a file already known to be on the
// camera, for example one recorded by an earlier run.
func NewCameraFile(folder, name string) (CameraFile, error) {
	var f CameraFile
	if !fits(folder, len(f.path.Folder)) || !fits(name, len(f.path.Name)) {
		return f, &Error{code: native.ErrorBadParameters, msg: "camera path does not fit the native buffer"}
	}
	copy(f.path.Folder[:], folder)
	copy(f.path.Name[:], name)
	return f, nil
}

// fits reports whether s and its NUL terminator fit in capacity bytes.
func fits(s string, capacity int) bool {
	return len(s) < capacity && !strings.ContainsRune(s, 0)
}

// Directory returns the folder the file is stored in.
func (f CameraFile) Directory() string { return lossyString(f.path.Folder[:]) }

// Basename returns the file name without its folder.
func (f CameraFile) Basename() string { return lossyString(f.path.Name[:]) }

// Path returns the folder and name joined with a slash, as the camera
// reports it.
func (f CameraFile) Path() string {
	dir, name := f.Directory(), f.Basename()
	if dir == "" {
		return name
	}
	if strings.HasSuffix(dir, "/") {
		return dir + name
	}
	return dir + "/" + name
}

// Ext returns the lower-cased extension of the file name.
func (f CameraFile) Ext() string {
	return strings.ToLower(path.Ext(f.Basename()))
}

func (f CameraFile) String() string { return f.Path() }
