//go:build !unix

package gphoto

import (
	"github.com/fly-io/camctl/pkg/native"
)

// CreateFileMedia is only available on unix systems.
func CreateFileMedia(drv native.Driver, path string) (*FileMedia, error) {
	return nil, newError(drv, native.ErrorNotSupported)
}
