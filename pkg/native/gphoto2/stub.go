//go:build !gphoto2 || !cgo

package gphoto2

import (
	"fmt"

	"github.com/fly-io/camctl/pkg/native"
)

// NewDriver reports that this binary was built without libgphoto2.
func NewDriver() (native.Driver, error) {
	return nil, fmt.Errorf("libgphoto2 support not compiled in (build with -tags gphoto2 and cgo enabled)")
}
