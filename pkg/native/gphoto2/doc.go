// Package gphoto2 binds native.Driver to libgphoto2 through cgo.
//
// The binding is only compiled with the gphoto2 build tag and cgo
// enabled; otherwise NewDriver returns an error and callers fall back to
// the simulated driver.
package gphoto2
