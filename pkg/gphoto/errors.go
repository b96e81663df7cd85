package gphoto

import (
	"fmt"

	"github.com/fly-io/camctl/pkg/native"
)

// ErrorKind classifies a libgphoto2 status code. ErrorKind implements
// error so that errors.Is(err, gphoto.NotSupported) works on any *Error.
type ErrorKind int

const (
	// Other is any failure without a more specific kind.
	Other ErrorKind = iota
	InvalidInput
	NotSupported
	CorruptedData
	ModelNotFound
	FileExists
	DirectoryExists
	DirectoryNotFound
	FileNotFound
	CameraBusy
	PathNotAbsolute
	Cancel
	CameraError
	OSFailure
	NoSpace
	ResourceExhausted
)

var kindNames = [...]string{
	Other:             "Other",
	InvalidInput:      "InvalidInput",
	NotSupported:      "NotSupported",
	CorruptedData:     "CorruptedData",
	ModelNotFound:     "ModelNotFound",
	FileExists:        "FileExists",
	DirectoryExists:   "DirectoryExists",
	DirectoryNotFound: "DirectoryNotFound",
	FileNotFound:      "FileNotFound",
	CameraBusy:        "CameraBusy",
	PathNotAbsolute:   "PathNotAbsolute",
	Cancel:            "Cancel",
	CameraError:       "CameraError",
	OSFailure:         "OSFailure",
	NoSpace:           "NoSpace",
	ResourceExhausted: "ResourceExhausted",
}

func (k ErrorKind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

func (k ErrorKind) Error() string { return k.String() }

// kinds is the whole mapping. Codes absent from it are Other.
var kinds = map[int]ErrorKind{
	native.ErrorBadParameters:     InvalidInput,
	native.ErrorNoMemory:          ResourceExhausted,
	native.ErrorNotSupported:      NotSupported,
	native.ErrorCorruptedData:     CorruptedData,
	native.ErrorFileExists:        FileExists,
	native.ErrorModelNotFound:     ModelNotFound,
	native.ErrorDirectoryNotFound: DirectoryNotFound,
	native.ErrorFileNotFound:      FileNotFound,
	native.ErrorDirectoryExists:   DirectoryExists,
	native.ErrorCameraBusy:        CameraBusy,
	native.ErrorPathNotAbsolute:   PathNotAbsolute,
	native.ErrorCancel:            Cancel,
	native.ErrorCameraError:       CameraError,
	native.ErrorOSFailure:         OSFailure,
	native.ErrorNoSpace:           NoSpace,
}

// Classify maps a native status code to its kind. It is total: unknown
// codes are Other.
func Classify(code int) ErrorKind {
	if k, ok := kinds[code]; ok {
		return k
	}
	return Other
}

// Message returns the library's description of code. It never fails.
func Message(drv native.Driver, code int) string {
	if drv != nil {
		if msg := drv.ResultAsString(code); msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("unknown gphoto2 error %d", code)
}

// Error is a failed native call.
type Error struct {
	code  int
	msg   string
	cause error
}

func newError(drv native.Driver, code int) *Error {
	return &Error{code: code, msg: Message(drv, code)}
}

// osError records an operating system failure under a native code.
func osError(drv native.Driver, code int, cause error) *Error {
	e := newError(drv, code)
	e.cause = cause
	return e
}

// checkResult converts a status into an error. It is the only place a
// native status becomes a Go error.
func checkResult(drv native.Driver, code int) error {
	if code == native.OK {
		return nil
	}
	return newError(drv, code)
}

// Code returns the native status code.
func (e *Error) Code() int { return e.code }

// Kind classifies the error.
func (e *Error) Kind() ErrorKind { return Classify(e.code) }

// Message returns the library's description.
func (e *Error) Message() string { return e.msg }

func (e *Error) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches an ErrorKind target against the error's kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind()
}
