package gphoto

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/fly-io/camctl/pkg/native"
	"github.com/fly-io/camctl/pkg/native/simulated"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestClassifyMappedCodes(t *testing.T) {
	cases := []struct {
		code int
		want ErrorKind
	}{
		{native.ErrorBadParameters, InvalidInput},
		{native.ErrorNoMemory, ResourceExhausted},
		{native.ErrorNotSupported, NotSupported},
		{native.ErrorCorruptedData, CorruptedData},
		{native.ErrorFileExists, FileExists},
		{native.ErrorModelNotFound, ModelNotFound},
		{native.ErrorDirectoryNotFound, DirectoryNotFound},
		{native.ErrorFileNotFound, FileNotFound},
		{native.ErrorDirectoryExists, DirectoryExists},
		{native.ErrorCameraBusy, CameraBusy},
		{native.ErrorPathNotAbsolute, PathNotAbsolute},
		{native.ErrorCancel, Cancel},
		{native.ErrorCameraError, CameraError},
		{native.ErrorOSFailure, OSFailure},
		{native.ErrorNoSpace, NoSpace},
	}
	for _, tc := range cases {
		t.Run(tc.want.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.code))
		})
	}
	assert.Len(t, kinds, len(cases))
}

func TestClassifyEachKindOnce(t *testing.T) {
	seen := make(map[ErrorKind]int)
	for _, k := range kinds {
		seen[k]++
	}
	for k, n := range seen {
		assert.Equal(t, 1, n, "kind %s mapped more than once", k)
	}
	assert.NotContains(t, seen, Other)
}

func TestClassifyUnmappedLibraryCodes(t *testing.T) {
	for _, code := range []int{
		native.Error, native.ErrorLibrary, native.ErrorUnknownPort, native.ErrorIO,
		native.ErrorTimeout, native.ErrorIOUSBClaim, native.ErrorHAL, 1, 0,
	} {
		assert.Equal(t, Other, Classify(code), "code %d", code)
	}
}

func TestPropertyClassifyTotal(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		code := rapid.Int().Draw(t, "code")
		k := Classify(code)
		if _, mapped := kinds[code]; !mapped && k != Other {
			t.Fatalf("unmapped code %d classified as %s", code, k)
		}
		if k.String() == "" {
			t.Fatalf("empty kind name for code %d", code)
		}
	})
}

func TestMessageFallback(t *testing.T) {
	drv := simulated.New(simulated.DefaultConfig())

	assert.Equal(t, "Unsupported operation", Message(drv, native.ErrorNotSupported))
	assert.Equal(t, "unknown gphoto2 error -8", Message(drv, native.ErrorFixedLimitExceeded))
	assert.Equal(t, "unknown gphoto2 error -6", Message(nil, native.ErrorNotSupported))
}

func TestErrorMatching(t *testing.T) {
	drv := simulated.New(simulated.DefaultConfig())

	err := checkResult(drv, native.ErrorCameraBusy)
	require.Error(t, err)
	assert.True(t, errors.Is(err, CameraBusy))
	assert.False(t, errors.Is(err, NotSupported))

	var gerr *Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, native.ErrorCameraBusy, gerr.Code())
	assert.Equal(t, CameraBusy, gerr.Kind())
	assert.Equal(t, "I/O in progress", gerr.Error())

	assert.NoError(t, checkResult(drv, native.OK))
}

func TestOSErrorKeepsCause(t *testing.T) {
	drv := simulated.New(simulated.DefaultConfig())
	err := osError(drv, native.ErrorFileExists, fs.ErrExist)

	assert.True(t, errors.Is(err, FileExists))
	assert.True(t, errors.Is(err, fs.ErrExist))
	assert.Contains(t, err.Error(), "File already exists")
}
