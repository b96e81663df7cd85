package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	tests := []struct {
		prefix, folder, name, want string
	}{
		{"captures", "/store_00010001/DCIM/100CANON", "IMG_0001.JPG", "captures/store_00010001/DCIM/100CANON/IMG_0001.JPG"},
		{"/captures/", "/DCIM", "IMG_0001.JPG", "captures/DCIM/IMG_0001.JPG"},
		{"", "/DCIM", "IMG_0001.JPG", "DCIM/IMG_0001.JPG"},
		{"captures", "/", "IMG_0001.JPG", "captures/IMG_0001.JPG"},
		{"captures", "/../../etc", "IMG_0001.JPG", "captures/etc/IMG_0001.JPG"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ObjectKey(tt.prefix, tt.folder, tt.name), "ObjectKey(%q, %q, %q)", tt.prefix, tt.folder, tt.name)
	}
}

func TestDigestFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "IMG_0001.JPG")
	require.NoError(t, os.WriteFile(p, []byte("hello"), 0o644))

	d, err := DigestFile(p)
	require.NoError(t, err)
	assert.Equal(t, int64(5), d.Size)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", d.SHA256)

	_, err = DigestFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
