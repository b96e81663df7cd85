package security

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateBasename(t *testing.T) {
	v := NewValidator(1024, 1024)

	tests := []struct {
		name      string
		shouldErr bool
	}{
		{"IMG_0001.JPG", false},
		{"capt0000.nef", false},
		{"", true},
		{".", true},
		{"..", true},
		{"../IMG_0001.JPG", true},
		{"DCIM/IMG_0001.JPG", true},
		{`DCIM\IMG_0001.JPG`, true},
		{"IMG\x00.JPG", true},
		{"IMG\n.JPG", true},
		{strings.Repeat("a", 127), false},
		{strings.Repeat("a", 128), true},
	}

	for _, tt := range tests {
		err := v.ValidateBasename(tt.name)
		if tt.shouldErr && err == nil {
			t.Errorf("expected error for name: %q", tt.name)
		}
		if !tt.shouldErr && err != nil {
			t.Errorf("unexpected error for name %q: %v", tt.name, err)
		}
	}
}

func TestValidatePath_PathTraversal(t *testing.T) {
	v := NewValidator(1024, 1024)

	tests := []struct {
		path      string
		shouldErr bool
	}{
		{"captures", false},
		{"captures/2026", false},
		{"../etc/passwd", true},
		{"/etc/passwd", true},
		{"dir/../file.txt", false},
		{"dir/../../etc/passwd", true},
		{"..archive", false},
	}

	for _, tt := range tests {
		err := v.ValidatePath(tt.path)
		if tt.shouldErr && err == nil {
			t.Errorf("expected error for path: %s", tt.path)
		}
		if !tt.shouldErr && err != nil {
			t.Errorf("unexpected error for path %s: %v", tt.path, err)
		}
	}
}

func TestResolveDestination(t *testing.T) {
	v := NewValidator(1024, 1024)
	dir := t.TempDir()

	got, err := v.ResolveDestination(dir, "IMG_0001.JPG")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(dir, "IMG_0001.JPG"); got != want {
		t.Errorf("got %s, want %s", got, want)
	}

	if _, err := v.ResolveDestination(dir, "../IMG_0001.JPG"); err == nil {
		t.Error("expected error for traversal in basename")
	}
}

func TestValidateFileSize(t *testing.T) {
	v := NewValidator(100, 1000)

	if err := v.ValidateFileSize(50); err != nil {
		t.Errorf("expected no error for size 50, got: %v", err)
	}

	if err := v.ValidateFileSize(150); err == nil {
		t.Error("expected error for size 150 exceeding limit 100")
	}
}

func TestAddDownloadedSize_ExceedsTotal(t *testing.T) {
	v := NewValidator(1024, 500)

	if err := v.AddDownloadedSize(400); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := v.AddDownloadedSize(200); err == nil {
		t.Error("expected error when total downloaded exceeds limit")
	}

	v.Reset()
	if got := v.GetCurrentTotalSize(); got != 0 {
		t.Errorf("expected 0 after reset, got %d", got)
	}
}
