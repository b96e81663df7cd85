package security

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"unicode"
)

// maxBasenameLen is one less than the native name buffer, leaving room
// for the terminator.
const maxBasenameLen = 127

// Validator checks camera-reported names and sizes before downloaded
// files touch the local filesystem or the archive.
type Validator struct {
	maxFileSize  int64
	maxTotalSize int64

	mu               sync.Mutex
	currentTotalSize int64
}

// NewValidator creates a new security validator
func NewValidator(maxFileSize, maxTotalSize int64) *Validator {
	slog.Info("security_validator_init",
		"max_file_size_mb", maxFileSize/1024/1024,
		"max_total_size_mb", maxTotalSize/1024/1024)

	return &Validator{
		maxFileSize:  maxFileSize,
		maxTotalSize: maxTotalSize,
	}
}

// ValidateBasename rejects camera file names that are not a single plain
// path element.
func (v *Validator) ValidateBasename(name string) error {
	reason := ""
	switch {
	case name == "":
		reason = "empty"
	case name == "." || name == "..":
		reason = "dot_name"
	case len(name) > maxBasenameLen:
		reason = "too_long"
	case strings.ContainsAny(name, `/\`):
		reason = "separator"
	case strings.ContainsFunc(name, unicode.IsControl):
		reason = "control_character"
	}
	if reason != "" {
		slog.Error("security_basename_validation_failed", "name", name, "reason", reason)
		return fmt.Errorf("security: invalid camera file name %q (%s)", name, strings.ReplaceAll(reason, "_", " "))
	}
	return nil
}

// ValidatePath checks a relative path, such as an archive prefix, for
// traversal.
func (v *Validator) ValidatePath(rel string) error {
	// Reject absolute paths
	if filepath.IsAbs(rel) {
		slog.Error("security_path_validation_failed", "path", rel, "reason", "absolute_path")
		return fmt.Errorf("security: absolute path not allowed: %s", rel)
	}

	clean := filepath.Clean(rel)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		slog.Error("security_path_validation_failed", "path", rel, "reason", "path_traversal")
		return fmt.Errorf("security: path traversal detected: %s", rel)
	}

	return nil
}

// ResolveDestination returns where a camera file named basename is
// written inside dir.
func (v *Validator) ResolveDestination(dir, basename string) (string, error) {
	if err := v.ValidateBasename(basename); err != nil {
		return "", err
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("security: resolve output dir %s: %w", dir, err)
	}
	dest := filepath.Join(root, basename)
	if filepath.Dir(dest) != root {
		slog.Error("security_path_validation_failed", "path", dest, "reason", "outside_output_dir")
		return "", fmt.Errorf("security: %s escapes %s", basename, root)
	}
	return dest, nil
}

// ValidateFileSize checks if a file exceeds max file size
func (v *Validator) ValidateFileSize(size int64) error {
	if size > v.maxFileSize {
		slog.Error("security_file_size_exceeded",
			"file_size_mb", size/1024/1024,
			"max_file_size_mb", v.maxFileSize/1024/1024)
		return fmt.Errorf("security: file size %d exceeds max %d", size, v.maxFileSize)
	}
	return nil
}

// AddDownloadedSize tracks the bytes downloaded in this run and checks
// them against the total limit.
func (v *Validator) AddDownloadedSize(size int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.currentTotalSize += size

	if v.currentTotalSize > v.maxTotalSize {
		slog.Error("security_total_size_exceeded",
			"current_total_mb", v.currentTotalSize/1024/1024,
			"max_total_mb", v.maxTotalSize/1024/1024,
			"file_size_mb", size/1024/1024)
		return fmt.Errorf("security: total downloaded size %d exceeds max %d",
			v.currentTotalSize, v.maxTotalSize)
	}

	return nil
}

// Reset resets the total size counter
func (v *Validator) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.currentTotalSize = 0
}

// GetCurrentTotalSize returns the bytes downloaded since the last Reset.
func (v *Validator) GetCurrentTotalSize() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.currentTotalSize
}
