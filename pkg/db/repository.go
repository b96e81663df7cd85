package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/fly-io/camctl/pkg/errors"
	_ "modernc.org/sqlite"
)

const captureColumns = `id, folder, name, status, file_type, local_path, sha256, size, s3_key, error_message, created_at, updated_at`

// Repository provides database operations for capture records
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new repository
func NewRepository(dbPath string) (*Repository, error) {
	slog.Info("database_init", "db_path", dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		slog.Error("database_open_failed", "db_path", dbPath, "error", err)
		return nil, errors.Wrap(err, "failed to open database")
	}

	slog.Info("database_create_schema", "db_path", dbPath)
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		slog.Error("database_schema_failed", "db_path", dbPath, "error", err)
		return nil, errors.Wrap(err, "failed to create schema")
	}

	slog.Info("database_ready", "db_path", dbPath)
	return &Repository{db: db}, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// Create inserts a new capture record
func (r *Repository) Create(ctx context.Context, c *Capture) error {
	slog.Info("database_create_capture", "folder", c.Folder, "name", c.Name, "status", c.Status)

	if c.FileType == "" {
		c.FileType = "normal"
	}
	query := `
		INSERT INTO captures (folder, name, status, file_type, local_path, sha256, size, s3_key, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		c.Folder, c.Name, c.Status, c.FileType,
		c.LocalPath, c.SHA256, c.Size, c.S3Key, c.ErrorMessage)
	if err != nil {
		slog.Error("database_insert_failed", "folder", c.Folder, "name", c.Name, "error", err)
		return errors.Wrap(err, "failed to insert capture")
	}

	id, err := result.LastInsertId()
	if err != nil {
		slog.Error("database_last_insert_id_failed", "name", c.Name, "error", err)
		return errors.Wrap(err, "failed to get last insert id")
	}
	c.ID = id

	slog.Info("database_capture_created", "capture_id", c.ID, "status", c.Status)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCapture(row scanner) (*Capture, error) {
	var c Capture
	var localPath, sha, s3Key, errorMessage sql.NullString
	var size sql.NullInt64

	err := row.Scan(
		&c.ID, &c.Folder, &c.Name, &c.Status, &c.FileType,
		&localPath, &sha, &size, &s3Key, &errorMessage,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	// Handle nullable fields
	c.LocalPath = localPath.String
	c.SHA256 = sha.String
	c.Size = size.Int64
	c.S3Key = s3Key.String
	c.ErrorMessage = errorMessage.String
	return &c, nil
}

// Get retrieves a capture by ID. It returns nil, nil if there is none.
func (r *Repository) Get(ctx context.Context, id int64) (*Capture, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+captureColumns+` FROM captures WHERE id = ?`, id)
	c, err := scanCapture(row)
	if err == sql.ErrNoRows {
		slog.Info("database_capture_not_found", "capture_id", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("database_query_failed", "capture_id", id, "error", err)
		return nil, errors.Wrap(err, "failed to query capture")
	}
	return c, nil
}

// GetByPath retrieves a capture by its camera folder and name. It returns
// nil, nil if there is none.
func (r *Repository) GetByPath(ctx context.Context, folder, name string) (*Capture, error) {
	slog.Info("database_query_capture", "folder", folder, "name", name)

	row := r.db.QueryRowContext(ctx, `SELECT `+captureColumns+` FROM captures WHERE folder = ? AND name = ?`, folder, name)
	c, err := scanCapture(row)
	if err == sql.ErrNoRows {
		slog.Info("database_capture_not_found", "folder", folder, "name", name)
		return nil, nil
	}
	if err != nil {
		slog.Error("database_query_failed", "folder", folder, "name", name, "error", err)
		return nil, errors.Wrap(err, "failed to query capture")
	}

	slog.Info("database_capture_found", "capture_id", c.ID, "status", c.Status)
	return c, nil
}

// Update updates an existing capture record
func (r *Repository) Update(ctx context.Context, c *Capture) error {
	slog.Info("database_update_capture", "capture_id", c.ID, "status", c.Status)

	query := `
		UPDATE captures
		SET status = ?, file_type = ?, local_path = ?, sha256 = ?, size = ?, s3_key = ?,
		    error_message = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		c.Status, c.FileType, c.LocalPath, c.SHA256, c.Size, c.S3Key, c.ErrorMessage, c.ID)
	if err != nil {
		slog.Error("database_update_failed", "capture_id", c.ID, "error", err)
		return errors.Wrap(err, "failed to update capture")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		slog.Error("database_rows_affected_failed", "capture_id", c.ID, "error", err)
		return errors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		slog.Error("database_capture_not_found_for_update", "capture_id", c.ID)
		return fmt.Errorf("capture not found: id=%d", c.ID)
	}

	slog.Info("database_capture_updated", "capture_id", c.ID, "status", c.Status)
	return nil
}

// UpdateStatus updates only the status field
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status, errorMessage string) error {
	slog.Info("database_update_status", "capture_id", id, "status", status)

	query := `UPDATE captures SET status = ?, error_message = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, status, errorMessage, id)
	if err != nil {
		slog.Error("database_status_update_failed", "capture_id", id, "status", status, "error", err)
		return errors.Wrap(err, "failed to update status")
	}

	slog.Info("database_status_updated", "capture_id", id, "status", status)
	return nil
}

// List retrieves captures, newest first. An empty status lists all.
func (r *Repository) List(ctx context.Context, status string) ([]*Capture, error) {
	slog.Info("database_list_captures", "status", status)

	query := `SELECT ` + captureColumns + ` FROM captures`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Error("database_list_query_failed", "error", err)
		return nil, errors.Wrap(err, "failed to list captures")
	}
	defer rows.Close()

	var captures []*Capture
	for rows.Next() {
		c, err := scanCapture(rows)
		if err != nil {
			slog.Error("database_scan_row_failed", "error", err)
			return nil, errors.Wrap(err, "failed to scan row")
		}
		captures = append(captures, c)
	}

	if err := rows.Err(); err != nil {
		slog.Error("database_rows_error", "error", err)
		return nil, errors.Wrap(err, "rows error")
	}

	slog.Info("database_list_complete", "capture_count", len(captures))
	return captures, nil
}

// Delete deletes a capture by ID
func (r *Repository) Delete(ctx context.Context, id int64) error {
	slog.Info("database_delete_capture", "capture_id", id)

	_, err := r.db.ExecContext(ctx, `DELETE FROM captures WHERE id = ?`, id)
	if err != nil {
		slog.Error("database_delete_failed", "capture_id", id, "error", err)
		return errors.Wrap(err, "failed to delete capture")
	}

	slog.Info("database_capture_deleted", "capture_id", id)
	return nil
}
