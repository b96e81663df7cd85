package db

// Schema defines the SQLite database schema for capture records.
// One row per camera file, keyed by its folder and name on the camera.
const Schema = `
CREATE TABLE IF NOT EXISTS captures (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    folder TEXT NOT NULL,
    name TEXT NOT NULL,
    status TEXT NOT NULL CHECK(status IN ('pending', 'downloading', 'stored', 'uploaded', 'failed', 'cleaned')),
    file_type TEXT NOT NULL DEFAULT 'normal',
    local_path TEXT,
    sha256 TEXT,
    size INTEGER,
    s3_key TEXT,
    error_message TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(folder, name)
);

CREATE INDEX IF NOT EXISTS idx_captures_status ON captures(status);
CREATE INDEX IF NOT EXISTS idx_captures_created_at ON captures(created_at);
`

// Status constants
const (
	StatusPending     = "pending"
	StatusDownloading = "downloading"
	StatusStored      = "stored"
	StatusUploaded    = "uploaded"
	StatusFailed      = "failed"
	StatusCleaned     = "cleaned"
)

// Capture represents one captured camera file and where it ended up.
type Capture struct {
	ID           int64
	Folder       string
	Name         string
	Status       string
	FileType     string
	LocalPath    string
	SHA256       string
	Size         int64
	S3Key        string
	ErrorMessage string
	CreatedAt    string
	UpdatedAt    string
}
