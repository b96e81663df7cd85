package fsm

// CaptureRequest is the FSM input
type CaptureRequest struct {
	RunID string

	// Folder and Name select a file already on the camera. When empty the
	// workflow captures a new image.
	Folder string
	Name   string
}

// CaptureResponse is the FSM output (accumulated across transitions)
type CaptureResponse struct {
	// From Capture
	CaptureID int64
	Folder    string
	Name      string

	// From Download
	LocalPath string
	SHA256    string
	Size      int64

	// From Upload
	S3Key string

	// From Complete/Failed
	Status       string
	ErrorMessage string
}

// State names
const (
	StateCapture  = "capture"
	StateDownload = "download"
	StateUpload   = "upload"
	StateComplete = "complete"
	StateFailed   = "failed"
)
