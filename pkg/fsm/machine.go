// Package fsm implements the durable capture workflow.
// It captures an image on the camera, downloads it into the output
// directory, archives it in S3 and records every step in the capture
// database, using the superfly/fsm library.
package fsm

import (
	"context"
	"errors"

	perrors "github.com/fly-io/camctl/pkg/errors"
	"github.com/fly-io/camctl/pkg/gphoto"
	"github.com/superfly/fsm"
)

// WorkflowName is the name the capture FSM is registered under.
const WorkflowName = "camera-capture"

// Register registers the capture FSM
func (m *Machine) Register(ctx context.Context, manager *fsm.Manager) (fsm.Start[CaptureRequest, CaptureResponse], fsm.Resume, error) {
	start, resume, err := fsm.Register[CaptureRequest, CaptureResponse](manager, WorkflowName).
		Start(StateCapture, m.handleCapture).
		To(StateDownload, m.handleDownload).
		To(StateUpload, m.handleUpload).
		To(StateComplete, m.handleComplete).
		End(StateFailed).
		Build(ctx)

	if err != nil {
		return nil, nil, perrors.Wrap(err, "failed to register FSM")
	}

	return start, resume, nil
}

// IsCameraError reports whether err came from the camera layer. Those
// are never retried.
func IsCameraError(err error) bool {
	var gerr *gphoto.Error
	return errors.As(err, &gerr)
}
