package gphoto

import (
	"strings"

	"github.com/fly-io/camctl/pkg/native"
)

// DriverStatus is the maturity of the camera driver.
type DriverStatus int

const (
	DriverProduction DriverStatus = iota
	DriverTesting
	DriverExperimental
	DriverDeprecated
)

func (s DriverStatus) String() string {
	switch s {
	case DriverProduction:
		return "Production"
	case DriverTesting:
		return "Testing"
	case DriverExperimental:
		return "Experimental"
	case DriverDeprecated:
		return "Deprecated"
	default:
		return "Unknown"
	}
}

// DeviceType tells still cameras from audio players.
type DeviceType int

const (
	DeviceStillCamera DeviceType = 0
	DeviceAudioPlayer DeviceType = 1 << 0
)

func (t DeviceType) String() string {
	if t == DeviceAudioPlayer {
		return "AudioPlayer"
	}
	return "StillCamera"
}

// CameraOperation is a set of operations the camera supports.
type CameraOperation int

const (
	OperationCaptureImage   CameraOperation = 1 << 0
	OperationCaptureVideo   CameraOperation = 1 << 1
	OperationCaptureAudio   CameraOperation = 1 << 2
	OperationCapturePreview CameraOperation = 1 << 3
	OperationConfig         CameraOperation = 1 << 4
	OperationTriggerCapture CameraOperation = 1 << 5
)

// FileOperation is a set of operations the camera supports on files.
type FileOperation int

const (
	FileOperationDelete  FileOperation = 1 << 1
	FileOperationPreview FileOperation = 1 << 3
	FileOperationRaw     FileOperation = 1 << 4
	FileOperationAudio   FileOperation = 1 << 5
	FileOperationExif    FileOperation = 1 << 6
)

// FolderOperation is a set of operations the camera supports on folders.
type FolderOperation int

const (
	FolderOperationDeleteAll FolderOperation = 1 << 0
	FolderOperationPutFile   FolderOperation = 1 << 1
	FolderOperationMakeDir   FolderOperation = 1 << 2
	FolderOperationRemoveDir FolderOperation = 1 << 3
)

var cameraOperationNames = []struct {
	op   CameraOperation
	name string
}{
	{OperationCaptureImage, "capture_image"},
	{OperationCaptureVideo, "capture_video"},
	{OperationCaptureAudio, "capture_audio"},
	{OperationCapturePreview, "capture_preview"},
	{OperationConfig, "config"},
	{OperationTriggerCapture, "trigger_capture"},
}

func (o CameraOperation) String() string {
	var names []string
	for _, n := range cameraOperationNames {
		if o&n.op != 0 {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// Abilities are the static capabilities of a camera model.
type Abilities struct {
	Model            string
	Library          string
	ID               string
	Status           DriverStatus
	DeviceType       DeviceType
	Operations       CameraOperation
	FileOperations   FileOperation
	FolderOperations FolderOperation
	USBVendor        int
	USBProduct       int
	USBClass         int

	ports native.PortType
}

// Can reports whether every operation in op is supported.
func (a Abilities) Can(op CameraOperation) bool { return a.Operations&op == op }

// CanFile reports whether every file operation in op is supported.
func (a Abilities) CanFile(op FileOperation) bool { return a.FileOperations&op == op }

// CanFolder reports whether every folder operation in op is supported.
func (a Abilities) CanFolder(op FolderOperation) bool { return a.FolderOperations&op == op }

// SupportsPort reports whether the model can be reached over t.
func (a Abilities) SupportsPort(t PortType) bool {
	for _, nt := range []native.PortType{
		native.PortSerial, native.PortUSB, native.PortDisk,
		native.PortPTPIP, native.PortUSBDiskDirect, native.PortUSBSCSI,
	} {
		if a.ports&nt != 0 && portTypeFromNative(nt) == t {
			return true
		}
	}
	return false
}

func abilitiesFromNative(a native.Abilities) Abilities {
	return Abilities{
		Model:            lossyString(a.Model[:]),
		Library:          lossyString(a.Library[:]),
		ID:               lossyString(a.ID[:]),
		Status:           clampEnum(a.Status, DriverProduction, DriverDeprecated),
		DeviceType:       DeviceType(a.DeviceType & int(DeviceAudioPlayer)),
		Operations:       CameraOperation(a.Operations),
		FileOperations:   FileOperation(a.FileOperations),
		FolderOperations: FolderOperation(a.FolderOperations),
		USBVendor:        a.USBVendor,
		USBProduct:       a.USBProduct,
		USBClass:         a.USBClass,
		ports:            native.PortType(a.Port),
	}
}
