package native

// Status codes returned by libgphoto2. Zero is success, every failure is
// negative. Values below -100 are reported by camera drivers, the rest by
// the library and port layers.
const (
	OK = 0

	Error                     = -1
	ErrorBadParameters        = -2
	ErrorNoMemory             = -3
	ErrorLibrary              = -4
	ErrorUnknownPort          = -5
	ErrorNotSupported         = -6
	ErrorIO                   = -7
	ErrorFixedLimitExceeded   = -8
	ErrorTimeout              = -10
	ErrorIOSupportedSerial    = -20
	ErrorIOSupportedUSB       = -21
	ErrorIOInit               = -31
	ErrorIORead               = -34
	ErrorIOWrite              = -35
	ErrorIOUpdate             = -37
	ErrorIOSerialSpeed        = -41
	ErrorIOUSBClearHalt       = -51
	ErrorIOUSBFind            = -52
	ErrorIOUSBClaim           = -53
	ErrorIOLock               = -60
	ErrorHAL                  = -70
	ErrorCorruptedData        = -102
	ErrorFileExists           = -103
	ErrorModelNotFound        = -105
	ErrorDirectoryNotFound    = -107
	ErrorFileNotFound         = -108
	ErrorDirectoryExists      = -109
	ErrorCameraBusy           = -110
	ErrorPathNotAbsolute      = -111
	ErrorCancel               = -112
	ErrorCameraError          = -113
	ErrorOSFailure            = -114
	ErrorNoSpace              = -115
)

// CaptureType mirrors CameraCaptureType.
type CaptureType int

const (
	CaptureImage CaptureType = 0
	CaptureMovie CaptureType = 1
	CaptureSound CaptureType = 2
)

// FileType mirrors CameraFileType.
type FileType int

const (
	FileTypePreview  FileType = 0
	FileTypeNormal   FileType = 1
	FileTypeRaw      FileType = 2
	FileTypeAudio    FileType = 3
	FileTypeExif     FileType = 4
	FileTypeMetadata FileType = 5
)

// PortType mirrors GPPortType. It is a bit set in the native headers but a
// port info only ever reports one of these.
type PortType int

const (
	PortNone          PortType = 0
	PortSerial        PortType = 1 << 0
	PortUSB           PortType = 1 << 2
	PortDisk          PortType = 1 << 3
	PortPTPIP         PortType = 1 << 4
	PortUSBDiskDirect PortType = 1 << 5
	PortUSBSCSI       PortType = 1 << 6
	PortIP            PortType = 1 << 7
)

// Fixed buffer capacities of the native structures, in bytes.
const (
	FilePathNameCapacity   = 128
	FilePathFolderCapacity = 1024
	TextCapacity           = 32 * 1024
	StorageStringCapacity  = 256
	AbilitiesModelCapacity = 128
	AbilitiesIDCapacity    = 1024
)
