package simulated

import (
	"github.com/fly-io/camctl/pkg/native"
)

// Config describes the simulated camera.
type Config struct {
	// Connected is false to simulate autodetection finding nothing.
	Connected bool

	Model    string
	Library  string
	PortType native.PortType
	PortName string
	PortPath string

	// Folder and NamePattern name captured files. NamePattern takes the
	// capture sequence number.
	Folder      string
	NamePattern string
	ImageSize   int

	// A nil text reports the feature as not supported.
	Summary []byte
	Manual  []byte
	About   []byte

	Storage []native.StorageInfo
}

// DefaultConfig describes a connected PTP camera with one memory card.
func DefaultConfig() Config {
	card := native.StorageInfo{
		Fields:         0x1ff,
		Type:           4, // removable RAM
		FilesystemType: 3, // DCF
		Access:         0, // read/write
		CapacityKB:     31250000,
		FreeKB:         29000000,
		FreeImages:     4200,
	}
	copy(card.BaseDir[:], "/store_00010001")
	copy(card.Label[:], "SD")
	copy(card.Description[:], "SD card slot")

	return Config{
		Connected:   true,
		Model:       "Simulated PTP Camera",
		Library:     "ptp2",
		PortType:    native.PortUSB,
		PortName:    "Universal Serial Bus",
		PortPath:    "usb:001,004",
		Folder:      "/store_00010001/DCIM/100CANON",
		NamePattern: "IMG_%04d.JPG",
		ImageSize:   8192,
		Summary:     []byte("Manufacturer: Simulated\nModel: PTP Camera\nShutter count: 0\n"),
		About:       []byte("Simulated driver for tests and dry runs.\n"),
		Storage:     []native.StorageInfo{card},
	}
}

// image produces deterministic JPEG-looking bytes for capture seq.
func (c Config) image(seq int) []byte {
	size := c.ImageSize
	if size < 4 {
		size = 4
	}
	data := make([]byte, size)
	for i := range data {
		data[i] = byte((i*31 + seq*7) % 251)
	}
	data[0], data[1] = 0xff, 0xd8
	data[size-2], data[size-1] = 0xff, 0xd9
	return data
}

func (c Config) abilities() native.Abilities {
	a := native.Abilities{
		Status:           0,   // production
		Port:             int(c.PortType),
		Operations:       0x31, // capture image, config, trigger capture
		FileOperations:   0x0a, // delete, preview
		FolderOperations: 0x0e, // put file, make dir, remove dir
		USBVendor:        0x04a9,
		USBProduct:       0x3218,
		USBClass:         6,
		DeviceType:       0,
	}
	copy(a.Model[:len(a.Model)-1], c.Model)
	copy(a.Library[:len(a.Library)-1], c.Library)
	copy(a.ID[:len(a.ID)-1], c.Library)
	return a
}

var messages = map[int]string{
	native.OK:                     "No error",
	native.Error:                  "Unspecified error",
	native.ErrorBadParameters:     "Bad parameters",
	native.ErrorNoMemory:          "Out of memory",
	native.ErrorLibrary:           "Error loading a library",
	native.ErrorUnknownPort:       "Unknown port",
	native.ErrorNotSupported:      "Unsupported operation",
	native.ErrorIO:                "I/O problem",
	native.ErrorTimeout:           "Timeout reading from or writing to the port",
	native.ErrorIOInit:            "Could not initialize port",
	native.ErrorCorruptedData:     "Corrupted data",
	native.ErrorFileExists:        "File already exists",
	native.ErrorModelNotFound:     "Unknown model",
	native.ErrorDirectoryNotFound: "Directory not found",
	native.ErrorFileNotFound:      "File not found",
	native.ErrorDirectoryExists:   "Directory exists",
	native.ErrorCameraBusy:        "I/O in progress",
	native.ErrorPathNotAbsolute:   "Path not absolute",
	native.ErrorCancel:            "Cancelled",
	native.ErrorCameraError:       "Camera error",
	native.ErrorOSFailure:         "OS error",
	native.ErrorNoSpace:           "Not enough space",
}
