// Package native describes the boundary with the libgphoto2 driver stack.
//
// Nothing in this package enforces lifetimes. A Driver hands out opaque
// handles and raw fixed-size records exactly the way the C library does,
// and every rule about who releases what, and when, is the caller's
// problem. Package gphoto is that caller.
package native

// Handle is an opaque reference to a native object (context, camera or
// camera file). The zero Handle is never valid.
type Handle uintptr

// FilePath mirrors CameraFilePath: two NUL-terminated fixed buffers.
type FilePath struct {
	Name   [FilePathNameCapacity]byte
	Folder [FilePathFolderCapacity]byte
}

// PortInfo is a borrowed view of the port a camera is attached to. It is
// owned by the camera and must not be used after the camera is unref'd.
// The byte slices alias native memory.
type PortInfo interface {
	Type() (PortType, int)
	Name() ([]byte, int)
	Path() ([]byte, int)
}

// Abilities mirrors CameraAbilities. It is returned by value.
type Abilities struct {
	Model            [AbilitiesModelCapacity]byte
	Status           int
	Port             int
	Operations       int
	FileOperations   int
	FolderOperations int
	USBVendor        int
	USBProduct       int
	USBClass         int
	Library          [AbilitiesIDCapacity]byte
	ID               [AbilitiesIDCapacity]byte
	DeviceType       int
}

// StorageInfo mirrors CameraStorageInformation.
type StorageInfo struct {
	Fields         int
	BaseDir        [StorageStringCapacity]byte
	Label          [StorageStringCapacity]byte
	Description    [StorageStringCapacity]byte
	Type           int
	FilesystemType int
	Access         int
	CapacityKB     uint64
	FreeKB         uint64
	FreeImages     uint64
}

// StorageInfoList is a heap array allocated by the driver. The receiver
// owns it and must call Release exactly once; At is invalid afterwards.
type StorageInfoList interface {
	Len() int
	At(i int) StorageInfo
	Release()
}

// Text is a CameraText buffer allocated for one call. Bytes aliases the
// whole fixed buffer, NUL terminator and trailing garbage included. The
// receiver owns it and must call Release exactly once.
type Text interface {
	Bytes() []byte
	Release()
}

// Driver is the native call surface. Integer results are libgphoto2
// status codes. Implementations are not safe for concurrent use unless
// the underlying library is.
type Driver interface {
	// ContextNew returns a context with one reference, or ErrorNoMemory.
	ContextNew() (Handle, int)
	ContextRef(ctx Handle)
	ContextUnref(ctx Handle)

	CameraNew() (Handle, int)
	CameraInit(cam, ctx Handle) int
	CameraExit(cam, ctx Handle) int
	CameraUnref(cam Handle) int

	CameraCapture(cam Handle, kind CaptureType, ctx Handle) (FilePath, int)
	CameraFileGet(cam Handle, path FilePath, fileType FileType, file, ctx Handle) int
	CameraPortInfo(cam Handle) (PortInfo, int)
	CameraAbilities(cam Handle) (Abilities, int)
	CameraStorageInfo(cam, ctx Handle) (StorageInfoList, int)
	CameraSummary(cam, ctx Handle) (Text, int)
	CameraManual(cam, ctx Handle) (Text, int)
	CameraAbout(cam, ctx Handle) (Text, int)

	// FileNewFromFD takes ownership of fd on success only.
	FileNewFromFD(fd int) (Handle, int)
	FileNew() (Handle, int)
	FileUnref(file Handle)
	// FileDataAndSize returns a view of the file's memory buffer, valid
	// until the next call on the file.
	FileDataAndSize(file Handle) ([]byte, int)

	// ResultAsString returns "" where the library would return NULL.
	ResultAsString(code int) string
}
