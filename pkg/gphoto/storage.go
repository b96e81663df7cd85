package gphoto

import (
	"github.com/fly-io/camctl/pkg/native"
)

// StorageType is the physical kind of a storage.
type StorageType int

const (
	StorageUnknown StorageType = iota
	StorageFixedROM
	StorageRemovableROM
	StorageFixedRAM
	StorageRemovableRAM
)

func (t StorageType) String() string {
	switch t {
	case StorageFixedROM:
		return "FixedROM"
	case StorageRemovableROM:
		return "RemovableROM"
	case StorageFixedRAM:
		return "FixedRAM"
	case StorageRemovableRAM:
		return "RemovableRAM"
	default:
		return "Unknown"
	}
}

// FilesystemType is the layout of a storage's filesystem.
type FilesystemType int

const (
	FilesystemUnknown FilesystemType = iota
	FilesystemFlat
	FilesystemHierarchical
	FilesystemDCF
)

func (t FilesystemType) String() string {
	switch t {
	case FilesystemFlat:
		return "Flat"
	case FilesystemHierarchical:
		return "Hierarchical"
	case FilesystemDCF:
		return "DCF"
	default:
		return "Unknown"
	}
}

// AccessType is the access right of a storage.
type AccessType int

const (
	AccessReadWrite AccessType = iota
	AccessReadOnly
	AccessReadOnlyWithDelete
)

func (t AccessType) String() string {
	switch t {
	case AccessReadOnly:
		return "ReadOnly"
	case AccessReadOnlyWithDelete:
		return "ReadOnlyWithDelete"
	default:
		return "ReadWrite"
	}
}

// Validity bits of CameraStorageInfoFields.
const (
	storageFieldBase        = 1 << 0
	storageFieldLabel       = 1 << 1
	storageFieldDescription = 1 << 2
	storageFieldAccess      = 1 << 3
	storageFieldStorageType = 1 << 4
	storageFieldFSType      = 1 << 5
	storageFieldMaxCapacity = 1 << 6
	storageFieldFreeKB      = 1 << 7
	storageFieldFreeImages  = 1 << 8
)

// Storage describes one filesystem on the camera. Only fields whose Has*
// method reports true carry camera-provided values.
type Storage struct {
	fields int

	BaseDir     string
	Label       string
	Description string
	Type        StorageType
	Filesystem  FilesystemType
	Access      AccessType
	CapacityKB  uint64
	FreeKB      uint64
	FreeImages  uint64
}

func (s Storage) HasBaseDir() bool     { return s.fields&storageFieldBase != 0 }
func (s Storage) HasLabel() bool       { return s.fields&storageFieldLabel != 0 }
func (s Storage) HasDescription() bool { return s.fields&storageFieldDescription != 0 }
func (s Storage) HasAccess() bool      { return s.fields&storageFieldAccess != 0 }
func (s Storage) HasType() bool        { return s.fields&storageFieldStorageType != 0 }
func (s Storage) HasFilesystem() bool  { return s.fields&storageFieldFSType != 0 }
func (s Storage) HasCapacity() bool    { return s.fields&storageFieldMaxCapacity != 0 }
func (s Storage) HasFreeKB() bool      { return s.fields&storageFieldFreeKB != 0 }
func (s Storage) HasFreeImages() bool  { return s.fields&storageFieldFreeImages != 0 }

func storageFromNative(info native.StorageInfo) Storage {
	return Storage{
		fields:      info.Fields,
		BaseDir:     lossyString(info.BaseDir[:]),
		Label:       lossyString(info.Label[:]),
		Description: lossyString(info.Description[:]),
		Type:        clampEnum(info.Type, StorageUnknown, StorageRemovableRAM),
		Filesystem:  clampEnum(info.FilesystemType, FilesystemUnknown, FilesystemDCF),
		Access:      clampEnum(info.Access, AccessReadWrite, AccessReadOnlyWithDelete),
		CapacityKB:  info.CapacityKB,
		FreeKB:      info.FreeKB,
		FreeImages:  info.FreeImages,
	}
}

// takeStorage converts a native storage array and releases it. An empty
// array gives an empty, non-nil slice.
func takeStorage(list native.StorageInfoList) []Storage {
	defer list.Release()
	n := list.Len()
	out := make([]Storage, n)
	for i := 0; i < n; i++ {
		out[i] = storageFromNative(list.At(i))
	}
	return out
}

// clampEnum maps out-of-range native values to fallback.
func clampEnum[T ~int](v int, fallback, last T) T {
	if v < int(fallback) || v > int(last) {
		return fallback
	}
	return T(v)
}
