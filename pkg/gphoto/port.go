package gphoto

import (
	"github.com/fly-io/camctl/pkg/native"
)

// PortType is the kind of connection a camera is attached through.
type PortType int

const (
	PortOther PortType = iota
	PortSerial
	PortUSB
	PortDisk
	PortPTPIP
	PortDirect
	PortSCSI
)

func (t PortType) String() string {
	switch t {
	case PortSerial:
		return "Serial"
	case PortUSB:
		return "USB"
	case PortDisk:
		return "Disk"
	case PortPTPIP:
		return "PTPIP"
	case PortDirect:
		return "Direct"
	case PortSCSI:
		return "SCSI"
	default:
		return "Other"
	}
}

func portTypeFromNative(t native.PortType) PortType {
	switch t {
	case native.PortSerial:
		return PortSerial
	case native.PortUSB:
		return PortUSB
	case native.PortDisk:
		return PortDisk
	case native.PortPTPIP:
		return PortPTPIP
	case native.PortUSBDiskDirect:
		return PortDirect
	case native.PortUSBSCSI:
		return PortSCSI
	default:
		return PortOther
	}
}

// Port describes the connection to a camera, for example
//
//	type = USB, name = "Universal Serial Bus", path = "usb:020,007"
//
// The native port info is borrowed from the camera, so Camera.Port copies
// everything out before returning. A Port describes the connection as it
// was while the camera was open.
type Port struct {
	typ  PortType
	name string
	path string
}

// Type returns the port type.
func (p Port) Type() PortType { return p.typ }

// Name returns the port's human-readable name.
func (p Port) Name() string { return p.name }

// Path returns the port path, such as "usb:001,004".
func (p Port) Path() string { return p.path }

// copyPort reads a borrowed port info into a Port. A failing getter on a
// live port info is an invariant violation.
func copyPort(info native.PortInfo) Port {
	typ, code := info.Type()
	mustOK("port_info_get_type", code)
	name, code := info.Name()
	mustOK("port_info_get_name", code)
	path, code := info.Path()
	mustOK("port_info_get_path", code)
	return Port{
		typ:  portTypeFromNative(typ),
		name: lossyString(name),
		path: lossyString(path),
	}
}
