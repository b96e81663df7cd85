//go:build gphoto2 && cgo

package gphoto2

/*
#cgo pkg-config: libgphoto2
#include <stdlib.h>
#include <string.h>
#include <gphoto2/gphoto2.h>
*/
import "C"

import (
	"log/slog"
	"sync"
	"unsafe"

	"github.com/fly-io/camctl/pkg/native"
)

// registry maps opaque handles to C pointers so no C address is ever
// stored in a Go integer.
type registry[T any] struct {
	mu   sync.Mutex
	next native.Handle
	m    map[native.Handle]*T
}

func (r *registry[T]) add(p *T) native.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.m == nil {
		r.m = make(map[native.Handle]*T)
	}
	r.next++
	r.m[r.next] = p
	return r.next
}

func (r *registry[T]) get(h native.Handle) *T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[h]
}

func (r *registry[T]) remove(h native.Handle) *T {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.m[h]
	delete(r.m, h)
	return p
}

// Driver calls libgphoto2.
type Driver struct {
	contexts registry[C.GPContext]
	cameras  registry[C.Camera]
	files    registry[C.CameraFile]

	// contextRefs mirrors the library's count so the handle can be
	// dropped from the registry when the last reference goes.
	refMu       sync.Mutex
	contextRefs map[native.Handle]int
}

var _ native.Driver = (*Driver)(nil)

// NewDriver returns the libgphoto2 driver.
func NewDriver() (native.Driver, error) {
	slog.Info("gphoto2_driver_init", "library", "libgphoto2")
	return &Driver{contextRefs: make(map[native.Handle]int)}, nil
}

func (d *Driver) ContextNew() (native.Handle, int) {
	ctx := C.gp_context_new()
	if ctx == nil {
		return 0, native.ErrorNoMemory
	}
	h := d.contexts.add(ctx)
	d.refMu.Lock()
	d.contextRefs[h] = 1
	d.refMu.Unlock()
	return h, native.OK
}

func (d *Driver) ContextRef(ctx native.Handle) {
	p := d.contexts.get(ctx)
	if p == nil {
		return
	}
	d.refMu.Lock()
	d.contextRefs[ctx]++
	d.refMu.Unlock()
	C.gp_context_ref(p)
}

func (d *Driver) ContextUnref(ctx native.Handle) {
	p := d.contexts.get(ctx)
	if p == nil {
		return
	}
	d.refMu.Lock()
	d.contextRefs[ctx]--
	last := d.contextRefs[ctx] == 0
	if last {
		delete(d.contextRefs, ctx)
	}
	d.refMu.Unlock()
	if last {
		d.contexts.remove(ctx)
	}
	C.gp_context_unref(p)
}

func (d *Driver) CameraNew() (native.Handle, int) {
	var cam *C.Camera
	if rc := int(C.gp_camera_new(&cam)); rc != native.OK {
		return 0, rc
	}
	return d.cameras.add(cam), native.OK
}

func (d *Driver) pair(cam, ctx native.Handle) (*C.Camera, *C.GPContext, int) {
	c := d.cameras.get(cam)
	x := d.contexts.get(ctx)
	if c == nil || x == nil {
		return nil, nil, native.ErrorBadParameters
	}
	return c, x, native.OK
}

func (d *Driver) CameraInit(cam, ctx native.Handle) int {
	c, x, rc := d.pair(cam, ctx)
	if rc != native.OK {
		return rc
	}
	return int(C.gp_camera_init(c, x))
}

func (d *Driver) CameraExit(cam, ctx native.Handle) int {
	c, x, rc := d.pair(cam, ctx)
	if rc != native.OK {
		return rc
	}
	return int(C.gp_camera_exit(c, x))
}

func (d *Driver) CameraUnref(cam native.Handle) int {
	c := d.cameras.remove(cam)
	if c == nil {
		return native.ErrorBadParameters
	}
	return int(C.gp_camera_unref(c))
}

func (d *Driver) CameraCapture(cam native.Handle, kind native.CaptureType, ctx native.Handle) (native.FilePath, int) {
	var out native.FilePath
	c, x, rc := d.pair(cam, ctx)
	if rc != native.OK {
		return out, rc
	}
	var path C.CameraFilePath
	if rc := int(C.gp_camera_capture(c, C.CameraCaptureType(kind), &path, x)); rc != native.OK {
		return out, rc
	}
	copy(out.Name[:], C.GoBytes(unsafe.Pointer(&path.name[0]), C.int(len(path.name))))
	copy(out.Folder[:], C.GoBytes(unsafe.Pointer(&path.folder[0]), C.int(len(path.folder))))
	return out, native.OK
}

func (d *Driver) CameraFileGet(cam native.Handle, path native.FilePath, fileType native.FileType, file, ctx native.Handle) int {
	c, x, rc := d.pair(cam, ctx)
	if rc != native.OK {
		return rc
	}
	f := d.files.get(file)
	if f == nil {
		return native.ErrorBadParameters
	}
	folder := C.CString(cstring(path.Folder[:]))
	defer C.free(unsafe.Pointer(folder))
	name := C.CString(cstring(path.Name[:]))
	defer C.free(unsafe.Pointer(name))
	return int(C.gp_camera_file_get(c, folder, name, C.CameraFileType(fileType), f, x))
}

func (d *Driver) CameraPortInfo(cam native.Handle) (native.PortInfo, int) {
	c := d.cameras.get(cam)
	if c == nil {
		return nil, native.ErrorBadParameters
	}
	var info C.GPPortInfo
	if rc := int(C.gp_camera_get_port_info(c, &info)); rc != native.OK {
		return nil, rc
	}
	return portInfo{info: info}, native.OK
}

func (d *Driver) CameraAbilities(cam native.Handle) (native.Abilities, int) {
	var out native.Abilities
	c := d.cameras.get(cam)
	if c == nil {
		return out, native.ErrorBadParameters
	}
	var a C.CameraAbilities
	if rc := int(C.gp_camera_get_abilities(c, &a)); rc != native.OK {
		return out, rc
	}
	copy(out.Model[:], C.GoBytes(unsafe.Pointer(&a.model[0]), C.int(len(a.model))))
	copy(out.Library[:], C.GoBytes(unsafe.Pointer(&a.library[0]), C.int(len(a.library))))
	copy(out.ID[:], C.GoBytes(unsafe.Pointer(&a.id[0]), C.int(len(a.id))))
	out.Status = int(a.status)
	out.Port = int(a.port)
	out.Operations = int(a.operations)
	out.FileOperations = int(a.file_operations)
	out.FolderOperations = int(a.folder_operations)
	out.USBVendor = int(a.usb_vendor)
	out.USBProduct = int(a.usb_product)
	out.USBClass = int(a.usb_class)
	out.DeviceType = int(a.device_type)
	return out, native.OK
}

func (d *Driver) CameraStorageInfo(cam, ctx native.Handle) (native.StorageInfoList, int) {
	c, x, rc := d.pair(cam, ctx)
	if rc != native.OK {
		return nil, rc
	}
	var arr *C.CameraStorageInformation
	var n C.int
	if rc := int(C.gp_camera_get_storageinfo(c, &arr, &n, x)); rc != native.OK {
		return nil, rc
	}
	return &storageList{ptr: arr, n: int(n)}, native.OK
}

func (d *Driver) CameraSummary(cam, ctx native.Handle) (native.Text, int) {
	return d.text(cam, ctx, func(c *C.Camera, t *C.CameraText, x *C.GPContext) C.int {
		return C.gp_camera_get_summary(c, t, x)
	})
}

func (d *Driver) CameraManual(cam, ctx native.Handle) (native.Text, int) {
	return d.text(cam, ctx, func(c *C.Camera, t *C.CameraText, x *C.GPContext) C.int {
		return C.gp_camera_get_manual(c, t, x)
	})
}

func (d *Driver) CameraAbout(cam, ctx native.Handle) (native.Text, int) {
	return d.text(cam, ctx, func(c *C.Camera, t *C.CameraText, x *C.GPContext) C.int {
		return C.gp_camera_get_about(c, t, x)
	})
}

func (d *Driver) text(cam, ctx native.Handle, get func(*C.Camera, *C.CameraText, *C.GPContext) C.int) (native.Text, int) {
	c, x, rc := d.pair(cam, ctx)
	if rc != native.OK {
		return nil, rc
	}
	t := (*C.CameraText)(C.calloc(1, C.sizeof_CameraText))
	if t == nil {
		return nil, native.ErrorNoMemory
	}
	if rc := int(get(c, t, x)); rc != native.OK {
		C.free(unsafe.Pointer(t))
		return nil, rc
	}
	return &text{ptr: t}, native.OK
}

func (d *Driver) FileNewFromFD(fd int) (native.Handle, int) {
	var f *C.CameraFile
	if rc := int(C.gp_file_new_from_fd(&f, C.int(fd))); rc != native.OK {
		return 0, rc
	}
	return d.files.add(f), native.OK
}

func (d *Driver) FileNew() (native.Handle, int) {
	var f *C.CameraFile
	if rc := int(C.gp_file_new(&f)); rc != native.OK {
		return 0, rc
	}
	return d.files.add(f), native.OK
}

func (d *Driver) FileUnref(file native.Handle) {
	if f := d.files.remove(file); f != nil {
		C.gp_file_unref(f)
	}
}

func (d *Driver) FileDataAndSize(file native.Handle) ([]byte, int) {
	f := d.files.get(file)
	if f == nil {
		return nil, native.ErrorBadParameters
	}
	var data *C.char
	var size C.ulong
	if rc := int(C.gp_file_get_data_and_size(f, &data, &size)); rc != native.OK {
		return nil, rc
	}
	if data == nil || size == 0 {
		return nil, native.OK
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(data)), int(size)), native.OK
}

func (d *Driver) ResultAsString(code int) string {
	s := C.gp_result_as_string(C.int(code))
	if s == nil {
		return ""
	}
	return C.GoString(s)
}

type portInfo struct {
	info C.GPPortInfo
}

func (p portInfo) Type() (native.PortType, int) {
	var t C.GPPortType
	if rc := int(C.gp_port_info_get_type(p.info, &t)); rc != native.OK {
		return native.PortNone, rc
	}
	return native.PortType(t), native.OK
}

func (p portInfo) Name() ([]byte, int) {
	var s *C.char
	if rc := int(C.gp_port_info_get_name(p.info, &s)); rc != native.OK {
		return nil, rc
	}
	return borrowCString(s), native.OK
}

func (p portInfo) Path() ([]byte, int) {
	var s *C.char
	if rc := int(C.gp_port_info_get_path(p.info, &s)); rc != native.OK {
		return nil, rc
	}
	return borrowCString(s), native.OK
}

type storageList struct {
	ptr *C.CameraStorageInformation
	n   int
}

func (l *storageList) Len() int { return l.n }

func (l *storageList) At(i int) native.StorageInfo {
	s := unsafe.Slice(l.ptr, l.n)[i]
	out := native.StorageInfo{
		Fields:         int(s.fields),
		Type:           int(s._type),
		FilesystemType: int(s.fstype),
		Access:         int(s.access),
		CapacityKB:     uint64(s.capacitykbytes),
		FreeKB:         uint64(s.freekbytes),
		FreeImages:     uint64(s.freeimages),
	}
	copy(out.BaseDir[:], C.GoBytes(unsafe.Pointer(&s.basedir[0]), C.int(len(s.basedir))))
	copy(out.Label[:], C.GoBytes(unsafe.Pointer(&s.label[0]), C.int(len(s.label))))
	copy(out.Description[:], C.GoBytes(unsafe.Pointer(&s.description[0]), C.int(len(s.description))))
	return out
}

func (l *storageList) Release() {
	if l.ptr != nil {
		C.free(unsafe.Pointer(l.ptr))
		l.ptr = nil
	}
	l.n = 0
}

type text struct {
	ptr *C.CameraText
}

func (t *text) Bytes() []byte {
	if t.ptr == nil {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&t.ptr.text[0])), len(t.ptr.text))
}

func (t *text) Release() {
	if t.ptr != nil {
		C.free(unsafe.Pointer(t.ptr))
		t.ptr = nil
	}
}

// borrowCString returns a view of s including its NUL terminator.
func borrowCString(s *C.char) []byte {
	if s == nil {
		return []byte{0}
	}
	n := int(C.strlen(s))
	return unsafe.Slice((*byte)(unsafe.Pointer(s)), n+1)
}

func cstring(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
