// Package simulated implements native.Driver in process.
//
// It behaves like a single camera attached over USB and keeps the same
// bookkeeping the C library keeps: context reference counts, camera
// init/exit state, descriptor ownership of fd-backed files, and heap
// buffers handed to the caller. Misuse that would be undefined behaviour
// in C (unref of a freed context, double release of a buffer, reading a
// port info after its camera is gone) panics here so tests catch it.
package simulated

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/fly-io/camctl/pkg/native"
	"golang.org/x/sys/unix"
)

// Operation names accepted by FailNext.
const (
	OpContextNew    = "context_new"
	OpCameraNew     = "camera_new"
	OpCameraInit    = "camera_init"
	OpCameraExit    = "camera_exit"
	OpCapture       = "camera_capture"
	OpFileGet       = "camera_file_get"
	OpPortInfo      = "camera_get_port_info"
	OpAbilities     = "camera_get_abilities"
	OpStorageInfo   = "camera_get_storageinfo"
	OpSummary       = "camera_get_summary"
	OpManual        = "camera_get_manual"
	OpAbout         = "camera_get_about"
	OpFileNewFromFD = "file_new_from_fd"
	OpFileNew       = "file_new"
)

// CameraStats records what happened to one camera handle. It survives
// the handle's release.
type CameraStats struct {
	Inits                 int
	Exits                 int
	Captures              int
	Downloads             int
	Unreffed              bool
	UnrefWhileInitialized bool
}

type contextState struct {
	refs int
}

type cameraState struct {
	initialized bool
	seq         int
	files       map[string][]byte
	port        *portInfo
}

type fileState struct {
	fd   int
	data []byte
}

// Driver is a simulated camera stack. It is not safe for concurrent use.
type Driver struct {
	cfg Config

	next     native.Handle
	contexts map[native.Handle]*contextState
	cameras  map[native.Handle]*cameraState
	files    map[native.Handle]*fileState
	stats    map[native.Handle]*CameraStats

	failures      map[string][]int
	freedContexts int
	liveBuffers   int
}

var _ native.Driver = (*Driver)(nil)

// New creates a simulated driver with the given configuration.
func New(cfg Config) *Driver {
	slog.Debug("simulated_driver_init", "model", cfg.Model, "port", cfg.PortPath)
	return &Driver{
		cfg:      cfg,
		contexts: make(map[native.Handle]*contextState),
		cameras:  make(map[native.Handle]*cameraState),
		files:    make(map[native.Handle]*fileState),
		stats:    make(map[native.Handle]*CameraStats),
		failures: make(map[string][]int),
	}
}

// FailNext makes the next call of op return code instead of doing its
// work. Calls queue up per operation.
func (d *Driver) FailNext(op string, code int) {
	d.failures[op] = append(d.failures[op], code)
}

func (d *Driver) injected(op string) (int, bool) {
	q := d.failures[op]
	if len(q) == 0 {
		return native.OK, false
	}
	d.failures[op] = q[1:]
	return q[0], true
}

func (d *Driver) handle() native.Handle {
	d.next++
	return d.next
}

// LiveContexts reports contexts whose reference count has not reached zero.
func (d *Driver) LiveContexts() int { return len(d.contexts) }

// FreedContexts reports how many contexts reached a zero reference count.
func (d *Driver) FreedContexts() int { return d.freedContexts }

// ContextRefs reports the reference count of ctx, zero once freed.
func (d *Driver) ContextRefs(ctx native.Handle) int {
	if c, ok := d.contexts[ctx]; ok {
		return c.refs
	}
	return 0
}

// LiveCameras reports camera handles that have not been unref'd.
func (d *Driver) LiveCameras() int { return len(d.cameras) }

// Stats returns the history of cam.
func (d *Driver) Stats(cam native.Handle) CameraStats {
	if s, ok := d.stats[cam]; ok {
		return *s
	}
	return CameraStats{}
}

// Initialized reports whether cam is currently initialized.
func (d *Driver) Initialized(cam native.Handle) bool {
	c, ok := d.cameras[cam]
	return ok && c.initialized
}

// LiveFiles reports camera files that have not been unref'd.
func (d *Driver) LiveFiles() int { return len(d.files) }

// LiveBuffers reports text buffers and storage arrays not yet released.
func (d *Driver) LiveBuffers() int { return d.liveBuffers }

// StoredFile returns the bytes of a file on the simulated card.
func (d *Driver) StoredFile(cam native.Handle, folder, name string) ([]byte, bool) {
	c, ok := d.cameras[cam]
	if !ok {
		return nil, false
	}
	data, ok := c.files[joinPath(folder, name)]
	return data, ok
}

func (d *Driver) ContextNew() (native.Handle, int) {
	if code, ok := d.injected(OpContextNew); ok {
		return 0, code
	}
	h := d.handle()
	d.contexts[h] = &contextState{refs: 1}
	return h, native.OK
}

func (d *Driver) ContextRef(ctx native.Handle) {
	c, ok := d.contexts[ctx]
	if !ok {
		panic(fmt.Sprintf("simulated: ref of released context %d", ctx))
	}
	c.refs++
}

func (d *Driver) ContextUnref(ctx native.Handle) {
	c, ok := d.contexts[ctx]
	if !ok {
		panic(fmt.Sprintf("simulated: unref of released context %d", ctx))
	}
	c.refs--
	if c.refs == 0 {
		delete(d.contexts, ctx)
		d.freedContexts++
	}
}

func (d *Driver) CameraNew() (native.Handle, int) {
	if code, ok := d.injected(OpCameraNew); ok {
		return 0, code
	}
	h := d.handle()
	d.cameras[h] = &cameraState{files: make(map[string][]byte)}
	d.stats[h] = &CameraStats{}
	return h, native.OK
}

func (d *Driver) lookup(cam, ctx native.Handle) (*cameraState, int) {
	c, ok := d.cameras[cam]
	if !ok {
		return nil, native.ErrorBadParameters
	}
	if _, ok := d.contexts[ctx]; !ok {
		return nil, native.ErrorBadParameters
	}
	return c, native.OK
}

func (d *Driver) ready(cam, ctx native.Handle, op string) (*cameraState, int) {
	c, code := d.lookup(cam, ctx)
	if code != native.OK {
		return nil, code
	}
	if code, ok := d.injected(op); ok {
		return nil, code
	}
	if !c.initialized {
		return nil, native.ErrorIOInit
	}
	return c, native.OK
}

func (d *Driver) CameraInit(cam, ctx native.Handle) int {
	c, code := d.lookup(cam, ctx)
	if code != native.OK {
		return code
	}
	if code, ok := d.injected(OpCameraInit); ok {
		return code
	}
	if !d.cfg.Connected {
		return native.ErrorModelNotFound
	}
	c.initialized = true
	d.stats[cam].Inits++
	return native.OK
}

func (d *Driver) CameraExit(cam, ctx native.Handle) int {
	c, code := d.lookup(cam, ctx)
	if code != native.OK {
		return code
	}
	if code, ok := d.injected(OpCameraExit); ok {
		return code
	}
	if c.initialized {
		c.initialized = false
		d.stats[cam].Exits++
	}
	return native.OK
}

func (d *Driver) CameraUnref(cam native.Handle) int {
	c, ok := d.cameras[cam]
	if !ok {
		panic(fmt.Sprintf("simulated: unref of released camera %d", cam))
	}
	s := d.stats[cam]
	s.Unreffed = true
	s.UnrefWhileInitialized = c.initialized
	if c.port != nil {
		c.port.dead = true
	}
	delete(d.cameras, cam)
	return native.OK
}

func (d *Driver) CameraCapture(cam native.Handle, kind native.CaptureType, ctx native.Handle) (native.FilePath, int) {
	var path native.FilePath
	c, code := d.ready(cam, ctx, OpCapture)
	if code != native.OK {
		return path, code
	}
	if kind != native.CaptureImage {
		return path, native.ErrorNotSupported
	}
	c.seq++
	name := fmt.Sprintf(d.cfg.NamePattern, c.seq)
	c.files[joinPath(d.cfg.Folder, name)] = d.cfg.image(c.seq)
	d.stats[cam].Captures++

	copy(path.Folder[:len(path.Folder)-1], d.cfg.Folder)
	copy(path.Name[:len(path.Name)-1], name)
	return path, native.OK
}

func (d *Driver) CameraFileGet(cam native.Handle, path native.FilePath, fileType native.FileType, file, ctx native.Handle) int {
	c, code := d.ready(cam, ctx, OpFileGet)
	if code != native.OK {
		return code
	}
	f, ok := d.files[file]
	if !ok {
		return native.ErrorBadParameters
	}
	data, ok := c.files[joinPath(cstring(path.Folder[:]), cstring(path.Name[:]))]
	if !ok {
		return native.ErrorFileNotFound
	}

	switch fileType {
	case native.FileTypeNormal:
	case native.FileTypePreview:
		data = data[:len(data)/4]
	default:
		return native.ErrorNotSupported
	}

	if f.fd >= 0 {
		if err := writeAll(f.fd, data); err != nil {
			return native.ErrorOSFailure
		}
	} else {
		f.data = append(f.data[:0], data...)
	}
	d.stats[cam].Downloads++
	return native.OK
}

func (d *Driver) CameraPortInfo(cam native.Handle) (native.PortInfo, int) {
	c, ok := d.cameras[cam]
	if !ok {
		return nil, native.ErrorBadParameters
	}
	if code, ok := d.injected(OpPortInfo); ok {
		return nil, code
	}
	if c.port == nil {
		c.port = &portInfo{
			typ:  d.cfg.PortType,
			name: []byte(d.cfg.PortName + "\x00"),
			path: []byte(d.cfg.PortPath + "\x00"),
		}
	}
	return c.port, native.OK
}

func (d *Driver) CameraAbilities(cam native.Handle) (native.Abilities, int) {
	var a native.Abilities
	if _, ok := d.cameras[cam]; !ok {
		return a, native.ErrorBadParameters
	}
	if code, ok := d.injected(OpAbilities); ok {
		return a, code
	}
	return d.cfg.abilities(), native.OK
}

func (d *Driver) CameraStorageInfo(cam, ctx native.Handle) (native.StorageInfoList, int) {
	if _, code := d.ready(cam, ctx, OpStorageInfo); code != native.OK {
		return nil, code
	}
	d.liveBuffers++
	return &storageList{owner: d, items: append([]native.StorageInfo(nil), d.cfg.Storage...)}, native.OK
}

func (d *Driver) CameraSummary(cam, ctx native.Handle) (native.Text, int) {
	return d.text(cam, ctx, OpSummary, d.cfg.Summary)
}

func (d *Driver) CameraManual(cam, ctx native.Handle) (native.Text, int) {
	return d.text(cam, ctx, OpManual, d.cfg.Manual)
}

func (d *Driver) CameraAbout(cam, ctx native.Handle) (native.Text, int) {
	return d.text(cam, ctx, OpAbout, d.cfg.About)
}

func (d *Driver) text(cam, ctx native.Handle, op string, content []byte) (native.Text, int) {
	if _, code := d.ready(cam, ctx, op); code != native.OK {
		return nil, code
	}
	if content == nil {
		return nil, native.ErrorNotSupported
	}
	t := &textBuffer{owner: d}
	copy(t.buf[:len(t.buf)-1], content)
	d.liveBuffers++
	return t, native.OK
}

func (d *Driver) FileNewFromFD(fd int) (native.Handle, int) {
	if code, ok := d.injected(OpFileNewFromFD); ok {
		return 0, code
	}
	if fd < 0 {
		return 0, native.ErrorBadParameters
	}
	h := d.handle()
	d.files[h] = &fileState{fd: fd}
	return h, native.OK
}

func (d *Driver) FileNew() (native.Handle, int) {
	if code, ok := d.injected(OpFileNew); ok {
		return 0, code
	}
	h := d.handle()
	d.files[h] = &fileState{fd: -1}
	return h, native.OK
}

func (d *Driver) FileUnref(file native.Handle) {
	f, ok := d.files[file]
	if !ok {
		panic(fmt.Sprintf("simulated: unref of released file %d", file))
	}
	if f.fd >= 0 {
		_ = unix.Close(f.fd)
	}
	delete(d.files, file)
}

func (d *Driver) FileDataAndSize(file native.Handle) ([]byte, int) {
	f, ok := d.files[file]
	if !ok {
		return nil, native.ErrorBadParameters
	}
	if f.fd < 0 {
		return f.data, native.OK
	}
	data, err := readAll(f.fd)
	if err != nil {
		return nil, native.ErrorOSFailure
	}
	return data, native.OK
}

func (d *Driver) ResultAsString(code int) string {
	return messages[code]
}

type portInfo struct {
	typ  native.PortType
	name []byte
	path []byte
	dead bool
}

func (p *portInfo) check() {
	if p.dead {
		panic("simulated: port info used after its camera was released")
	}
}

func (p *portInfo) Type() (native.PortType, int) {
	p.check()
	return p.typ, native.OK
}

func (p *portInfo) Name() ([]byte, int) {
	p.check()
	return p.name, native.OK
}

func (p *portInfo) Path() ([]byte, int) {
	p.check()
	return p.path, native.OK
}

type storageList struct {
	owner    *Driver
	items    []native.StorageInfo
	released bool
}

func (l *storageList) Len() int { return len(l.items) }

func (l *storageList) At(i int) native.StorageInfo {
	if l.released {
		panic("simulated: storage array read after release")
	}
	return l.items[i]
}

func (l *storageList) Release() {
	if l.released {
		panic("simulated: storage array released twice")
	}
	l.released = true
	l.items = nil
	l.owner.liveBuffers--
}

type textBuffer struct {
	owner    *Driver
	buf      [native.TextCapacity]byte
	released bool
}

func (t *textBuffer) Bytes() []byte {
	if t.released {
		panic("simulated: text buffer read after release")
	}
	return t.buf[:]
}

func (t *textBuffer) Release() {
	if t.released {
		panic("simulated: text buffer released twice")
	}
	t.released = true
	t.owner.liveBuffers--
}

func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func joinPath(folder, name string) string {
	if len(folder) > 0 && folder[len(folder)-1] == '/' {
		return folder + name
	}
	return folder + "/" + name
}

func writeAll(fd int, data []byte) error {
	for len(data) > 0 {
		n, err := unix.Write(fd, data)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return err
		}
		data = data[n:]
	}
	return nil
}

func readAll(fd int) ([]byte, error) {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return nil, err
	}
	data := make([]byte, st.Size)
	off := 0
	for off < len(data) {
		n, err := unix.Pread(fd, data[off:], int64(off))
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return nil, err
		}
		if n == 0 {
			break
		}
		off += n
	}
	return data[:off], nil
}
