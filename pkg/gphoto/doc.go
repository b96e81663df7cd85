// Package gphoto owns the lifetimes of libgphoto2 objects.
//
// The native library hands out reference-counted pointers and borrowed
// sub-structures and leaves every rule about them to its callers. This
// package is that caller. Each native object has exactly one Go owner
// whose Close releases it once:
//
//   - Session holds one reference to a native context. Retain shares it;
//     the context is freed when the last holder closes.
//   - Camera owns a native camera and holds its own Session reference, so
//     a camera can never outlive its context.
//   - FileMedia and MemoryMedia own a native camera file.
//
// Values that borrow from an owner (port info, text buffers, storage
// arrays) are copied out at the boundary and never retained.
//
// Every native status code is converted to an *Error once, where it was
// returned. Use errors.Is with an ErrorKind to classify:
//
//	if errors.Is(err, gphoto.NotSupported) { ... }
//
// Calls block for as long as the camera takes. Nothing here is safe for
// concurrent use and nothing here starts a goroutine.
//
// A typical run:
//
//	s, err := gphoto.NewSession(drv)
//	defer s.Close()
//	cam, err := gphoto.Open(s)
//	defer cam.Close()
//	file, err := cam.CaptureImage(s)
//	dst, err := gphoto.CreateFileMedia(drv, file.Basename())
//	defer dst.Close()
//	err = cam.Download(s, file, dst)
package gphoto
