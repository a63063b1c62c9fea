package usb

import (
	"os"
	"runtime"
	"sync"
	"time"
	"unsafe"

	"github.com/juju/errors"
	"golang.org/x/sys/unix"
)

// ioctl numbers from linux/usbdevice_fs.h
// Struct sizes differ between 32 and 64 bit, so numbers are computed.
var (
	usbdevfsControl          = iowr(0, unsafe.Sizeof(ctrlTransfer{}))
	usbdevfsBulk             = iowr(2, unsafe.Sizeof(bulkTransfer{}))
	usbdevfsClaimInterface   = ior(15, 4)
	usbdevfsReleaseInterface = ior(16, 4)
	usbdevfsIoctl            = iowr(18, unsafe.Sizeof(usbIoctl{}))
)

const (
	usbdevfsReset      = 'U'<<8 | 20
	usbdevfsDisconnect = 'U'<<8 | 22
)

func ior(nr, size uintptr) uintptr  { return 2<<30 | size<<16 | 'U'<<8 | nr }
func iowr(nr, size uintptr) uintptr { return 3<<30 | size<<16 | 'U'<<8 | nr }

const controlTimeoutMs = 1000

type ctrlTransfer struct {
	RequestType uint8
	Request     uint8
	Value       uint16
	Index       uint16
	Length      uint16
	Timeout     uint32
	Data        uintptr
}

type bulkTransfer struct {
	Endpoint uint32
	Length   uint32
	Timeout  uint32
	Data     uintptr
}

type usbIoctl struct {
	Interface int32
	Code      int32
	Data      uintptr
}

type devfs struct {
	lk    sync.Mutex
	f     *os.File
	iface uint32
}

// OpenDevfs opens usbfs node like /dev/bus/usb/001/004 and claims interface,
// detaching kernel driver if one is bound.
func OpenDevfs(path string, iface int) (Transport, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.Annotatef(err, "usb open path=%s", path)
	}
	self := &devfs{f: f, iface: uint32(iface)}

	disc := usbIoctl{Interface: int32(iface), Code: usbdevfsDisconnect}
	// ENODATA means no driver bound, fine
	_ = self.ioctl(usbdevfsIoctl, unsafe.Pointer(&disc))

	if err = self.ioctl(usbdevfsClaimInterface, unsafe.Pointer(&self.iface)); err != nil {
		f.Close()
		return nil, errors.Annotatef(err, "usb claim interface=%d path=%s", iface, path)
	}
	return self, nil
}

func (self *devfs) ioctl(req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, self.f.Fd(), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func (self *devfs) Reset() error {
	self.lk.Lock()
	defer self.lk.Unlock()
	if self.f == nil {
		return ErrClosed
	}
	return errors.Annotate(self.ioctl(usbdevfsReset, nil), "usb reset")
}

func (self *devfs) Control(requestType, request uint8, value, index uint16, data []byte) (int, error) {
	self.lk.Lock()
	defer self.lk.Unlock()
	if self.f == nil {
		return 0, ErrClosed
	}
	ct := ctrlTransfer{
		RequestType: requestType,
		Request:     request,
		Value:       value,
		Index:       index,
		Length:      uint16(len(data)),
		Timeout:     controlTimeoutMs,
	}
	if len(data) > 0 {
		ct.Data = uintptr(unsafe.Pointer(&data[0]))
	}
	n, _, errno := unix.Syscall(unix.SYS_IOCTL, self.f.Fd(), usbdevfsControl, uintptr(unsafe.Pointer(&ct)))
	runtime.KeepAlive(data)
	if errno != 0 {
		return 0, errors.Annotatef(errno, "usb control type=%02x request=%02x value=%04x", requestType, request, value)
	}
	return int(n), nil
}

func (self *devfs) bulk(endpoint uint8, buf []byte, timeout time.Duration) (int, error) {
	if self.f == nil {
		return 0, ErrClosed
	}
	bt := bulkTransfer{
		Endpoint: uint32(endpoint),
		Length:   uint32(len(buf)),
		Timeout:  uint32(timeout / time.Millisecond),
	}
	if len(buf) > 0 {
		bt.Data = uintptr(unsafe.Pointer(&buf[0]))
	}
	n, _, errno := unix.Syscall(unix.SYS_IOCTL, self.f.Fd(), usbdevfsBulk, uintptr(unsafe.Pointer(&bt)))
	runtime.KeepAlive(buf)
	if errno != 0 {
		return 0, errno
	}
	return int(n), nil
}

func (self *devfs) Write(endpoint uint8, data []byte) (int, error) {
	self.lk.Lock()
	defer self.lk.Unlock()
	n, err := self.bulk(endpoint, data, time.Second)
	if err == unix.ETIMEDOUT {
		return n, nil
	}
	return n, errors.Annotatef(err, "usb write ep=%02x", endpoint)
}

func (self *devfs) Read(endpoint uint8, max int, timeout time.Duration) ([]byte, error) {
	self.lk.Lock()
	defer self.lk.Unlock()
	buf := make([]byte, max)
	n, err := self.bulk(endpoint, buf, timeout)
	if err == unix.ETIMEDOUT {
		return buf[:0], nil
	}
	if err != nil {
		return nil, errors.Annotatef(err, "usb read ep=%02x", endpoint)
	}
	return buf[:n], nil
}

func (self *devfs) Close() error {
	self.lk.Lock()
	defer self.lk.Unlock()
	if self.f == nil {
		return nil
	}
	_ = self.ioctl(usbdevfsReleaseInterface, unsafe.Pointer(&self.iface))
	err := self.f.Close()
	self.f = nil
	return errors.Trace(err)
}
