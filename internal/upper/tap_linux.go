//go:build linux

package upper

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	tunDevicePath = "/dev/net/tun"
	ifNameSize    = 16
)

// ifreq mirrors struct ifreq's ifr_name/ifr_flags prefix, enough to
// drive TUNSETIFF.
type ifreq struct {
	name  [ifNameSize]byte
	flags uint16
	_     [22]byte // pad to sizeof(struct ifreq)
}

// TAPDevice is a Linux TAP network device carrying Ethernet frames
// between the access point's data plane and the host networking stack.
type TAPDevice struct {
	file *os.File
	Name string
}

// OpenTAP creates (or attaches to) a TAP interface named name. An empty
// name lets the kernel pick one (e.g. "tap0").
func OpenTAP(name string) (*TAPDevice, error) {
	file, err := os.OpenFile(tunDevicePath, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("upper: opening %s: %w", tunDevicePath, err)
	}

	var req ifreq
	copy(req.name[:], name)
	req.flags = unix.IFF_TAP | unix.IFF_NO_PI

	if err := ioctl(file.Fd(), unix.TUNSETIFF, uintptr(unsafe.Pointer(&req))); err != nil {
		file.Close()
		return nil, fmt.Errorf("upper: TUNSETIFF: %w", err)
	}

	actualName := string(req.name[:])
	if idx := indexZero(req.name[:]); idx >= 0 {
		actualName = string(req.name[:idx])
	}

	return &TAPDevice{file: file, Name: actualName}, nil
}

// Deliver writes one Ethernet frame to the TAP device (ap.UpperNetwork).
func (t *TAPDevice) Deliver(frame []byte) error {
	_, err := t.file.Write(frame)
	return err
}

// Read reads one Ethernet frame from the TAP device.
func (t *TAPDevice) Read(buf []byte) (int, error) {
	return t.file.Read(buf)
}

// Close releases the TAP file descriptor.
func (t *TAPDevice) Close() error {
	return t.file.Close()
}

func ioctl(fd uintptr, request uintptr, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, request, arg)
	if errno != 0 {
		return errno
	}
	return nil
}

func indexZero(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return -1
}
