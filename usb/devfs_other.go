//go:build !linux
// +build !linux

package usb

import "github.com/juju/errors"

func OpenDevfs(path string, iface int) (Transport, error) {
	return nil, errors.NotSupportedf("usbfs path=%s", path)
}
