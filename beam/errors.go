package beam

import (
	"github.com/juju/errors"
)

var (
	ErrDeviceUnavailable     = errors.New("beam device unavailable")
	ErrNotIdentified         = errors.New("beam device not identified")
	ErrNotSynced             = errors.New("beam device not synced")
	ErrWriteFailed           = errors.New("beam write failed")
	ErrPartialMultiFrameRead = errors.New("beam multi-frame read incomplete")
	ErrBusy                  = errors.New("beam exchange busy")
)

// IsRetryable reports errors after which sync and repeat is expected to help.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.IsTimeout(err) || errors.Cause(err) == ErrWriteFailed
}

func IsPartial(err error) bool { return errors.Cause(err) == ErrPartialMultiFrameRead }

func unavailable(err error, what string) error {
	return errors.Wrapf(err, ErrDeviceUnavailable, "%s err=%v", what, err)
}
