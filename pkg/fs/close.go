package fs

import (
	"fmt"
)

// Close syncs once and releases the device. Closing an already-closed
// filesystem is a no-op. A sync failure is returned, but the device is
// closed regardless; the image keeps whatever the partial sync wrote.
func (fs *FileSystem) Close() error {
	if fs.closed {
		return nil
	}

	syncErr := fs.Sync()
	fs.closed = true
	for h := range fs.handles {
		h.closed = true
		delete(fs.handles, h)
	}

	closeErr := fs.dev.Close()
	if syncErr != nil {
		return fmt.Errorf("closing filesystem: %w", syncErr)
	}
	if closeErr != nil {
		return fmt.Errorf("closing filesystem: %w", closeErr)
	}
	return nil
}

// CloseLogged is the deferred-teardown path: scope exit cannot propagate
// an error to any caller, so a failure here is reported through the
// logger instead of being silently swallowed.
func (fs *FileSystem) CloseLogged() {
	if err := fs.Close(); err != nil {
		fs.log.WithError(err).Error("closing filesystem at scope exit")
	}
}
