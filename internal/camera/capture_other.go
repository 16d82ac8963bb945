//go:build !linux

package camera

import "fmt"

// Open is unimplemented outside Linux; V4L2 is Linux-specific. Ports
// to other platforms would need their own backend (DirectShow/Media
// Foundation on Windows, AVFoundation on macOS), mirrored on the
// reference capture loop's own per-OS split.
func Open(device string, width, height int) (*Stream, error) {
	return nil, fmt.Errorf("camera: V4L2 capture is only implemented on linux (wanted %s %dx%d)", device, width, height)
}
