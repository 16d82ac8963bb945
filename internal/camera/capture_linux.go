//go:build linux

package camera

import (
	"fmt"
	"image"
	"unsafe"

	"golang.org/x/sys/unix"
)

// V4L2 constants and ioctl request codes, adapted from the reference
// capture loop's raw syscall.Syscall(SYS_IOCTL, ...) calls onto
// golang.org/x/sys/unix's typed ioctl wrappers and constants -- the
// idiomatic replacement for hand-rolled syscall numbers in Go V4L2
// code.
const (
	v4l2BufTypeVideoCapture = 1
	v4l2FieldAny            = 0
	v4l2MemoryMMap          = 1
	v4l2PixFmtRGB24         = 0x33424752 // 'RGB3'

	v4l2CapVideoCapture = 0x00000001
	v4l2CapStreaming    = 0x04000000
	v4l2CapDeviceCaps   = 0x80000000

	numBuffers = 4
)

type v4l2Capability struct {
	Driver       [16]byte
	Card         [32]byte
	BusInfo      [32]byte
	Version      uint32
	Capabilities uint32
	DeviceCaps   uint32
	Reserved     [3]uint32
}

type v4l2PixFormat struct {
	Width        uint32
	Height       uint32
	Pixelformat  uint32
	Field        uint32
	Bytesperline uint32
	Sizeimage    uint32
	Colorspace   uint32
	Priv         uint32
	Flags        uint32
	YcbcrEnc     uint32
	Quantization uint32
	XferFunc     uint32
}

type v4l2Format struct {
	Type uint32
	_    [4]byte
	fmt  [200]byte
}

type v4l2RequestBuffers struct {
	Count    uint32
	Type     uint32
	Memory   uint32
	Reserved [2]uint32
}

type v4l2Timecode struct {
	Type     uint32
	Flags    uint32
	Frames   uint8
	Seconds  uint8
	Minutes  uint8
	Hours    uint8
	Userbits [4]uint8
}

type v4l2Buffer struct {
	Index     uint32
	Type      uint32
	Bytesused uint32
	Flags     uint32
	Field     uint32
	Timestamp unix.Timeval
	Timecode  v4l2Timecode
	Sequence  uint32
	Memory    uint32
	Offset    uint32
	_         uint32
	Length    uint32
	Reserved2 uint32
	Reserved  uint32
}

const (
	iocNRBits, iocTypeBits, iocSizeBits, iocDirBits = 8, 8, 14, 2
	iocNRShift                                      = 0
	iocTypeShift                                    = iocNRShift + iocNRBits
	iocSizeShift                                    = iocTypeShift + iocTypeBits
	iocDirShift                                     = iocSizeShift + iocSizeBits
	iocNone, iocWrite, iocRead                      = 0, 1, 2
)

func ioc(dir, typ, nr, size uintptr) uintptr {
	return (dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNRShift) | (size << iocSizeShift)
}

var (
	vidiocQuerycap = ioc(iocRead, uintptr('V'), 0, unsafe.Sizeof(v4l2Capability{}))
	vidiocSFmt     = ioc(iocRead|iocWrite, uintptr('V'), 5, unsafe.Sizeof(v4l2Format{}))
	vidiocReqbufs  = ioc(iocRead|iocWrite, uintptr('V'), 8, unsafe.Sizeof(v4l2RequestBuffers{}))
	vidiocQuerybuf = ioc(iocRead|iocWrite, uintptr('V'), 9, unsafe.Sizeof(v4l2Buffer{}))
	vidiocQBuf     = ioc(iocRead|iocWrite, uintptr('V'), 15, unsafe.Sizeof(v4l2Buffer{}))
	vidiocDQBuf    = ioc(iocRead|iocWrite, uintptr('V'), 17, unsafe.Sizeof(v4l2Buffer{}))
	vidiocStreamOn = ioc(iocWrite, uintptr('V'), 18, unsafe.Sizeof(uint32(0)))
)

// rawIoctl drives the pointer-argument V4L2 ioctls; unix doesn't type
// these per V4L2 struct, so the call goes through unix.Syscall
// directly, same shape as the reference capture loop's
// syscall.Syscall(SYS_IOCTL, ...).
func rawIoctl(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

type mappedBuffer struct {
	data []byte
}

// Open starts a V4L2 mmap capture loop against device (e.g.
// "/dev/video0") at width x height, requesting RGB24 and converting
// each captured buffer into an *image.RGBA frame.
func Open(device string, width, height int) (*Stream, error) {
	fd, err := unix.Open(device, unix.O_RDWR|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("camera: open %s: %w", device, err)
	}

	var caps v4l2Capability
	if err := rawIoctl(fd, vidiocQuerycap, unsafe.Pointer(&caps)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("camera: VIDIOC_QUERYCAP: %w", err)
	}
	capsToCheck := caps.Capabilities
	if capsToCheck&v4l2CapDeviceCaps != 0 {
		capsToCheck = caps.DeviceCaps
	}
	if capsToCheck&v4l2CapVideoCapture == 0 || capsToCheck&v4l2CapStreaming == 0 {
		unix.Close(fd)
		return nil, fmt.Errorf("camera: device does not support streaming capture")
	}

	format := v4l2Format{Type: v4l2BufTypeVideoCapture}
	pix := (*v4l2PixFormat)(unsafe.Pointer(&format.fmt[0]))
	pix.Width, pix.Height = uint32(width), uint32(height)
	pix.Pixelformat = v4l2PixFmtRGB24
	pix.Field = v4l2FieldAny
	if err := rawIoctl(fd, vidiocSFmt, unsafe.Pointer(&format)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("camera: VIDIOC_S_FMT RGB24: %w", err)
	}
	width, height = int(pix.Width), int(pix.Height)
	stride := int(pix.Bytesperline)
	if stride == 0 {
		stride = width * 3
	}

	req := v4l2RequestBuffers{Count: numBuffers, Type: v4l2BufTypeVideoCapture, Memory: v4l2MemoryMMap}
	if err := rawIoctl(fd, vidiocReqbufs, unsafe.Pointer(&req)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("camera: VIDIOC_REQBUFS: %w", err)
	}

	buffers := make([]mappedBuffer, req.Count)
	for i := uint32(0); i < req.Count; i++ {
		buf := v4l2Buffer{Type: v4l2BufTypeVideoCapture, Memory: v4l2MemoryMMap, Index: i}
		if err := rawIoctl(fd, vidiocQuerybuf, unsafe.Pointer(&buf)); err != nil {
			closeAll(fd, buffers)
			return nil, fmt.Errorf("camera: VIDIOC_QUERYBUF %d: %w", i, err)
		}
		data, err := unix.Mmap(fd, int64(buf.Offset), int(buf.Length), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if err != nil {
			closeAll(fd, buffers)
			return nil, fmt.Errorf("camera: mmap %d: %w", i, err)
		}
		buffers[i] = mappedBuffer{data: data}
		if err := rawIoctl(fd, vidiocQBuf, unsafe.Pointer(&buf)); err != nil {
			closeAll(fd, buffers)
			return nil, fmt.Errorf("camera: VIDIOC_QBUF %d: %w", i, err)
		}
	}

	bufType := uint32(v4l2BufTypeVideoCapture)
	if err := rawIoctl(fd, vidiocStreamOn, unsafe.Pointer(&bufType)); err != nil {
		closeAll(fd, buffers)
		return nil, fmt.Errorf("camera: VIDIOC_STREAMON: %w", err)
	}

	frames := make(chan Frame, 2)
	done := make(chan struct{})
	go captureLoop(fd, buffers, width, height, stride, frames, done)

	return &Stream{
		Frames: frames,
		Close: func() error {
			close(done)
			return nil
		},
	}, nil
}

func captureLoop(fd int, buffers []mappedBuffer, width, height, stride int, frames chan<- Frame, done <-chan struct{}) {
	defer close(frames)
	defer closeAll(fd, buffers)

	var seq uint64
	for {
		select {
		case <-done:
			return
		default:
		}

		buf := v4l2Buffer{Type: v4l2BufTypeVideoCapture, Memory: v4l2MemoryMMap}
		if err := rawIoctl(fd, vidiocDQBuf, unsafe.Pointer(&buf)); err != nil {
			continue
		}
		if int(buf.Index) < len(buffers) {
			img := rgb24ToRGBA(buffers[buf.Index].data, width, height, stride)
			_ = rawIoctl(fd, vidiocQBuf, unsafe.Pointer(&buf))
			if img != nil {
				seq++
				select {
				case frames <- Frame{Image: img, Seq: seq}:
				default:
					<-frames
					frames <- Frame{Image: img, Seq: seq}
				}
			}
		}
	}
}

func rgb24ToRGBA(src []byte, width, height, stride int) *image.RGBA {
	rowBytes := width * 3
	if rowBytes <= 0 || stride < rowBytes || stride*height > len(src) {
		return nil
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := src[y*stride : y*stride+rowBytes]
		for x := 0; x < width; x++ {
			si := x * 3
			di := img.PixOffset(x, y)
			img.Pix[di] = row[si]
			img.Pix[di+1] = row[si+1]
			img.Pix[di+2] = row[si+2]
			img.Pix[di+3] = 0xff
		}
	}
	return img
}

func closeAll(fd int, buffers []mappedBuffer) {
	for _, b := range buffers {
		if b.data != nil {
			_ = unix.Munmap(b.data)
		}
	}
	_ = unix.Close(fd)
}
