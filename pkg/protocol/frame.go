package protocol

import (
	stderrors "errors"
	"fmt"
	"io"

	"github.com/vango-dev/kinesis/internal/errors"
)

// FrameType identifies what a frame's payload holds.
type FrameType uint8

const (
	FrameHello FrameType = 0x00
	FrameOps   FrameType = 0x01
	FrameEvent FrameType = 0x02
	FrameError FrameType = 0x03
)

// String returns the frame type's name.
func (ft FrameType) String() string {
	switch ft {
	case FrameHello:
		return "Hello"
	case FrameOps:
		return "Ops"
	case FrameEvent:
		return "Event"
	case FrameError:
		return "Error"
	default:
		return fmt.Sprintf("Unknown(%d)", ft)
	}
}

// Valid reports whether ft is a known frame type.
func (ft FrameType) Valid() bool {
	return ft <= FrameError
}

// FrameFlags modify how a frame is handled.
type FrameFlags uint8

const (
	// FlagMore marks an ops frame that is followed by more frames of the
	// same commit.
	FlagMore FrameFlags = 0x01
)

// Has reports whether flag is set.
func (ff FrameFlags) Has(flag FrameFlags) bool {
	return ff&flag != 0
}

const (
	// FrameHeaderSize is the size of the frame header in bytes.
	FrameHeaderSize = 4

	// MaxPayloadSize is the largest payload one frame can carry.
	MaxPayloadSize = 0xFFFF
)

// Frame errors.
var (
	ErrFrameTooLarge    = stderrors.New("protocol: frame payload too large")
	ErrInvalidFrameType = stderrors.New("protocol: invalid frame type")
)

// Frame is one protocol message.
type Frame struct {
	Type    FrameType
	Flags   FrameFlags
	Payload []byte
}

// Encode returns the frame with its header.
func (f *Frame) Encode() ([]byte, error) {
	n := len(f.Payload)
	if n > MaxPayloadSize {
		return nil, ErrFrameTooLarge
	}
	buf := make([]byte, FrameHeaderSize+n)
	buf[0] = byte(f.Type)
	buf[1] = byte(f.Flags)
	buf[2] = byte(n >> 8)
	buf[3] = byte(n)
	copy(buf[FrameHeaderSize:], f.Payload)
	return buf, nil
}

// DecodeFrame decodes one complete frame. Trailing bytes after the payload
// are rejected.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) < FrameHeaderSize {
		return nil, malformed("frame header", io.ErrUnexpectedEOF)
	}
	ft := FrameType(data[0])
	if !ft.Valid() {
		return nil, malformed(fmt.Sprintf("frame type %d", data[0]), ErrInvalidFrameType)
	}
	n := int(data[2])<<8 | int(data[3])
	switch {
	case len(data) < FrameHeaderSize+n:
		return nil, malformed(ft.String()+" frame", io.ErrUnexpectedEOF)
	case len(data) > FrameHeaderSize+n:
		return nil, malformed(ft.String()+" frame", fmt.Errorf("%d trailing bytes", len(data)-FrameHeaderSize-n))
	}
	payload := make([]byte, n)
	copy(payload, data[FrameHeaderSize:])
	return &Frame{Type: ft, Flags: FrameFlags(data[1]), Payload: payload}, nil
}

// ReadFrame reads one frame from r.
func ReadFrame(r io.Reader) (*Frame, error) {
	var header [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	ft := FrameType(header[0])
	if !ft.Valid() {
		return nil, malformed(fmt.Sprintf("frame type %d", header[0]), ErrInvalidFrameType)
	}
	payload := make([]byte, int(header[2])<<8|int(header[3]))
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, malformed(ft.String()+" frame", err)
	}
	return &Frame{Type: ft, Flags: FrameFlags(header[1]), Payload: payload}, nil
}

// WriteFrame writes f to w.
func WriteFrame(w io.Writer, f *Frame) error {
	buf, err := f.Encode()
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

func malformed(what string, err error) error {
	return errors.New(errors.CodeFrameDecode).WithDetail(what).Wrap(err)
}
