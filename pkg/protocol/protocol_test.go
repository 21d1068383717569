package protocol

import (
	"bytes"
	stderrors "errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/kinesis/internal/errors"
)

func TestUvarint(t *testing.T) {
	tests := []struct {
		name  string
		value uint64
		bytes int
	}{
		{"zero", 0, 1},
		{"max_1byte", 127, 1},
		{"min_2byte", 128, 2},
		{"min_3byte", 16384, 3},
		{"max_uint32", math.MaxUint32, 5},
		{"max_uint64", math.MaxUint64, 10},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := make([]byte, MaxVarintLen)
			n := EncodeUvarint(buf, tc.value)
			if n != tc.bytes || UvarintLen(tc.value) != tc.bytes {
				t.Errorf("encoded %d in %d bytes (UvarintLen %d), want %d", tc.value, n, UvarintLen(tc.value), tc.bytes)
			}
			got, read := DecodeUvarint(buf[:n])
			if got != tc.value || read != n {
				t.Errorf("DecodeUvarint = (%d, %d), want (%d, %d)", got, read, tc.value, n)
			}
		})
	}
}

func TestUvarintMalformed(t *testing.T) {
	if _, n := DecodeUvarint([]byte{0x80, 0x80}); n != 0 {
		t.Errorf("truncated varint n = %d, want 0", n)
	}
	overflow := bytes.Repeat([]byte{0xff}, 10)
	overflow = append(overflow, 0x01)
	if _, n := DecodeUvarint(overflow); n >= 0 {
		t.Errorf("overflowing varint n = %d, want negative", n)
	}
	if _, err := NewDecoder(overflow).ReadUvarint(); err != ErrVarintOverflow {
		t.Errorf("ReadUvarint error = %v, want ErrVarintOverflow", err)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	f := &Frame{Type: FrameOps, Flags: FlagMore, Payload: []byte{1, 2, 3}}
	buf, err := f.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if want := []byte{0x01, 0x01, 0x00, 0x03, 1, 2, 3}; !bytes.Equal(buf, want) {
		t.Errorf("Encode = %v, want %v", buf, want)
	}

	got, err := DecodeFrame(buf)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if diff := cmp.Diff(f, got); diff != "" {
		t.Errorf("DecodeFrame mismatch (-want +got):\n%s", diff)
	}

	var stream bytes.Buffer
	if err := WriteFrame(&stream, f); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if err := WriteFrame(&stream, &Frame{Type: FrameHello}); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	first, err := ReadFrame(&stream)
	if err != nil || !first.Flags.Has(FlagMore) {
		t.Fatalf("ReadFrame = %+v, %v", first, err)
	}
	second, err := ReadFrame(&stream)
	if err != nil || second.Type != FrameHello || len(second.Payload) != 0 {
		t.Fatalf("ReadFrame = %+v, %v", second, err)
	}
	if _, err := ReadFrame(&stream); err != io.EOF {
		t.Errorf("ReadFrame at end = %v, want io.EOF", err)
	}
}

func TestFrameErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"short_header", []byte{0x01, 0x00}, io.ErrUnexpectedEOF},
		{"unknown_type", []byte{0x09, 0x00, 0x00, 0x00}, ErrInvalidFrameType},
		{"short_payload", []byte{0x02, 0x00, 0x00, 0x05, 1}, io.ErrUnexpectedEOF},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeFrame(tc.data)
			if !stderrors.Is(err, tc.want) {
				t.Errorf("DecodeFrame error = %v, want %v", err, tc.want)
			}
			if !errors.HasCode(err, errors.CodeFrameDecode) {
				t.Errorf("DecodeFrame error %v lacks code %s", err, errors.CodeFrameDecode)
			}
		})
	}

	if _, err := DecodeFrame([]byte{0x02, 0x00, 0x00, 0x00, 0xff}); err == nil {
		t.Error("DecodeFrame accepted trailing bytes")
	}
	big := &Frame{Type: FrameOps, Payload: make([]byte, MaxPayloadSize+1)}
	if _, err := big.Encode(); err != ErrFrameTooLarge {
		t.Errorf("Encode oversize = %v, want ErrFrameTooLarge", err)
	}
	if _, err := ReadFrame(bytes.NewReader([]byte{0x01, 0x00, 0x00, 0x04, 1})); !stderrors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadFrame truncated = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestOpsRoundTrip(t *testing.T) {
	ops := []Op{
		{Code: OpCreateElement, Node: 1, Name: "div"},
		{Code: OpCreateText, Node: 2, Value: "The current count is 0"},
		{Code: OpSetAttribute, Node: 1, Name: "class", Value: "counter"},
		{Code: OpSetText, Node: 2, Value: "The current count is 1"},
		{Code: OpInsertChild, Parent: 1, Node: 2, Index: 0},
		{Code: OpInsertChild, Parent: 0, Node: 1, Index: 3},
		{Code: OpRemoveChild, Parent: 0, Node: 1},
		{Code: OpListen, Node: 1, Name: "click", ID: 42},
		{Code: OpDrop, Node: 2},
	}
	frames, err := EncodeOps(ops)
	if err != nil {
		t.Fatalf("EncodeOps: %v", err)
	}
	if len(frames) != 1 || frames[0].Type != FrameOps || frames[0].Flags.Has(FlagMore) {
		t.Fatalf("EncodeOps = %d frames (%+v), want one final ops frame", len(frames), frames)
	}
	got, err := DecodeOps(frames[0].Payload)
	if err != nil {
		t.Fatalf("DecodeOps: %v", err)
	}
	if diff := cmp.Diff(ops, got); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeOpsSplitsLargeCommits(t *testing.T) {
	text := strings.Repeat("x", 1000)
	ops := make([]Op, 200)
	for i := range ops {
		ops[i] = Op{Code: OpCreateText, Node: uint64(i + 1), Value: text}
	}
	frames, err := EncodeOps(ops)
	if err != nil {
		t.Fatalf("EncodeOps: %v", err)
	}
	if len(frames) < 2 {
		t.Fatalf("EncodeOps = %d frames, want several", len(frames))
	}

	var got []Op
	for i, f := range frames {
		if more := i < len(frames)-1; f.Flags.Has(FlagMore) != more {
			t.Errorf("frame %d FlagMore = %v, want %v", i, !more, more)
		}
		if len(f.Payload) > MaxPayloadSize {
			t.Errorf("frame %d payload = %d bytes, over the limit", i, len(f.Payload))
		}
		part, err := DecodeOps(f.Payload)
		if err != nil {
			t.Fatalf("DecodeOps frame %d: %v", i, err)
		}
		got = append(got, part...)
	}
	if diff := cmp.Diff(ops, got); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}

	if frames, err := EncodeOps(nil); err != nil || len(frames) != 0 {
		t.Errorf("EncodeOps(nil) = %v, %v, want no frames", frames, err)
	}
	huge := []Op{{Code: OpSetText, Node: 1, Value: strings.Repeat("y", MaxPayloadSize)}}
	if _, err := EncodeOps(huge); !stderrors.Is(err, ErrFrameTooLarge) {
		t.Errorf("EncodeOps oversize op = %v, want ErrFrameTooLarge", err)
	}
}

func TestDecodeOpsMalformed(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"empty", nil},
		{"count_exceeds_input", []byte{0x05, byte(OpRemoveChild), 0, 1}},
		{"unknown_code", []byte{0x01, 0x7f}},
		{"truncated_string", []byte{0x01, byte(OpCreateElement), 0x01, 0x05, 'd', 'i'}},
		{"trailing", []byte{0x01, byte(OpRemoveChild), 0x00, 0x01, 0xff}},
		{"string_too_long", []byte{0x01, byte(OpCreateText), 0x01, 0xff, 0xff, 0x7f}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeOps(tc.payload)
			if !errors.HasCode(err, errors.CodeFrameDecode) {
				t.Errorf("DecodeOps error = %v, want code %s", err, errors.CodeFrameDecode)
			}
		})
	}
}

func TestMessages(t *testing.T) {
	ev := &Event{ID: 7, Kind: "input", Value: "milk"}
	f := ev.Frame()
	if f.Type != FrameEvent {
		t.Fatalf("Event frame type = %s", f.Type)
	}
	gotEv, err := DecodeEvent(f.Payload)
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}
	if diff := cmp.Diff(ev, gotEv); diff != "" {
		t.Errorf("event mismatch (-want +got):\n%s", diff)
	}
	if _, err := DecodeEvent(f.Payload[:2]); !errors.HasCode(err, errors.CodeFrameDecode) {
		t.Errorf("DecodeEvent truncated = %v", err)
	}

	hello := &Hello{Session: "0b8e6f3c"}
	gotHello, err := DecodeHello(hello.Frame().Payload)
	if err != nil || gotHello.Session != hello.Session {
		t.Errorf("DecodeHello = %+v, %v", gotHello, err)
	}

	msg := &ErrorMessage{Code: "K301", Message: "host refused", Fatal: true}
	gotMsg, err := DecodeErrorMessage(msg.Frame().Payload)
	if err != nil {
		t.Fatalf("DecodeErrorMessage: %v", err)
	}
	if diff := cmp.Diff(msg, gotMsg); diff != "" {
		t.Errorf("error message mismatch (-want +got):\n%s", diff)
	}
}

func TestStrings(t *testing.T) {
	if got := FrameOps.String(); got != "Ops" {
		t.Errorf("FrameOps.String() = %q", got)
	}
	if got := FrameType(9).String(); got != "Unknown(9)" {
		t.Errorf("FrameType(9).String() = %q", got)
	}
	if got := OpListen.String(); got != "Listen" {
		t.Errorf("OpListen.String() = %q", got)
	}
	if got := OpDrop.String(); got != "Drop" {
		t.Errorf("OpDrop.String() = %q", got)
	}
	if got := OpCode(0).String(); got != "Op(0)" {
		t.Errorf("OpCode(0).String() = %q", got)
	}
}
