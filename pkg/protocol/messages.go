package protocol

import "fmt"

// Event is a raw event raised by the client on a listened node.
type Event struct {
	// ID is the identifier the listener was registered with.
	ID uint64

	// Kind is the event kind, such as "click".
	Kind string

	// Value carries the kind-specific payload, such as an input's value.
	Value string
}

// Frame wraps the event in a FrameEvent frame.
func (ev *Event) Frame() *Frame {
	e := NewEncoder()
	e.WriteUvarint(ev.ID)
	e.WriteString(ev.Kind)
	e.WriteString(ev.Value)
	return &Frame{Type: FrameEvent, Payload: e.Bytes()}
}

// DecodeEvent decodes the payload of a FrameEvent frame.
func DecodeEvent(payload []byte) (*Event, error) {
	d := NewDecoder(payload)
	var (
		ev  Event
		err error
	)
	if ev.ID, err = d.ReadUvarint(); err != nil {
		return nil, malformed("event id", err)
	}
	if ev.Kind, err = d.ReadString(); err != nil {
		return nil, malformed("event kind", err)
	}
	if ev.Value, err = d.ReadString(); err != nil {
		return nil, malformed("event value", err)
	}
	if !d.EOF() {
		return nil, malformed("event", fmt.Errorf("%d trailing bytes", d.Remaining()))
	}
	return &ev, nil
}

// Hello opens a session.
type Hello struct {
	Session string
}

// Frame wraps the greeting in a FrameHello frame.
func (h *Hello) Frame() *Frame {
	e := NewEncoder()
	e.WriteString(h.Session)
	return &Frame{Type: FrameHello, Payload: e.Bytes()}
}

// DecodeHello decodes the payload of a FrameHello frame.
func DecodeHello(payload []byte) (*Hello, error) {
	d := NewDecoder(payload)
	s, err := d.ReadString()
	if err != nil {
		return nil, malformed("session", err)
	}
	return &Hello{Session: s}, nil
}

// ErrorMessage reports a failure to the client.
type ErrorMessage struct {
	// Code is the error code, such as "K301".
	Code string

	Message string

	// Fatal means the server is closing the session.
	Fatal bool
}

// Frame wraps the message in a FrameError frame.
func (m *ErrorMessage) Frame() *Frame {
	e := NewEncoder()
	e.WriteString(m.Code)
	e.WriteString(m.Message)
	if m.Fatal {
		e.WriteByte(1)
	} else {
		e.WriteByte(0)
	}
	return &Frame{Type: FrameError, Payload: e.Bytes()}
}

// DecodeErrorMessage decodes the payload of a FrameError frame.
func DecodeErrorMessage(payload []byte) (*ErrorMessage, error) {
	d := NewDecoder(payload)
	var (
		m   ErrorMessage
		err error
	)
	if m.Code, err = d.ReadString(); err != nil {
		return nil, malformed("error code", err)
	}
	if m.Message, err = d.ReadString(); err != nil {
		return nil, malformed("error message", err)
	}
	fatal, err := d.ReadByte()
	if err != nil {
		return nil, malformed("error fatal flag", err)
	}
	m.Fatal = fatal != 0
	return &m, nil
}
