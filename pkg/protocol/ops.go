package protocol

import (
	"fmt"
)

// OpCode identifies a host operation.
type OpCode uint8

const (
	OpCreateElement OpCode = 0x01
	OpCreateText    OpCode = 0x02
	OpSetAttribute  OpCode = 0x03
	OpSetText       OpCode = 0x04
	OpInsertChild   OpCode = 0x05
	OpRemoveChild   OpCode = 0x06
	OpListen        OpCode = 0x07
	OpDrop          OpCode = 0x08
)

var opNames = map[OpCode]string{
	OpCreateElement: "CreateElement",
	OpCreateText:    "CreateText",
	OpSetAttribute:  "SetAttribute",
	OpSetText:       "SetText",
	OpInsertChild:   "InsertChild",
	OpRemoveChild:   "RemoveChild",
	OpListen:        "Listen",
	OpDrop:          "Drop",
}

// String returns the op code's name.
func (c OpCode) String() string {
	if name, ok := opNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Op(%d)", c)
}

// Op is one host operation addressed by node handle. Which fields are
// meaningful depends on Code:
//
//	CreateElement  Node, Name (tag)
//	CreateText     Node, Value (text)
//	SetAttribute   Node, Name (key), Value
//	SetText        Node, Value
//	InsertChild    Parent, Node, Index
//	RemoveChild    Parent, Node
//	Listen         Node, Name (event kind), ID
//	Drop           Node
type Op struct {
	Code   OpCode
	Node   uint64
	Parent uint64
	Index  int
	Name   string
	Value  string
	ID     uint64
}

func (op *Op) encodeTo(e *Encoder) {
	e.WriteByte(byte(op.Code))
	switch op.Code {
	case OpCreateElement:
		e.WriteUvarint(op.Node)
		e.WriteString(op.Name)
	case OpCreateText, OpSetText:
		e.WriteUvarint(op.Node)
		e.WriteString(op.Value)
	case OpSetAttribute:
		e.WriteUvarint(op.Node)
		e.WriteString(op.Name)
		e.WriteString(op.Value)
	case OpInsertChild:
		e.WriteUvarint(op.Parent)
		e.WriteUvarint(op.Node)
		e.WriteUvarint(uint64(op.Index))
	case OpRemoveChild:
		e.WriteUvarint(op.Parent)
		e.WriteUvarint(op.Node)
	case OpListen:
		e.WriteUvarint(op.Node)
		e.WriteString(op.Name)
		e.WriteUvarint(op.ID)
	case OpDrop:
		e.WriteUvarint(op.Node)
	}
}

func decodeOp(d *Decoder) (Op, error) {
	b, err := d.ReadByte()
	if err != nil {
		return Op{}, err
	}
	op := Op{Code: OpCode(b)}
	switch op.Code {
	case OpCreateElement:
		if op.Node, err = d.ReadUvarint(); err == nil {
			op.Name, err = d.ReadString()
		}
	case OpCreateText, OpSetText:
		if op.Node, err = d.ReadUvarint(); err == nil {
			op.Value, err = d.ReadString()
		}
	case OpSetAttribute:
		if op.Node, err = d.ReadUvarint(); err == nil {
			if op.Name, err = d.ReadString(); err == nil {
				op.Value, err = d.ReadString()
			}
		}
	case OpInsertChild:
		var index uint64
		if op.Parent, err = d.ReadUvarint(); err == nil {
			if op.Node, err = d.ReadUvarint(); err == nil {
				index, err = d.ReadUvarint()
				op.Index = int(index)
			}
		}
	case OpRemoveChild:
		if op.Parent, err = d.ReadUvarint(); err == nil {
			op.Node, err = d.ReadUvarint()
		}
	case OpListen:
		if op.Node, err = d.ReadUvarint(); err == nil {
			if op.Name, err = d.ReadString(); err == nil {
				op.ID, err = d.ReadUvarint()
			}
		}
	case OpDrop:
		op.Node, err = d.ReadUvarint()
	default:
		return Op{}, fmt.Errorf("unknown op code %d", b)
	}
	return op, err
}

// EncodeOps packs ops into as few FrameOps frames as fit MaxPayloadSize.
// Every frame but the last carries FlagMore. An empty batch yields no frames.
func EncodeOps(ops []Op) ([]*Frame, error) {
	var (
		frames []*Frame
		batch  []byte
		count  int
		one    = NewEncoder()
	)
	flush := func() {
		e := NewEncoder()
		e.WriteUvarint(uint64(count))
		e.buf = append(e.buf, batch...)
		frames = append(frames, &Frame{Type: FrameOps, Payload: e.Bytes()})
		batch, count = nil, 0
	}
	for i := range ops {
		one.Reset()
		ops[i].encodeTo(one)
		if one.Len()+MaxVarintLen > MaxPayloadSize {
			return nil, fmt.Errorf("protocol: %s op of %d bytes: %w", ops[i].Code, one.Len(), ErrFrameTooLarge)
		}
		if count > 0 && len(batch)+one.Len()+UvarintLen(uint64(count+1)) > MaxPayloadSize {
			flush()
		}
		batch = append(batch, one.Bytes()...)
		count++
	}
	if count > 0 {
		flush()
	}
	for _, f := range frames[:max(len(frames)-1, 0)] {
		f.Flags |= FlagMore
	}
	return frames, nil
}

// DecodeOps decodes the payload of a FrameOps frame.
func DecodeOps(payload []byte) ([]Op, error) {
	d := NewDecoder(payload)
	n, err := d.ReadCount()
	if err != nil {
		return nil, malformed("op count", err)
	}
	ops := make([]Op, 0, n)
	for i := 0; i < n; i++ {
		op, err := decodeOp(d)
		if err != nil {
			return nil, malformed(fmt.Sprintf("op %d", i), err)
		}
		ops = append(ops, op)
	}
	if !d.EOF() {
		return nil, malformed("ops", fmt.Errorf("%d trailing bytes", d.Remaining()))
	}
	return ops, nil
}
