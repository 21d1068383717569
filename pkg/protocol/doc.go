// Package protocol implements the binary wire format spoken between a kinesis
// server and a remote surface.
//
// The server streams host operations (create, insert, remove, set text and
// attributes, listen) to the client, which applies them to its own DOM. The
// client streams raw events back, tagged with the node identifier the
// listener was registered with.
//
// # Wire Format
//
// Every message is a frame with a 4-byte header:
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (2 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// # Frame Types
//
//   - FrameHello (0x00): server → client, session identifier
//   - FrameOps (0x01): server → client, a batch of host operations
//   - FrameEvent (0x02): client → server, one raw event
//   - FrameError (0x03): server → client, a coded error
//
// A commit larger than one frame is split across several FrameOps frames;
// every frame but the last carries FlagMore.
//
// # Encoding
//
// Integers are unsigned varints (protobuf style). Strings are prefixed with
// their varint length. Node handles are small integers chosen by the server;
// handle 0 is the element the client mounted the session into.
//
// Decoding never trusts a length prefix: strings and collections are checked
// against the remaining buffer and against fixed allocation limits, and
// malformed input is reported as a K501 error.
package protocol
