// Package snapshot implements the shared-snapshot (deep-link) binary wire
// format v1: a self-delimited stream of messages, base64-ed for transport
// outside the mesh. The deep-link import surface itself (the host UI that
// triggers an import) is out of scope; this package only owns the
// Encode/Decode codec for the blob.
//
// Grounded on the codec package's own packet layout discipline (a
// version/count header followed by fixed-shape records) and on
// skobkin-meshgo's length-prefixed record framing for the bounds-checked
// decode loop.
package snapshot

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/user/vuelink/codec"
	"github.com/user/vuelink/protocol"
)

const wireVersion = 1

var (
	// ErrUnsupportedVersion is returned when the leading version byte is
	// not one Decode understands.
	ErrUnsupportedVersion = errors.New("vuelink/snapshot: unsupported version")
	// ErrTruncated is returned when the stream ends before a declared
	// record's contentLength bytes are available.
	ErrTruncated = errors.New("vuelink/snapshot: truncated stream")
	// ErrTooManyMessages is returned when Encode is asked to pack more
	// than 255 messages.
	ErrTooManyMessages = errors.New("vuelink/snapshot: more than 255 messages")
)

// Encode packs msgs (paired with each message's current forward-eligible
// flag) into the v1 binary format, then URL-safe base64-encodes without
// padding.
func Encode(msgs []protocol.Message, shouldForward []bool) (string, error) {
	if len(msgs) != len(shouldForward) {
		return "", fmt.Errorf("vuelink/snapshot: msgs and shouldForward length mismatch (%d != %d)", len(msgs), len(shouldForward))
	}
	if len(msgs) > 255 {
		return "", ErrTooManyMessages
	}

	buf := make([]byte, 0, 2+len(msgs)*8)
	buf = append(buf, wireVersion, byte(len(msgs)))

	for i, m := range msgs {
		content, err := codec.EncodeContent(m)
		if err != nil {
			return "", err
		}
		if len(content) > 0xFFFF {
			return "", fmt.Errorf("vuelink/snapshot: content for message %d exceeds 65535 bytes", i)
		}

		flags := byte(m.Kind())&0x07 | (byte(m.GetPriority())&0x07)<<3
		forwardByte := byte(0)
		if shouldForward[i] {
			forwardByte = 1
		}

		var lenBuf [2]byte
		binary.BigEndian.PutUint16(lenBuf[:], uint16(len(content)))

		buf = append(buf, flags, forwardByte)
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, content...)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Decoded is one message recovered from a snapshot, with its carried
// forward-eligibility flag.
type Decoded struct {
	Message       protocol.Message
	ShouldForward bool
}

// Decode reverses Encode. It rejects any version other than 1 and
// bounds-checks every declared contentLength against the bytes remaining
// in the stream.
func Decode(s string) ([]Decoded, error) {
	buf, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("vuelink/snapshot: base64 decode: %w", err)
	}
	if len(buf) < 2 {
		return nil, ErrTruncated
	}
	if buf[0] != wireVersion {
		return nil, ErrUnsupportedVersion
	}
	count := int(buf[1])

	out := make([]Decoded, 0, count)
	pos := 2
	for i := 0; i < count; i++ {
		if pos+4 > len(buf) {
			return nil, ErrTruncated
		}
		flags := buf[pos]
		shouldForward := buf[pos+1] != 0
		contentLength := int(binary.BigEndian.Uint16(buf[pos+2 : pos+4]))
		pos += 4

		if pos+contentLength > len(buf) {
			return nil, ErrTruncated
		}
		content := buf[pos : pos+contentLength]
		pos += contentLength

		msgType := protocol.MessageType(flags & 0x07)
		prio := protocol.Priority((flags >> 3) & 0x07)

		msg := codec.DecodeContent(msgType, prio, content)
		out = append(out, Decoded{Message: msg, ShouldForward: shouldForward})
	}
	return out, nil
}
