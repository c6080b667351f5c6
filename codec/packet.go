// Package codec implements the on-air advertisement packet format,
// per-type content encodings, size validation, and splitting of oversized
// messages into wire-representable chunks.
package codec

import (
	"fmt"
	"strings"

	"github.com/user/vuelink/config"
	"github.com/user/vuelink/protocol"
	"github.com/user/vuelink/vuelog"
)

const logPrefix = "codec"

const (
	partInfoRepeatBit = 1 << 6
	flagsReservedMask = 0xC0
)

// Encode produces the on-air bytes for a single message (or a single
// already-split fragment). Callers that want an oversized message split
// into several advertisements should use EncodeAll.
func Encode(m protocol.Message) ([]byte, error) {
	content, err := encodeContent(m)
	if err != nil {
		return nil, err
	}

	if len(content) == 0 {
		return nil, ErrEmptyContent
	}
	if len(content) > config.MaxContentBytes {
		if len(content) <= 2*config.MaxContentBytes {
			vuelog.Warn(logPrefix, "truncating %d-byte content to %d bytes for %s", len(content), config.MaxContentBytes, m.Kind())
			content = content[:config.MaxContentBytes]
		} else {
			return nil, ErrPayloadTooLarge
		}
	}

	partNo, totalParts := partInfo(m)
	if partNo == 0 {
		partNo, totalParts = 1, 1
	}
	if partNo < 1 || partNo > config.MaxWireParts || totalParts < partNo || totalParts > config.MaxWireParts {
		return nil, ErrInvalidPartNumbering
	}

	buf := make([]byte, 2+len(content))
	buf[0] = byte(partNo&0x7) | byte(totalParts&0x7)<<3
	if m.GetRepeat() {
		buf[0] |= partInfoRepeatBit
	}
	buf[1] = byte(m.Kind()&0x7) | byte(m.GetPriority()&0x7)<<3
	copy(buf[2:], content)
	return buf, nil
}

// EncodeAll splits m (if its kind is splittable and oversized) and encodes
// every resulting fragment, in ascending part order — the sequence the
// Advertiser Sequencer emits one chunk at a time.
func EncodeAll(m protocol.Message) ([][]byte, error) {
	if !protocol.IsSplittable(m.Kind()) {
		b, err := Encode(m)
		if err != nil {
			return nil, err
		}
		return [][]byte{b}, nil
	}

	parts, err := Split(m)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(parts))
	for i, p := range parts {
		b, err := Encode(p)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

func partInfo(m protocol.Message) (partNo, totalParts int) {
	if f, ok := m.(protocol.Fragment); ok {
		return f.PartInfo()
	}
	return 0, 0
}

// EncodeContent builds the type-specific content body for m without the
// 2-byte advertisement header or the 21-byte per-advertisement cap. It is
// exported for the snapshot package, whose wire format carries one
// un-fragmented logical message per record.
func EncodeContent(m protocol.Message) ([]byte, error) {
	return encodeContent(m)
}

// encodeContent builds the type-specific content bytes for the current
// state of m (a whole message, or one already-split fragment).
func encodeContent(m protocol.Message) ([]byte, error) {
	switch v := m.(type) {
	case protocol.GeneralBasic:
		return v.Content, nil

	case protocol.GeneralText:
		return []byte(v.Text), nil

	case protocol.FlightUpdate:
		content := make([]byte, 1+len(v.FlightID))
		content[0] = byte(v.UpdateType)
		copy(content[1:], v.FlightID)
		return content, nil

	case protocol.FlightUpdateGeneral:
		if len(v.FlightID) > 255 {
			return nil, ErrPayloadTooLarge
		}
		textBytes := []byte(v.Text)
		content := make([]byte, 1+len(v.FlightID)+len(textBytes))
		content[0] = byte(len(v.FlightID))
		copy(content[1:], v.FlightID)
		copy(content[1+len(v.FlightID):], textBytes)
		return content, nil

	default:
		return nil, fmt.Errorf("vuelink/codec: unsupported message type %T", m)
	}
}

// Parse decodes a received advertisement payload. It never panics: any
// malformed input yields ErrMalformedAdvertisement, and missing
// type-specific content fields resolve to their documented defaults
// instead of an error.
func Parse(data []byte) (protocol.Message, error) {
	if len(data) < config.MinAdvertisementBytes || len(data) > config.MaxAdvertisementBytes {
		return nil, ErrMalformedAdvertisement
	}

	partInfoByte, flagsByte := data[0], data[1]
	content := data[2:]

	if flagsByte&flagsReservedMask != 0 {
		vuelog.Trace(logPrefix, "reserved flag bits set in advertisement, ignoring")
	}

	partNo := int(partInfoByte & 0x7)
	totalParts := int((partInfoByte >> 3) & 0x7)
	repeat := partInfoByte&partInfoRepeatBit != 0
	if partNo == 0 {
		partNo, totalParts = 1, 1
	}
	if totalParts < partNo {
		totalParts = partNo
	}

	msgType := protocol.MessageType(flagsByte & 0x7)
	priority := protocol.Priority((flagsByte >> 3) & 0x7)

	fragPartNo, fragTotalParts := 0, 0
	if !(partNo == 1 && totalParts == 1) {
		fragPartNo, fragTotalParts = partNo, totalParts
	}

	return decodeContent(msgType, priority, repeat, fragPartNo, fragTotalParts, content), nil
}

// DecodeContent reverses EncodeContent: it builds the Message value for a
// raw content body without requiring an advertisement-shaped envelope. It
// is exported for the snapshot package, whose records carry
// un-fragmented content of arbitrary length.
func DecodeContent(msgType protocol.MessageType, priority protocol.Priority, content []byte) protocol.Message {
	return decodeContent(msgType, priority, false, 0, 0, content)
}

func decodeContent(msgType protocol.MessageType, priority protocol.Priority, repeat bool, fragPartNo, fragTotalParts int, content []byte) protocol.Message {
	switch msgType {
	case protocol.MessageTypeGeneralBasic:
		return protocol.GeneralBasic{
			Content: append([]byte(nil), content...), Repeat: repeat, Prio: priority,
			PartNo: fragPartNo, TotalParts: fragTotalParts,
		}

	case protocol.MessageTypeGeneralText:
		return protocol.GeneralText{
			Text: decodeTextLossy(content), Repeat: repeat, Prio: priority,
			PartNo: fragPartNo, TotalParts: fragTotalParts,
		}

	case protocol.MessageTypeFlightUpdate:
		updateType := protocol.FlightUpdateGeneralKind
		flightID := ""
		if len(content) > 0 {
			updateType = protocol.FlightUpdateType(content[0])
			flightID = decodeTextLossy(content[1:])
		}
		return protocol.FlightUpdate{FlightID: flightID, UpdateType: updateType, Repeat: repeat, Prio: priority}

	case protocol.MessageTypeFlightUpdateGeneral:
		flightID, text := "", ""
		if len(content) > 0 {
			flightIDLen := int(content[0])
			if flightIDLen > len(content)-1 {
				flightIDLen = len(content) - 1
			}
			flightID = decodeTextLossy(content[1 : 1+flightIDLen])
			text = decodeTextLossy(content[1+flightIDLen:])
		}
		return protocol.FlightUpdateGeneral{
			FlightID: flightID, Text: text, Repeat: repeat, Prio: priority,
			PartNo: fragPartNo, TotalParts: fragTotalParts,
		}

	default:
		// unknown/system/emergency/reserved carry no content encoding of
		// their own; surface as an opaque basic payload so callers still
		// see the bytes rather than dropping them.
		return protocol.GeneralBasic{
			Content: append([]byte(nil), content...), Repeat: repeat, Prio: priority,
			PartNo: fragPartNo, TotalParts: fragTotalParts,
		}
	}
}

// decodeTextLossy tolerates malformed UTF-8 at chunk boundaries
// by substituting the replacement character rather than erroring.
func decodeTextLossy(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}
