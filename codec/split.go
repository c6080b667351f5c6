package codec

import (
	"github.com/user/vuelink/config"
	"github.com/user/vuelink/protocol"
)

// Split fragments a splittable message into wire-representable chunks:
// generalBasic/generalText split at 21-byte boundaries; flightUpdateGeneral
// splits at 21-(len(flightId)+1)-byte boundaries and repeats the flight ID
// and its length prefix in every chunk. The split is on raw UTF-8 byte
// boundaries, not codepoint boundaries — the Codec's decoder tolerates the
// resulting malformed edges.
//
// Where the original Android/iOS implementation wraps part numbers modulo
// 7 when N exceeds the 3-bit wire field, Split instead refuses: a wrapped
// partNo/totalParts would misassemble on the receiving end, so a message
// needing more than 7 parts is rejected outright rather than silently
// corrupted.
func Split(m protocol.Message) ([]protocol.Message, error) {
	switch v := m.(type) {
	case protocol.GeneralBasic:
		chunks, err := splitBytes(v.Content, config.MaxContentBytes)
		if err != nil {
			return nil, err
		}
		out := make([]protocol.Message, len(chunks))
		for i, c := range chunks {
			out[i] = protocol.GeneralBasic{Content: c, Repeat: v.Repeat, Prio: v.Prio, PartNo: i + 1, TotalParts: len(chunks)}
		}
		return out, nil

	case protocol.GeneralText:
		chunks, err := splitBytes([]byte(v.Text), config.MaxContentBytes)
		if err != nil {
			return nil, err
		}
		out := make([]protocol.Message, len(chunks))
		for i, c := range chunks {
			out[i] = protocol.GeneralText{Text: string(c), Repeat: v.Repeat, Prio: v.Prio, PartNo: i + 1, TotalParts: len(chunks)}
		}
		return out, nil

	case protocol.FlightUpdateGeneral:
		chunkSize := config.MaxContentBytes - (len(v.FlightID) + 1)
		if chunkSize <= 0 {
			return nil, ErrPayloadTooLarge
		}
		chunks, err := splitBytes([]byte(v.Text), chunkSize)
		if err != nil {
			return nil, err
		}
		out := make([]protocol.Message, len(chunks))
		for i, c := range chunks {
			out[i] = protocol.FlightUpdateGeneral{
				FlightID: v.FlightID, Text: string(c), Repeat: v.Repeat, Prio: v.Prio,
				PartNo: i + 1, TotalParts: len(chunks),
			}
		}
		return out, nil

	default:
		return nil, ErrNotSplittable
	}
}

// splitBytes breaks data into chunkSize-byte pieces, refusing (rather than
// wrapping) when more than config.MaxWireParts chunks would be needed.
func splitBytes(data []byte, chunkSize int) ([][]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyContent
	}
	n := (len(data) + chunkSize - 1) / chunkSize
	if n > config.MaxWireParts {
		return nil, ErrInvalidPartNumbering
	}
	chunks := make([][]byte, n)
	for i := 0; i < n; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > len(data) {
			end = len(data)
		}
		chunk := make([]byte, end-start)
		copy(chunk, data[start:end])
		chunks[i] = chunk
	}
	return chunks, nil
}
