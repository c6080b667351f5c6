package protocol

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// StoredMessage is a history record: the message identity fields plus the
// instant it was accepted. Identity for deduplication never uses
// ReceivedAt — see Equivalent.
type StoredMessage struct {
	Message    Message
	ReceivedAt time.Time
}

// storedRecord names the on-disk JSON fields: messageType,
// priority, updateType?, repeatFlag, partNumber, totalParts, flightId?,
// textContent?, content_base64?, receivedTimestamp. Enums are stored by
// symbolic name; byte payloads are base64.
type storedRecord struct {
	MessageType       MessageType       `json:"messageType"`
	Priority          Priority          `json:"priority"`
	UpdateType        *FlightUpdateType `json:"updateType,omitempty"`
	RepeatFlag        bool              `json:"repeatFlag"`
	PartNumber        int               `json:"partNumber,omitempty"`
	TotalParts        int               `json:"totalParts,omitempty"`
	FlightID          string            `json:"flightId,omitempty"`
	TextContent       string            `json:"textContent,omitempty"`
	ContentBase64     string            `json:"content_base64,omitempty"`
	ReceivedTimestamp string            `json:"receivedTimestamp"`
}

// MarshalJSON encodes the StoredMessage in the persisted storedRecord shape.
func (s StoredMessage) MarshalJSON() ([]byte, error) {
	rec := storedRecord{
		MessageType:       s.Message.Kind(),
		Priority:          s.Message.GetPriority(),
		RepeatFlag:        s.Message.GetRepeat(),
		ReceivedTimestamp: s.ReceivedAt.UTC().Format(time.RFC3339Nano),
	}
	switch m := s.Message.(type) {
	case GeneralBasic:
		rec.ContentBase64 = base64.StdEncoding.EncodeToString(m.Content)
		rec.PartNumber = m.PartNo
		rec.TotalParts = m.TotalParts
	case GeneralText:
		rec.TextContent = m.Text
		rec.PartNumber = m.PartNo
		rec.TotalParts = m.TotalParts
	case FlightUpdate:
		rec.FlightID = m.FlightID
		ut := m.UpdateType
		rec.UpdateType = &ut
	case FlightUpdateGeneral:
		rec.FlightID = m.FlightID
		rec.TextContent = m.Text
		rec.PartNumber = m.PartNo
		rec.TotalParts = m.TotalParts
	}
	return json.Marshal(rec)
}

// UnmarshalJSON decodes a persisted record. Corrupt or unrecognized
// payloads report an error so the caller (history.Store's loader) can skip the
// entry without aborting, per the persistence contract.
func (s *StoredMessage) UnmarshalJSON(data []byte) error {
	var rec storedRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("corrupt stored message: %w", err)
	}

	receivedAt, err := time.Parse(time.RFC3339Nano, rec.ReceivedTimestamp)
	if err != nil {
		return fmt.Errorf("corrupt stored message timestamp: %w", err)
	}

	var msg Message
	switch rec.MessageType {
	case MessageTypeGeneralBasic:
		content, err := base64.StdEncoding.DecodeString(rec.ContentBase64)
		if err != nil {
			return fmt.Errorf("corrupt stored message content: %w", err)
		}
		msg = GeneralBasic{
			Content: content, Repeat: rec.RepeatFlag, Prio: rec.Priority,
			PartNo: rec.PartNumber, TotalParts: rec.TotalParts,
		}
	case MessageTypeGeneralText:
		msg = GeneralText{
			Text: rec.TextContent, Repeat: rec.RepeatFlag, Prio: rec.Priority,
			PartNo: rec.PartNumber, TotalParts: rec.TotalParts,
		}
	case MessageTypeFlightUpdate:
		ut := FlightUpdateGeneralKind
		if rec.UpdateType != nil {
			ut = *rec.UpdateType
		}
		msg = FlightUpdate{FlightID: rec.FlightID, UpdateType: ut, Repeat: rec.RepeatFlag, Prio: rec.Priority}
	case MessageTypeFlightUpdateGeneral:
		msg = FlightUpdateGeneral{
			FlightID: rec.FlightID, Text: rec.TextContent, Repeat: rec.RepeatFlag, Prio: rec.Priority,
			PartNo: rec.PartNumber, TotalParts: rec.TotalParts,
		}
	default:
		return fmt.Errorf("corrupt stored message: unsupported messageType %v", rec.MessageType)
	}

	s.Message = msg
	s.ReceivedAt = receivedAt
	return nil
}
