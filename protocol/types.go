// Package protocol defines Vuelink's data model: the message types a node
// can compose, the priorities attached to them, and the bounded-history
// record used for duplicate suppression. None of this package touches the
// wire — see codec for that.
package protocol

import "fmt"

// MessageType is the 3-bit enum packed into byte 1 bits 0..2 of every
// advertisement.
type MessageType uint8

const (
	MessageTypeUnknown             MessageType = 0
	MessageTypeGeneralBasic        MessageType = 1
	MessageTypeGeneralText         MessageType = 2
	MessageTypeFlightUpdate        MessageType = 3
	MessageTypeFlightUpdateGeneral MessageType = 4
	MessageTypeSystem              MessageType = 5
	MessageTypeEmergency           MessageType = 6
	MessageTypeReserved            MessageType = 7
)

var messageTypeNames = map[MessageType]string{
	MessageTypeUnknown:             "unknown",
	MessageTypeGeneralBasic:        "generalBasic",
	MessageTypeGeneralText:         "generalText",
	MessageTypeFlightUpdate:        "flightUpdate",
	MessageTypeFlightUpdateGeneral: "flightUpdateGeneral",
	MessageTypeSystem:              "system",
	MessageTypeEmergency:           "emergency",
	MessageTypeReserved:            "reserved",
}

var messageTypeByName = func() map[string]MessageType {
	m := make(map[string]MessageType, len(messageTypeNames))
	for k, v := range messageTypeNames {
		m[v] = k
	}
	return m
}()

// String returns the symbolic name used in the persistence layer.
func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("messageType(%d)", uint8(t))
}

// ParseMessageType resolves a persisted symbolic name back to a MessageType.
// Unknown names resolve to MessageTypeUnknown rather than erroring, matching
// the "unknown fields ignored on read" persistence contract StoredMessage
// follows.
func ParseMessageType(name string) MessageType {
	if t, ok := messageTypeByName[name]; ok {
		return t
	}
	return MessageTypeUnknown
}

// MarshalJSON emits the symbolic enum name.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON accepts the symbolic enum name.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	name, err := unquoteJSONString(data)
	if err != nil {
		return err
	}
	*t = ParseMessageType(name)
	return nil
}

// Priority is the 3-bit enum packed into byte 1 bits 3..5.
type Priority uint8

const (
	PriorityLow       Priority = 0
	PriorityMedium    Priority = 1
	PriorityHigh      Priority = 2
	PriorityUrgent    Priority = 3
	PriorityEmergency Priority = 4
	PrioritySystem    Priority = 5
	PriorityTest      Priority = 6
	PriorityReserved  Priority = 7
)

var priorityNames = map[Priority]string{
	PriorityLow:       "low",
	PriorityMedium:    "medium",
	PriorityHigh:      "high",
	PriorityUrgent:    "urgent",
	PriorityEmergency: "emergency",
	PrioritySystem:    "system",
	PriorityTest:      "test",
	PriorityReserved:  "reserved",
}

var priorityByName = func() map[string]Priority {
	m := make(map[string]Priority, len(priorityNames))
	for k, v := range priorityNames {
		m[v] = k
	}
	return m
}()

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("priority(%d)", uint8(p))
}

// ParsePriority resolves a persisted symbolic name, defaulting to low.
func ParsePriority(name string) Priority {
	if p, ok := priorityByName[name]; ok {
		return p
	}
	return PriorityLow
}

func (p Priority) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

func (p *Priority) UnmarshalJSON(data []byte) error {
	name, err := unquoteJSONString(data)
	if err != nil {
		return err
	}
	*p = ParsePriority(name)
	return nil
}

// IsForwardEligible reports whether a priority alone, independent of the
// repeat flag, makes a message eligible for forwarding.
func (p Priority) IsForwardEligible() bool {
	return p == PriorityUrgent || p == PriorityEmergency
}

// FlightUpdateType is the byte-sized enum carried in flightUpdate /
// flightUpdateGeneral content.
type FlightUpdateType uint8

const (
	FlightUpdateGeneralKind FlightUpdateType = 0
	FlightUpdateGateChange  FlightUpdateType = 1
	FlightUpdateBoarding    FlightUpdateType = 2
	FlightUpdateDelay       FlightUpdateType = 3
	FlightUpdateCancel      FlightUpdateType = 4
	FlightUpdateEmergency   FlightUpdateType = 5
)

var flightUpdateTypeNames = map[FlightUpdateType]string{
	FlightUpdateGeneralKind: "general",
	FlightUpdateGateChange:  "gateChange",
	FlightUpdateBoarding:    "boarding",
	FlightUpdateDelay:       "delay",
	FlightUpdateCancel:      "cancellation",
	FlightUpdateEmergency:   "emergency",
}

var flightUpdateTypeByName = func() map[string]FlightUpdateType {
	m := make(map[string]FlightUpdateType, len(flightUpdateTypeNames))
	for k, v := range flightUpdateTypeNames {
		m[v] = k
	}
	return m
}()

func (f FlightUpdateType) String() string {
	if name, ok := flightUpdateTypeNames[f]; ok {
		return name
	}
	return fmt.Sprintf("flightUpdateType(%d)", uint8(f))
}

// ParseFlightUpdateType resolves a symbolic name, defaulting to "general"
// per the parse-time content-truncation rule.
func ParseFlightUpdateType(name string) FlightUpdateType {
	if f, ok := flightUpdateTypeByName[name]; ok {
		return f
	}
	return FlightUpdateGeneralKind
}

func (f FlightUpdateType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + f.String() + `"`), nil
}

func (f *FlightUpdateType) UnmarshalJSON(data []byte) error {
	name, err := unquoteJSONString(data)
	if err != nil {
		return err
	}
	*f = ParseFlightUpdateType(name)
	return nil
}

func unquoteJSONString(data []byte) (string, error) {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return "", fmt.Errorf("expected JSON string, got %q", data)
	}
	return string(data[1 : len(data)-1]), nil
}
