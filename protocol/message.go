package protocol

// Message is the tagged value exchanged throughout this module: exactly
// one of the four concrete types below, identified by Kind().
type Message interface {
	Kind() MessageType
	GetPriority() Priority
	GetRepeat() bool
}

// Fragment is implemented by message variants the Codec is allowed to
// split across several advertisements (generalBasic, generalText,
// flightUpdateGeneral). PartNo/TotalParts are filled in by the
// Codec during splitting and are logically absent on a whole message
// (both zero).
type Fragment interface {
	Message
	PartInfo() (partNo, totalParts int)
}

// GeneralBasic carries an opaque byte payload. Content is treated as raw
// bytes everywhere — encode, dedup equivalence, persistence — per the
// resolution of the open question; NewGeneralBasicText is the
// string-composing convenience that does the UTF-8 encode at the boundary.
// PartNo/TotalParts are filled in by the Codec during splitting, exactly
// like GeneralText's, and are zero on a whole message.
type GeneralBasic struct {
	Content    []byte
	Repeat     bool
	Prio       Priority
	PartNo     int
	TotalParts int
}

func NewGeneralBasicText(text string, repeat bool, prio Priority) GeneralBasic {
	return GeneralBasic{Content: []byte(text), Repeat: repeat, Prio: prio}
}

func (m GeneralBasic) Kind() MessageType { return MessageTypeGeneralBasic }
func (m GeneralBasic) GetPriority() Priority { return m.Prio }
func (m GeneralBasic) GetRepeat() bool { return m.Repeat }
func (m GeneralBasic) PartInfo() (int, int) { return m.PartNo, m.TotalParts }

// GeneralText carries free-form UTF-8 text that may span multiple parts.
// PartNo/TotalParts are 1-indexed and only meaningful on a fragment; a
// whole message, freshly composed or reassembled, leaves them zero.
type GeneralText struct {
	Text       string
	Repeat     bool
	Prio       Priority
	PartNo     int
	TotalParts int
}

func (m GeneralText) Kind() MessageType { return MessageTypeGeneralText }
func (m GeneralText) GetPriority() Priority { return m.Prio }
func (m GeneralText) GetRepeat() bool { return m.Repeat }
func (m GeneralText) PartInfo() (int, int) { return m.PartNo, m.TotalParts }

// FlightUpdate is always single-packet: a flight identifier plus
// a structured update kind.
type FlightUpdate struct {
	FlightID   string
	UpdateType FlightUpdateType
	Repeat     bool
	Prio       Priority
}

func (m FlightUpdate) Kind() MessageType { return MessageTypeFlightUpdate }
func (m FlightUpdate) GetPriority() Priority { return m.Prio }
func (m FlightUpdate) GetRepeat() bool { return m.Repeat }

// FlightUpdateGeneral pairs a flight identifier with free text, and may
// span multiple parts (each chunk repeats the flight ID).
type FlightUpdateGeneral struct {
	FlightID   string
	Text       string
	Repeat     bool
	Prio       Priority
	PartNo     int
	TotalParts int
}

func (m FlightUpdateGeneral) Kind() MessageType { return MessageTypeFlightUpdateGeneral }
func (m FlightUpdateGeneral) GetPriority() Priority { return m.Prio }
func (m FlightUpdateGeneral) GetRepeat() bool { return m.Repeat }
func (m FlightUpdateGeneral) PartInfo() (int, int) { return m.PartNo, m.TotalParts }

// IsSplittable reports whether the Codec is allowed to fragment a message
// of this kind across multiple advertisements.
func IsSplittable(t MessageType) bool {
	switch t {
	case MessageTypeGeneralBasic, MessageTypeGeneralText, MessageTypeFlightUpdateGeneral:
		return true
	default:
		return false
	}
}

// WithRepeat returns a copy of m with the repeat flag forced to the given
// value. Used by the Forwarder to force repeat=true on rebroadcast.
func WithRepeat(m Message, repeat bool) Message {
	switch v := m.(type) {
	case GeneralBasic:
		v.Repeat = repeat
		return v
	case GeneralText:
		v.Repeat = repeat
		return v
	case FlightUpdate:
		v.Repeat = repeat
		return v
	case FlightUpdateGeneral:
		v.Repeat = repeat
		return v
	default:
		return m
	}
}
