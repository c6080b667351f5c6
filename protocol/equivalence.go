package protocol

import "bytes"

// Equivalent implements the content-equivalence relation: equal messageType
// AND type-specific equality. receivedAt, radio metadata, partNo and
// totalParts are explicitly excluded.
func Equivalent(a, b Message) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case GeneralText:
		bv := b.(GeneralText)
		return av.Text == bv.Text
	case FlightUpdateGeneral:
		bv := b.(FlightUpdateGeneral)
		return av.Text == bv.Text && av.FlightID == bv.FlightID
	case GeneralBasic:
		bv := b.(GeneralBasic)
		return bytes.Equal(av.Content, bv.Content)
	case FlightUpdate:
		bv := b.(FlightUpdate)
		return av.FlightID == bv.FlightID && av.UpdateType == bv.UpdateType
	default:
		return false
	}
}
