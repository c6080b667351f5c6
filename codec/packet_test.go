package codec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/user/vuelink/protocol"
)

func TestEncodeParseRoundTripGeneralBasic(t *testing.T) {
	m := protocol.GeneralBasic{Content: []byte("Hello"), Repeat: false, Prio: protocol.PriorityMedium}

	b, err := Encode(m)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(b) != 7 {
		t.Fatalf("expected 7-byte advertisement, got %d", len(b))
	}

	parsed, err := Parse(b)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, ok := parsed.(protocol.GeneralBasic)
	if !ok {
		t.Fatalf("expected GeneralBasic, got %T", parsed)
	}
	if !bytes.Equal(got.Content, m.Content) {
		t.Errorf("content mismatch: got %q want %q", got.Content, m.Content)
	}
	if got.Prio != m.Prio || got.Repeat != m.Repeat {
		t.Errorf("metadata mismatch: got %+v", got)
	}
}

func TestEncodeEmptyContentFails(t *testing.T) {
	_, err := Encode(protocol.GeneralBasic{Content: nil, Prio: protocol.PriorityLow})
	if err != ErrEmptyContent {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
}

func TestEncodeOversizedContentTruncates(t *testing.T) {
	content := bytes.Repeat([]byte("a"), 30) // <= 2x max (21*2=42), should truncate
	b, err := Encode(protocol.GeneralBasic{Content: content, Prio: protocol.PriorityLow})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(b) != 2+21 {
		t.Fatalf("expected truncation to 21 content bytes, got %d total bytes", len(b))
	}
}

func TestEncodeHugeContentFails(t *testing.T) {
	content := bytes.Repeat([]byte("a"), 50) // > 2x max
	_, err := Encode(protocol.GeneralBasic{Content: content, Prio: protocol.PriorityLow})
	if err != ErrPayloadTooLarge {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestSplitGeneralTextExactBoundary(t *testing.T) {
	text21 := strings.Repeat("A", 21)
	parts, err := Split(protocol.GeneralText{Text: text21, Prio: protocol.PriorityMedium})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(parts) != 1 {
		t.Fatalf("expected 1 part for exactly-21-byte text, got %d", len(parts))
	}

	text22 := strings.Repeat("A", 22)
	parts, err = Split(protocol.GeneralText{Text: text22, Prio: protocol.PriorityMedium})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts for 22-byte text, got %d", len(parts))
	}
}

func TestSplitTextOfSixtyThreeBytesMakesThreeParts(t *testing.T) {
	text := strings.Repeat("A", 63)
	parts, err := Split(protocol.GeneralText{Text: text, Prio: protocol.PriorityMedium})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(parts))
	}

	var rebuilt strings.Builder
	for i, p := range parts {
		gt := p.(protocol.GeneralText)
		if gt.PartNo != i+1 || gt.TotalParts != 3 {
			t.Errorf("part %d has wrong numbering: %+v", i, gt)
		}
		rebuilt.WriteString(gt.Text)
	}
	if rebuilt.String() != text {
		t.Errorf("reassembled text mismatch")
	}
}

func TestSplitRefusesMoreThanSevenParts(t *testing.T) {
	text := strings.Repeat("A", 21*8) // would need 8 parts
	_, err := Split(protocol.GeneralText{Text: text, Prio: protocol.PriorityMedium})
	if err != ErrInvalidPartNumbering {
		t.Fatalf("expected ErrInvalidPartNumbering, got %v", err)
	}
}

func TestSplitNotSplittableType(t *testing.T) {
	_, err := Split(protocol.FlightUpdate{FlightID: "FL1", UpdateType: protocol.FlightUpdateDelay})
	if err != ErrNotSplittable {
		t.Fatalf("expected ErrNotSplittable, got %v", err)
	}
}

func TestFlightUpdateGeneralSplitRepeatsFlightID(t *testing.T) {
	text := strings.Repeat("B", 40)
	parts, err := Split(protocol.FlightUpdateGeneral{FlightID: "FL123", Text: text, Prio: protocol.PriorityHigh})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(parts) < 2 {
		t.Fatalf("expected multiple parts, got %d", len(parts))
	}
	for _, p := range parts {
		fug := p.(protocol.FlightUpdateGeneral)
		if fug.FlightID != "FL123" {
			t.Errorf("expected flight ID repeated in every chunk, got %q", fug.FlightID)
		}
	}
}

func TestEncodeAllThenParseEachChunk(t *testing.T) {
	text := strings.Repeat("A", 63)
	chunks, err := EncodeAll(protocol.GeneralText{Text: text, Prio: protocol.PriorityMedium})
	if err != nil {
		t.Fatalf("EncodeAll: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}

	var rebuilt strings.Builder
	for i, c := range chunks {
		parsed, err := Parse(c)
		if err != nil {
			t.Fatalf("Parse chunk %d: %v", i, err)
		}
		gt := parsed.(protocol.GeneralText)
		if gt.PartNo != i+1 || gt.TotalParts != 3 {
			t.Errorf("chunk %d numbering mismatch: %+v", i, gt)
		}
		rebuilt.WriteString(gt.Text)
	}
	if rebuilt.String() != text {
		t.Errorf("round-tripped text mismatch")
	}
}

func TestParseRejectsOutOfRangeLengths(t *testing.T) {
	if _, err := Parse([]byte{0x01}); err != ErrMalformedAdvertisement {
		t.Errorf("expected ErrMalformedAdvertisement for 1-byte input, got %v", err)
	}
	tooLong := make([]byte, 24)
	if _, err := Parse(tooLong); err != ErrMalformedAdvertisement {
		t.Errorf("expected ErrMalformedAdvertisement for 24-byte input, got %v", err)
	}
}

func TestParseNeverPanicsOnGarbage(t *testing.T) {
	for n := 2; n <= 23; n++ {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(0xFF - i)
		}
		if _, err := Parse(data); err != nil {
			t.Fatalf("unexpected error for length %d: %v", n, err)
		}
	}
}

func TestParseFlightUpdateDefaultsOnEmptyContent(t *testing.T) {
	buf := []byte{0x01, byte(protocol.MessageTypeFlightUpdate)}
	msg, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	fu := msg.(protocol.FlightUpdate)
	if fu.UpdateType != protocol.FlightUpdateGeneralKind || fu.FlightID != "" {
		t.Errorf("expected default update type and empty flight id, got %+v", fu)
	}
}

func TestFlightUpdateRoundTrip(t *testing.T) {
	m := protocol.FlightUpdate{FlightID: "FL1", UpdateType: protocol.FlightUpdateDelay, Repeat: true, Prio: protocol.PriorityUrgent}
	b, err := Encode(m)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	parsed, err := Parse(b)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := parsed.(protocol.FlightUpdate)
	if got != m {
		t.Errorf("round-trip mismatch: got %+v want %+v", got, m)
	}
}
