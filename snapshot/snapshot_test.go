package snapshot

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/user/vuelink/protocol"
)

func TestRoundTrip(t *testing.T) {
	msgs := []protocol.Message{
		protocol.GeneralText{Text: "gate moved to B12", Prio: protocol.PriorityMedium},
		protocol.FlightUpdate{FlightID: "FL42", UpdateType: protocol.FlightUpdateDelay, Prio: protocol.PriorityUrgent},
		protocol.GeneralBasic{Content: []byte{0x01, 0x02, 0x03}, Prio: protocol.PriorityLow},
	}
	forwardFlags := []bool{true, true, false}

	encoded, err := Encode(msgs, forwardFlags)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded) != len(msgs) {
		t.Fatalf("expected %d decoded messages, got %d", len(msgs), len(decoded))
	}

	gotText := decoded[0].Message.(protocol.GeneralText)
	if gotText.Text != "gate moved to B12" || !decoded[0].ShouldForward {
		t.Fatalf("unexpected first message: %+v forward=%v", gotText, decoded[0].ShouldForward)
	}

	gotFU := decoded[1].Message.(protocol.FlightUpdate)
	if gotFU.FlightID != "FL42" || gotFU.UpdateType != protocol.FlightUpdateDelay {
		t.Fatalf("unexpected second message: %+v", gotFU)
	}

	gotBasic := decoded[2].Message.(protocol.GeneralBasic)
	if string(gotBasic.Content) != "\x01\x02\x03" || decoded[2].ShouldForward {
		t.Fatalf("unexpected third message: %+v forward=%v", gotBasic, decoded[2].ShouldForward)
	}
}

func TestEncodeIsURLSafeNoPadding(t *testing.T) {
	encoded, err := Encode([]protocol.Message{protocol.GeneralBasic{Content: []byte("x"), Prio: protocol.PriorityLow}}, []bool{false})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if strings.ContainsAny(encoded, "+/=") {
		t.Fatalf("expected URL-safe, unpadded base64, got %q", encoded)
	}
}

func TestDecodeRejectsWrongVersion(t *testing.T) {
	encoded, _ := Encode([]protocol.Message{protocol.GeneralBasic{Content: []byte("x"), Prio: protocol.PriorityLow}}, []bool{false})
	raw := mustDecodeBase64(t, encoded)
	raw[0] = 2
	tampered := mustEncodeBase64(raw)

	if _, err := Decode(tampered); err != ErrUnsupportedVersion {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestDecodeRejectsTruncatedContent(t *testing.T) {
	encoded, _ := Encode([]protocol.Message{protocol.GeneralText{Text: "hello world", Prio: protocol.PriorityLow}}, []bool{false})
	raw := mustDecodeBase64(t, encoded)
	truncated := mustEncodeBase64(raw[:len(raw)-3])

	if _, err := Decode(truncated); err != ErrTruncated {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestEncodeRejectsMismatchedLengths(t *testing.T) {
	_, err := Encode([]protocol.Message{protocol.GeneralBasic{Content: []byte("x"), Prio: protocol.PriorityLow}}, nil)
	if err == nil {
		t.Fatal("expected an error for mismatched msgs/shouldForward lengths")
	}
}

func TestEmptySnapshotRoundTrips(t *testing.T) {
	encoded, err := Encode(nil, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded) != 0 {
		t.Fatalf("expected 0 messages, got %d", len(decoded))
	}
}

func mustDecodeBase64(t *testing.T, s string) []byte {
	t.Helper()
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		t.Fatalf("base64 decode: %v", err)
	}
	return b
}

func mustEncodeBase64(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}
