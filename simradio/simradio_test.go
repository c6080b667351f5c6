package simradio

import (
	"context"
	"testing"
	"time"
)

func TestScanningNodeReceivesAdvertisingNodePayload(t *testing.T) {
	m := NewMedium()
	sender := m.Register("a")
	receiver := m.Register("b")
	receiver.StartScanning(context.Background())

	sender.StartAdvertising(context.Background(), "a", 0xFFFF, []byte{1, 2, 3}, false)

	select {
	case adv := <-receiver.Advertisements():
		if string(adv.ManufacturerData[0].Bytes) != "\x01\x02\x03" {
			t.Fatalf("unexpected payload: %v", adv.ManufacturerData[0].Bytes)
		}
	case <-time.After(time.Second):
		t.Fatal("expected receiver to hear the advertisement")
	}
}

func TestNonScanningNodeDoesNotReceive(t *testing.T) {
	m := NewMedium()
	sender := m.Register("a")
	receiver := m.Register("b") // never starts scanning

	sender.StartAdvertising(context.Background(), "a", 0xFFFF, []byte{9}, false)

	select {
	case <-receiver.Advertisements():
		t.Fatal("expected no delivery to a non-scanning node")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSenderDoesNotHearItself(t *testing.T) {
	m := NewMedium()
	sender := m.Register("a")
	sender.StartScanning(context.Background())

	sender.StartAdvertising(context.Background(), "a", 0xFFFF, []byte{9}, false)

	select {
	case <-sender.Advertisements():
		t.Fatal("expected a node never to receive its own advertisement")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnregisterStopsDelivery(t *testing.T) {
	m := NewMedium()
	sender := m.Register("a")
	receiver := m.Register("b")
	receiver.StartScanning(context.Background())
	m.Unregister("b")

	sender.StartAdvertising(context.Background(), "a", 0xFFFF, []byte{9}, false)

	select {
	case <-receiver.Advertisements():
		t.Fatal("expected no delivery to an unregistered node")
	case <-time.After(50 * time.Millisecond):
	}
}
