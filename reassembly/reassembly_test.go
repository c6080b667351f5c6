package reassembly

import (
	"testing"
	"time"

	"github.com/user/vuelink/protocol"
)

func alwaysForward(protocol.Message) bool { return true }
func neverForward(protocol.Message) bool { return false }

func TestAddFragmentCompletesInOrder(t *testing.T) {
	r := New(60*time.Second, neverForward)
	now := time.Now()

	res, done := r.AddFragment("dev1", protocol.GeneralText{Text: "AAA", PartNo: 1, TotalParts: 3, Prio: protocol.PriorityLow}, now)
	if done {
		t.Fatal("should not be done after first fragment")
	}
	res, done = r.AddFragment("dev1", protocol.GeneralText{Text: "BBB", PartNo: 2, TotalParts: 3, Prio: protocol.PriorityLow}, now)
	if done {
		t.Fatal("should not be done after second fragment")
	}
	res, done = r.AddFragment("dev1", protocol.GeneralText{Text: "CCC", PartNo: 3, TotalParts: 3, Prio: protocol.PriorityLow}, now)
	if !done {
		t.Fatal("should be done after third fragment")
	}
	text := res.Message.(protocol.GeneralText).Text
	if text != "AAABBBCCC" {
		t.Fatalf("expected concatenated text, got %q", text)
	}
}

func TestAddFragmentToleratesOutOfOrderArrival(t *testing.T) {
	r := New(60*time.Second, neverForward)
	now := time.Now()

	r.AddFragment("dev1", protocol.GeneralText{Text: "CCC", PartNo: 3, TotalParts: 3}, now)
	r.AddFragment("dev1", protocol.GeneralText{Text: "AAA", PartNo: 1, TotalParts: 3}, now)
	res, done := r.AddFragment("dev1", protocol.GeneralText{Text: "BBB", PartNo: 2, TotalParts: 3}, now)
	if !done {
		t.Fatal("should be done after all three fragments arrive, regardless of order")
	}
	if res.Message.(protocol.GeneralText).Text != "AAABBBCCC" {
		t.Fatalf("expected correctly ordered concatenation, got %q", res.Message.(protocol.GeneralText).Text)
	}
}

func TestForwardDecisionComputedOnFirstFragment(t *testing.T) {
	calls := 0
	predict := func(m protocol.Message) bool {
		calls++
		return calls == 1 // only the first call (first fragment) would return true
	}
	r := New(60*time.Second, predict)
	now := time.Now()

	r.AddFragment("dev1", protocol.GeneralText{Text: "A", PartNo: 1, TotalParts: 2}, now)
	res, done := r.AddFragment("dev1", protocol.GeneralText{Text: "B", PartNo: 2, TotalParts: 2}, now)
	if !done {
		t.Fatal("expected completion")
	}
	if !res.WillForward {
		t.Fatal("expected the decision computed on the first fragment (true) to win, even though a later call would differ")
	}
}

func TestGCDropsStaleBuckets(t *testing.T) {
	r := New(60*time.Second, neverForward)
	now := time.Now()

	r.AddFragment("dev1", protocol.GeneralText{Text: "A", PartNo: 1, TotalParts: 3}, now)
	if r.Len() != 1 {
		t.Fatalf("expected 1 open bucket, got %d", r.Len())
	}

	dropped := r.GC(now.Add(61 * time.Second))
	if dropped != 1 {
		t.Fatalf("expected 1 dropped bucket, got %d", dropped)
	}
	if r.Len() != 0 {
		t.Fatalf("expected 0 open buckets after GC, got %d", r.Len())
	}
}

func TestStaleFragmentStartsNewBucket(t *testing.T) {
	r := New(60*time.Second, neverForward)
	now := time.Now()

	r.AddFragment("dev1", protocol.GeneralText{Text: "part1", PartNo: 1, TotalParts: 3}, now)
	r.GC(now.Add(61 * time.Second))

	// Remaining parts arrive after GC already dropped the bucket; they start fresh.
	later := now.Add(61 * time.Second)
	_, done := r.AddFragment("dev1", protocol.GeneralText{Text: "part2", PartNo: 2, TotalParts: 3}, later)
	if done {
		t.Fatal("should not complete: part 1 was lost when the stale bucket was GC'd")
	}
}

func TestDistinctSourcesDoNotCollide(t *testing.T) {
	r := New(60*time.Second, neverForward)
	now := time.Now()

	r.AddFragment("dev1", protocol.GeneralText{Text: "A", PartNo: 1, TotalParts: 2}, now)
	r.AddFragment("dev2", protocol.GeneralText{Text: "B", PartNo: 1, TotalParts: 2}, now)
	if r.Len() != 2 {
		t.Fatalf("expected 2 independent buckets, got %d", r.Len())
	}
}

func TestFlightUpdateGeneralCombinesFlightIDFromFirstFragment(t *testing.T) {
	r := New(60*time.Second, alwaysForward)
	now := time.Now()

	r.AddFragment("dev1", protocol.FlightUpdateGeneral{FlightID: "FL99", Text: "Gate ", PartNo: 1, TotalParts: 2}, now)
	res, done := r.AddFragment("dev1", protocol.FlightUpdateGeneral{FlightID: "FL99", Text: "changed", PartNo: 2, TotalParts: 2}, now)
	if !done {
		t.Fatal("expected completion")
	}
	fug := res.Message.(protocol.FlightUpdateGeneral)
	if fug.FlightID != "FL99" || fug.Text != "Gate changed" {
		t.Fatalf("unexpected combined message: %+v", fug)
	}
}
