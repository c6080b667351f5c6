package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/user/vuelink/protocol"
)

func TestNovelMessageAlwaysAccepted(t *testing.T) {
	s := New(50, 10)
	m := protocol.GeneralBasic{Content: []byte("hello"), Prio: protocol.PriorityMedium}
	if !s.Accept(m, time.Now()) {
		t.Fatal("expected novel message to be accepted")
	}
	if s.Len() != 1 {
		t.Fatalf("expected history length 1, got %d", s.Len())
	}
}

func TestDuplicateSuppressed(t *testing.T) {
	s := New(50, 10)
	m := protocol.GeneralBasic{Content: []byte("hello"), Repeat: false, Prio: protocol.PriorityMedium}
	now := time.Now()

	if !s.Accept(m, now) {
		t.Fatal("first arrival should be accepted")
	}
	if s.Accept(m, now) {
		t.Fatal("identical second arrival should be rejected")
	}
	if s.Len() != 1 {
		t.Fatalf("expected history length to stay 1, got %d", s.Len())
	}
}

func TestRepeatReentryThenLoopPrevention(t *testing.T) {
	s := New(50, 10)
	now := time.Now()

	m := protocol.GeneralBasic{Content: []byte("hello"), Repeat: false, Prio: protocol.PriorityMedium}
	if !s.Accept(m, now) {
		t.Fatal("first arrival should be accepted")
	}

	mRepeat := protocol.GeneralBasic{Content: []byte("hello"), Repeat: true, Prio: protocol.PriorityMedium}
	if !s.Accept(mRepeat, now) {
		t.Fatal("repeat=true duplicate should re-enter once")
	}
	if s.Len() != 2 {
		t.Fatalf("expected history length 2, got %d", s.Len())
	}

	if s.Accept(mRepeat, now) {
		t.Fatal("a second repeat=true duplicate of an already-repeated entry should be rejected")
	}
	if s.Len() != 2 {
		t.Fatalf("expected history length to stay 2, got %d", s.Len())
	}
}

func TestCapacityEvictsOldest(t *testing.T) {
	s := New(3, 10)
	now := time.Now()
	for i := 0; i < 5; i++ {
		content := []byte{byte(i)}
		s.Accept(protocol.GeneralBasic{Content: content, Prio: protocol.PriorityLow}, now)
	}
	if s.Len() != 3 {
		t.Fatalf("expected capacity-bounded length 3, got %d", s.Len())
	}
	entries := s.List()
	if entries[len(entries)-1].Message.(protocol.GeneralBasic).Content[0] != 4 {
		t.Fatalf("expected most recent entry to survive eviction")
	}
}

func TestDedupWindowOnlyScansRecentEntries(t *testing.T) {
	s := New(50, 2) // window of 2
	now := time.Now()

	old := protocol.GeneralBasic{Content: []byte("old"), Prio: protocol.PriorityLow}
	s.Accept(old, now)
	s.Accept(protocol.GeneralBasic{Content: []byte("filler1"), Prio: protocol.PriorityLow}, now)
	s.Accept(protocol.GeneralBasic{Content: []byte("filler2"), Prio: protocol.PriorityLow}, now)

	// "old" has scrolled outside the 2-entry window, so a "duplicate" is now novel again.
	if !s.Accept(old, now) {
		t.Fatal("expected entry outside the dedup window to be treated as novel")
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.json")

	s, err := Open(path, 50, 10)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	now := time.Now()
	s.Accept(protocol.FlightUpdate{FlightID: "FL1", UpdateType: protocol.FlightUpdateDelay, Prio: protocol.PriorityUrgent}, now)
	s.Accept(protocol.GeneralText{Text: "hi there", Prio: protocol.PriorityLow}, now)

	reopened, err := Open(path, 50, 10)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Len() != 2 {
		t.Fatalf("expected 2 entries after reload, got %d", reopened.Len())
	}
}

func TestClearRemovesMemoryAndDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.json")

	s, err := Open(path, 50, 10)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.Accept(protocol.GeneralBasic{Content: []byte("x"), Prio: protocol.PriorityLow}, time.Now())

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected 0 entries after clear, got %d", s.Len())
	}

	reopened, err := Open(path, 50, 10)
	if err != nil {
		t.Fatalf("reopen after clear: %v", err)
	}
	if reopened.Len() != 0 {
		t.Fatalf("expected cleared history to stay empty on disk, got %d", reopened.Len())
	}
}

func TestLoadSkipsCorruptEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.json")
	raw := `[{"messageType":"generalBasic","priority":"low","repeatFlag":false,"content_base64":"aGVsbG8=","receivedTimestamp":"2024-01-01T00:00:00Z"}, {"not":"valid"}]`
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s, err := Open(path, 50, 10)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected the one valid entry to survive, got %d", s.Len())
	}
}
