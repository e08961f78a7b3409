package session

import (
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestCreateStartsAtHome(t *testing.T) {
	m := NewManager()

	roleID := uint(2)
	s := m.Create(1, "admin", &roleID, "admin")

	if s.CurrentModule != HomeModule {
		t.Fatalf("new session at %q, want %q", s.CurrentModule, HomeModule)
	}
	if s.ID == uuid.Nil {
		t.Fatal("session has no id")
	}
	if got := m.Get(s.ID); got == nil || got.Username != "admin" {
		t.Fatalf("registry lookup returned %+v", got)
	}
}

func TestDeleteLogsOut(t *testing.T) {
	m := NewManager()

	s := m.Create(1, "admin", nil, "")
	m.Delete(s.ID)

	if m.Get(s.ID) != nil {
		t.Fatal("deleted session still resolvable")
	}
	if ok := m.SetModule(s.ID, "cashier"); ok {
		t.Fatal("SetModule succeeded on a logged-out session")
	}

	// Deleting twice is harmless.
	m.Delete(s.ID)
}

func TestSessionsAreIndependent(t *testing.T) {
	m := NewManager()

	a := m.Create(1, "one", nil, "")
	b := m.Create(2, "two", nil, "")

	if !m.SetModule(a.ID, "cashier") {
		t.Fatal("SetModule failed on live session")
	}
	if got := m.Get(b.ID); got.CurrentModule != HomeModule {
		t.Fatalf("moving one session moved another: %q", got.CurrentModule)
	}

	m.Delete(a.ID)
	if m.Get(b.ID) == nil {
		t.Fatal("deleting one session deleted another")
	}
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
}

func TestGetReturnsSnapshot(t *testing.T) {
	m := NewManager()

	s := m.Create(1, "admin", nil, "")

	// A snapshot taken before a module change must not observe it, and
	// writing through a snapshot must not reach the registry.
	before := m.Get(s.ID)
	if !m.SetModule(s.ID, "cashier") {
		t.Fatal("SetModule failed on live session")
	}
	if before.CurrentModule != HomeModule {
		t.Fatalf("earlier snapshot changed to %q", before.CurrentModule)
	}
	if got := m.Get(s.ID); got.CurrentModule != "cashier" {
		t.Fatalf("registry at %q, want cashier", got.CurrentModule)
	}

	before.CurrentModule = "settings"
	if got := m.Get(s.ID); got.CurrentModule != "cashier" {
		t.Fatalf("writing through a snapshot reached the registry: %q", got.CurrentModule)
	}
}

// Run with -race: one goroutine navigates while another reads the module off
// sessions obtained from Get, the way a handler does mid-request.
func TestConcurrentNavigationAndReads(t *testing.T) {
	m := NewManager()

	s := m.Create(1, "admin", nil, "")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			target := HomeModule
			if i%2 == 0 {
				target = "cashier"
			}
			m.SetModule(s.ID, target)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			got := m.Get(s.ID)
			if got.CurrentModule != HomeModule && got.CurrentModule != "cashier" {
				t.Errorf("torn read: %q", got.CurrentModule)
				return
			}
		}
	}()
	wg.Wait()
}

func TestConcurrentAccess(t *testing.T) {
	m := NewManager()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n uint) {
			defer wg.Done()
			s := m.Create(n, "user", nil, "")
			m.SetModule(s.ID, "cashier")
			if got := m.Get(s.ID); got == nil {
				t.Error("own session not resolvable")
			}
			m.Delete(s.ID)
		}(uint(i))
	}
	wg.Wait()

	if m.Len() != 0 {
		t.Fatalf("Len() = %d after all logouts, want 0", m.Len())
	}
}
