package service

import (
	"context"
	"errors"
	"testing"

	"pos-backend/internal/apperr"
	"pos-backend/internal/session"
)

func newNavigation(t *testing.T) (NavigationService, *session.Manager, func(role string) *session.Session) {
	t.Helper()
	db := newTestDB(t)
	sessions := session.NewManager()
	nav := NewNavigationService(newModuleService(db), sessions)

	login := func(role string) *session.Session {
		r := roleByName(t, db, role)
		return sessions.Create(1, "someone", &r.ID, r.Name)
	}
	return nav, sessions, login
}

func TestNavigateAllowed(t *testing.T) {
	nav, sessions, login := newNavigation(t)
	ctx := context.Background()

	sess := login("cashier")
	if sess.CurrentModule != session.HomeModule {
		t.Fatalf("fresh session starts at %q, want %q", sess.CurrentModule, session.HomeModule)
	}

	if err := nav.Navigate(ctx, sess, "cashier"); err != nil {
		t.Fatal(err)
	}
	if got := sessions.Get(sess.ID); got.CurrentModule != "cashier" {
		t.Fatalf("current module %q after allowed navigation", got.CurrentModule)
	}
}

func TestNavigateRefusedKeepsState(t *testing.T) {
	nav, sessions, login := newNavigation(t)
	ctx := context.Background()

	sess := login("cashier")
	if err := nav.Navigate(ctx, sess, "cashier"); err != nil {
		t.Fatal(err)
	}

	// settings is gated behind a permission the cashier lacks; inventory
	// likewise; an unknown name is refused the same way.
	for _, target := range []string{"settings", "inventory", "nonsense"} {
		if err := nav.Navigate(ctx, sess, target); !errors.Is(err, apperr.ErrAccessDenied) {
			t.Fatalf("navigate to %q: want ErrAccessDenied, got %v", target, err)
		}
		if got := sessions.Get(sess.ID); got.CurrentModule != "cashier" {
			t.Fatalf("refused navigation to %q moved the session to %q", target, got.CurrentModule)
		}
	}
}

func TestNavigateNoSession(t *testing.T) {
	nav, _, _ := newNavigation(t)

	if err := nav.Navigate(context.Background(), nil, "home"); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Fatalf("nil session: want ErrAccessDenied, got %v", err)
	}
}

func TestNavigateAfterLogout(t *testing.T) {
	nav, sessions, login := newNavigation(t)
	ctx := context.Background()

	sess := login("admin")
	sessions.Delete(sess.ID)

	// The caller may still hold the session value, but the registry no
	// longer does; the move must be refused.
	if err := nav.Navigate(ctx, sess, "settings"); !errors.Is(err, apperr.ErrAccessDenied) {
		t.Fatalf("navigate after logout: want ErrAccessDenied, got %v", err)
	}
}
