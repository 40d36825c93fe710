package session_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/kalambet/crawldash/internal/backend"
	"github.com/kalambet/crawldash/internal/session"
)

func waitFor(t *testing.T, events <-chan session.Event, kind session.EventKind) session.Event {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case e := <-events:
			if e.Kind == kind {
				return e
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", kind)
		}
	}
}

func TestSyncer_RefreshesRestoredSession(t *testing.T) {
	f := newFixture(t)
	f.fake.SetSites(siteA)
	// Issue T on the fake so the restored token is accepted.
	f.fake.Client().Login(ctx, creds)
	f.store.Set(session.TokenKey, "T")
	c := f.newController(t)

	done, _ := c.Events().Subscribe(4, session.RefreshCompleted)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go session.NewSyncer(c).Run(runCtx)

	e := waitFor(t, done, session.RefreshCompleted)
	if e.Err != nil {
		t.Errorf("refresh error: %v", e.Err)
	}
	if len(c.Sites()) != 1 {
		t.Errorf("sites = %v, want the restored session to be mirrored", c.Sites())
	}
}

func TestSyncer_RefreshesOnAuthenticate(t *testing.T) {
	f := newFixture(t)
	f.fake.SetSites(siteA)

	done, _ := f.ctrl.Events().Subscribe(4, session.RefreshCompleted)
	syncer := session.NewSyncer(f.ctrl)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go syncer.Run(runCtx)
	<-syncer.Ready()

	if n := len(f.fake.Requests()); n != 0 {
		t.Fatalf("syncer fetched %d times without a session", n)
	}
	if _, err := f.ctrl.Authenticate(ctx, creds); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	waitFor(t, done, session.RefreshCompleted)

	for _, path := range []string{backend.SitesPath, backend.KeywordsPath, backend.TasksPath, backend.ResultsPath} {
		if n := f.fake.Count(http.MethodGet, path); n != 1 {
			t.Errorf("GET %s count = %d, want 1", path, n)
		}
	}
}

func TestSyncer_StopsOnCancel(t *testing.T) {
	f := newFixture(t)
	runCtx, cancel := context.WithCancel(ctx)
	stopped := make(chan struct{})
	go func() {
		session.NewSyncer(f.ctrl).Run(runCtx)
		close(stopped)
	}()
	cancel()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestBus_FiltersKinds(t *testing.T) {
	bus := session.NewBus()
	events, cancel := bus.Subscribe(2, session.SessionEnded)

	bus.Publish(session.Event{Kind: session.SessionEstablished})
	bus.Publish(session.Event{Kind: session.SessionEnded})

	e := <-events
	if e.Kind != session.SessionEnded || e.At.IsZero() {
		t.Errorf("event = %+v", e)
	}
	cancel()
	cancel()
	if _, ok := <-events; ok {
		t.Error("channel still open after cancel")
	}
}

func TestBus_DropsForFullSubscriber(t *testing.T) {
	bus := session.NewBus()
	events, cancel := bus.Subscribe(1)
	defer cancel()

	bus.Publish(session.Event{Kind: session.SessionEstablished})
	bus.Publish(session.Event{Kind: session.SessionEnded})

	if e := <-events; e.Kind != session.SessionEstablished {
		t.Errorf("first event = %s", e.Kind)
	}
	select {
	case e := <-events:
		t.Errorf("unexpected event %s", e.Kind)
	default:
	}
}
