package databind

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goliatone/go-databind/pkg/fetch"
	"github.com/goliatone/go-databind/pkg/forms"
	"github.com/goliatone/go-databind/pkg/session"
)

const dashboardMarkup = `
<html><body>
	<h1 bb-text="stats.total_jobs">–</h1>
	<div id="bar" bb-style:width="{stats.progress}%"></div>
	<nav id="member" bb-auth="required"></nav>
	<ul id="jobs">
		<li bb-template="job"><span bb-text="name"></span></li>
	</ul>
	<form bb-form="create-job">
		<input name="domain" required value="example.com">
	</form>
</body></html>`

func newTestEngine(t *testing.T, serverURL string, options ...Option) *Engine {
	t.Helper()
	options = append([]Option{WithClient(fetch.NewClient(serverURL))}, options...)
	engine, err := New(strings.NewReader(dashboardMarkup), options...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return engine
}

func TestLoadAndBind_AppliesCombinedData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/dashboard/stats":
			_, _ = w.Write([]byte(`{"total_jobs":7,"progress":42}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	engine := newTestEngine(t, server.URL)
	err := engine.LoadAndBind(context.Background(), map[string]string{
		"stats": "/v1/dashboard/stats",
	})
	if err != nil {
		t.Fatalf("LoadAndBind: %v", err)
	}

	doc := engine.Binder().Document()
	if got := doc.Find("h1").Text(); got != "7" {
		t.Fatalf("expected heading bound to 7, got %q", got)
	}
	style, _ := doc.Find("#bar").Attr("style")
	if style != "width: 42%" {
		t.Fatalf("expected width style, got %q", style)
	}
}

func TestLoadAndBind_OneFailureAppliesNothing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/dashboard/stats" {
			_, _ = w.Write([]byte(`{"total_jobs":9}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	engine := newTestEngine(t, server.URL)
	err := engine.LoadAndBind(context.Background(), map[string]string{
		"stats":    "/v1/dashboard/stats",
		"activity": "/v1/dashboard/activity",
	})
	if err == nil {
		t.Fatalf("expected combined load to fail")
	}

	// The heading keeps its placeholder: no partial application happened.
	if got := engine.Binder().Document().Find("h1").Text(); got != "–" {
		t.Fatalf("expected untouched heading after failed cycle, got %q", got)
	}
}

func TestBindTemplates(t *testing.T) {
	engine := newTestEngine(t, "http://unused.invalid")

	err := engine.BindTemplates(map[string][]map[string]any{
		"job": {{"name": "Acme"}, {"name": "Globex"}},
	})
	if err != nil {
		t.Fatalf("BindTemplates: %v", err)
	}

	if got := engine.Binder().Document().Find(`[bb-instance="job"]`).Length(); got != 2 {
		t.Fatalf("expected 2 instances, got %d", got)
	}
}

func TestBindTemplates_MissDoesNotBlockOthers(t *testing.T) {
	engine := newTestEngine(t, "http://unused.invalid")

	err := engine.BindTemplates(map[string][]map[string]any{
		"job":     {{"name": "Acme"}},
		"unknown": {{"name": "x"}},
	})
	if err == nil {
		t.Fatalf("expected joined error for unknown template")
	}
	if got := engine.Binder().Document().Find(`[bb-instance="job"]`).Length(); got != 1 {
		t.Fatalf("expected known template still rendered, got %d instances", got)
	}
}

func TestNew_AppliesInitialAuthState(t *testing.T) {
	engine := newTestEngine(t, "http://unused.invalid", WithSession(session.Static{}))

	if _, hidden := engine.Binder().Document().Find("#member").Attr("hidden"); !hidden {
		t.Fatalf("expected auth-required element hidden for guest session")
	}
}

func TestAuthChange_ReappliesVisibility(t *testing.T) {
	sess := session.NewTokenSession()
	engine := newTestEngine(t, "http://unused.invalid", WithSession(sess))

	sess.SetToken("opaque-token")

	if _, hidden := engine.Binder().Document().Find("#member").Attr("hidden"); hidden {
		t.Fatalf("expected auth-required element visible after sign-in")
	}
}

func TestSubmitForm_UsesScannedAction(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	engine := newTestEngine(t, server.URL)

	var events []forms.Event
	engine.Forms().Dispatcher().Subscribe(func(event forms.Event) {
		events = append(events, event)
	})

	if err := engine.SubmitForm(context.Background(), "create-job"); err != nil {
		t.Fatalf("SubmitForm: %v", err)
	}
	if gotPath != "/v1/jobs" {
		t.Fatalf("expected action routed to /v1/jobs, got %q", gotPath)
	}
	if len(events) != 1 || events[0].Kind != forms.EventSuccess {
		t.Fatalf("expected success event, got %+v", events)
	}
}

func TestSubmitForm_UnknownAction(t *testing.T) {
	engine := newTestEngine(t, "http://unused.invalid")
	if err := engine.SubmitForm(context.Background(), "no-such-form"); err == nil {
		t.Fatalf("expected error for undeclared action")
	}
}

func TestAutoRefresh_TicksAndStops(t *testing.T) {
	engine := newTestEngine(t, "http://unused.invalid")

	var ticks atomic.Int32
	engine.AutoRefresh(5*time.Millisecond, func(ctx context.Context) error {
		ticks.Add(1)
		return nil
	})

	deadline := time.After(time.Second)
	for ticks.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 2 ticks, got %d", ticks.Load())
		case <-time.After(time.Millisecond):
		}
	}

	engine.StopRefresh()
	settled := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	if ticks.Load() != settled {
		t.Fatalf("expected no ticks after stop")
	}
}

func TestAutoRefresh_RestartReplacesTimer(t *testing.T) {
	engine := newTestEngine(t, "http://unused.invalid")

	var first, second atomic.Int32
	engine.AutoRefresh(5*time.Millisecond, func(ctx context.Context) error {
		first.Add(1)
		return nil
	})
	engine.AutoRefresh(5*time.Millisecond, func(ctx context.Context) error {
		second.Add(1)
		return nil
	})
	defer engine.StopRefresh()

	frozen := first.Load()
	deadline := time.After(time.Second)
	for second.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected replacement timer to tick")
		case <-time.After(time.Millisecond):
		}
	}
	if first.Load() != frozen {
		t.Fatalf("expected first timer fully stopped before restart")
	}
}

func TestStopRefresh_NoopWhenNotRunning(t *testing.T) {
	engine := newTestEngine(t, "http://unused.invalid")
	engine.StopRefresh()
	engine.StopRefresh()
}

func TestAutoRefresh_SkipsWhenUnauthenticated(t *testing.T) {
	engine := newTestEngine(t, "http://unused.invalid", WithSession(session.Static{}))

	var ticks atomic.Int32
	engine.AutoRefresh(5*time.Millisecond, func(ctx context.Context) error {
		ticks.Add(1)
		return nil
	})
	defer engine.StopRefresh()

	time.Sleep(30 * time.Millisecond)
	if ticks.Load() != 0 {
		t.Fatalf("expected all ticks skipped while unauthenticated, got %d", ticks.Load())
	}
}
