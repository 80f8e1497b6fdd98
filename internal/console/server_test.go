package console

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nextgen-sip/console/internal/carrier"
	"github.com/nextgen-sip/console/internal/poll"
	"github.com/nextgen-sip/console/internal/view"
)

// fakeBackend is an in-memory carrier admin API.
type fakeBackend struct {
	mu         sync.Mutex
	subs       []carrier.Subscriber
	calls      []carrier.CallSession
	failCreate bool
	failDelete bool
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /stats", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		_ = json.NewEncoder(w).Encode(carrier.StatsSnapshot{
			ActiveCalls:  len(b.calls),
			TotalUsers:   len(b.subs),
			SystemStatus: "operational",
			Version:      "2.0.0",
		})
	})
	mux.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		_ = json.NewEncoder(w).Encode(b.subs)
	})
	mux.HandleFunc("POST /users", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.failCreate {
			http.Error(w, "duplicate id", http.StatusConflict)
			return
		}
		var sub carrier.Subscriber
		_ = json.NewDecoder(r.Body).Decode(&sub)
		sub.Password = ""
		b.subs = append(b.subs, sub)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(sub)
	})
	mux.HandleFunc("DELETE /users/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.failDelete {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		id := r.PathValue("id")
		kept := b.subs[:0]
		for _, s := range b.subs {
			if s.ID != id {
				kept = append(kept, s)
			}
		}
		b.subs = kept
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /users/{id}/balance", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		var body struct {
			Amount float64 `json:"amount"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		id := r.PathValue("id")
		for i := range b.subs {
			if b.subs[i].ID == id {
				b.subs[i].Balance = body.Amount
				w.WriteHeader(http.StatusOK)
				return
			}
		}
		http.Error(w, "not found", http.StatusNotFound)
	})
	mux.HandleFunc("GET /calls/active", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		_ = json.NewEncoder(w).Encode(b.calls)
	})
	mux.HandleFunc("GET /config", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(carrier.PlatformConfig{
			SIPProtocol:        "TCP",
			MaxConcurrentCalls: 100000,
			BillingRate:        0.01,
			RegistrationTTL:    "1h",
			FirewallThreshold:  5,
		})
	})
	return mux
}

type testEnv struct {
	srv     *Server
	handler http.Handler
	backend *fakeBackend
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	backend := &fakeBackend{}
	api := httptest.NewServer(backend.handler())
	t.Cleanup(api.Close)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	client := carrier.NewClient(api.URL, nil)
	snaps := view.NewSnapshots()

	var srv *Server
	poller := poll.New(client, snaps, time.Hour, logger, func(r view.Resource) {
		srv.OnSync(r)
	})

	srv = NewServer(Deps{
		Mutator:      client,
		Refresher:    poller,
		Nav:          view.NewNavigator(),
		Modals:       view.NewModals(),
		Activity:     view.NewActivityLog(),
		Snapshots:    snaps,
		PollInterval: 4 * time.Second,
		Logger:       logger,
	}, nil)
	return &testEnv{srv: srv, handler: srv.Handler(), backend: backend}
}

func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()

	form := url.Values{"code": {e.srv.AccessCode()}}
	req := httptest.NewRequest("POST", "/console/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie after login")
	return nil
}

func (e *testEnv) do(t *testing.T, cookie *http.Cookie, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func TestServer_LoginFlow(t *testing.T) {
	env := newTestEnv(t)

	// Console without auth redirects to login.
	w := env.do(t, nil, "GET", "/console", nil)
	if w.Code != http.StatusFound {
		t.Fatalf("console without auth: status = %d, want 302", w.Code)
	}

	w = env.do(t, nil, "GET", "/console/login", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Access") {
		t.Fatalf("login page: status = %d", w.Code)
	}

	// Wrong code re-renders the login page.
	w = env.do(t, nil, "POST", "/console/login", url.Values{"code": {"00000000"}})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Invalid") {
		t.Fatalf("wrong code: status = %d, body %q", w.Code, w.Body.String())
	}

	cookie := env.login(t)
	w = env.do(t, cookie, "GET", "/console", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("console with session: status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "System Overview") {
		t.Error("console page should open on the overview")
	}

	// Logout invalidates the session.
	w = env.do(t, cookie, "POST", "/console/logout", nil)
	if w.Code != http.StatusFound {
		t.Fatalf("logout: status = %d, want 302", w.Code)
	}
	w = env.do(t, cookie, "GET", "/console", nil)
	if w.Code != http.StatusFound {
		t.Errorf("console after logout: status = %d, want redirect", w.Code)
	}
}

func TestServer_Middleware(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, nil, "GET", "/console/login", nil)
	if w.Header().Get("X-Request-Id") == "" {
		t.Error("responses should carry a request id")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}

	// Health and metrics stay reachable without a session.
	w = env.do(t, nil, "GET", "/healthz", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("healthz: status = %d body %q", w.Code, w.Body.String())
	}
	w = env.do(t, nil, "GET", "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Errorf("metrics: status = %d", w.Code)
	}
}

func TestNavigate_EmptySubscribers(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	w := env.do(t, cookie, "POST", "/console/navigate/subscribers", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("navigate: status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "No subscribers yet. Add the first one to get started.") {
		t.Error("empty backend should render the empty-state row")
	}
	if !strings.Contains(body, `id="sub-count">0<`) {
		t.Error("subscriber count should read 0")
	}
	if env.srv.nav.Active() != view.PageSubscribers {
		t.Errorf("active page = %q", env.srv.nav.Active())
	}
}

func TestNavigate_UnknownPageIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	w := env.do(t, cookie, "POST", "/console/navigate/billing", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("unknown page: status = %d, want 204", w.Code)
	}
	if env.srv.nav.Active() != view.PageOverview {
		t.Errorf("active page = %q, should stay on overview", env.srv.nav.Active())
	}
}

func TestCreateSubscriber(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)
	env.srv.modals.Open(view.ModalAddSubscriber)

	form := url.Values{
		"id":       {" 1001 "},
		"username": {"alice"},
		"password": {"secret"},
		"balance":  {"10"},
		"level":    {"0"},
	}
	w := env.do(t, cookie, "POST", "/console/subscribers", form)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status = %d body %q", w.Code, w.Body.String())
	}

	env.backend.mu.Lock()
	if len(env.backend.subs) != 1 || env.backend.subs[0].ID != "1001" {
		t.Errorf("backend subs = %+v", env.backend.subs)
	}
	env.backend.mu.Unlock()

	if env.srv.modals.IsOpen(view.ModalAddSubscriber) {
		t.Error("add-sub dialog should close on success")
	}
	entries := env.srv.activity.Entries()
	if len(entries) == 0 || entries[0].Message != "Subscriber created: alice (1001)" {
		t.Errorf("activity = %+v", entries)
	}

	// The new account shows up on the subscribers page.
	w = env.do(t, cookie, "POST", "/console/navigate/subscribers", nil)
	if !strings.Contains(w.Body.String(), "<strong>alice</strong>") {
		t.Error("subscriber row for alice missing after create")
	}
}

func TestCreateSubscriber_RequiresIDAndUsername(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)
	env.srv.modals.Open(view.ModalAddSubscriber)

	for _, form := range []url.Values{
		{"id": {"   "}, "username": {"alice"}},
		{"id": {"1001"}, "username": {""}},
	} {
		w := env.do(t, cookie, "POST", "/console/subscribers", form)
		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("form %v: status = %d, want 422", form, w.Code)
		}
	}

	if !env.srv.modals.IsOpen(view.ModalAddSubscriber) {
		t.Error("dialog must stay open after validation failure")
	}
	if env.srv.activity.Len() != 0 {
		t.Error("validation failure must not log activity")
	}
	env.backend.mu.Lock()
	defer env.backend.mu.Unlock()
	if len(env.backend.subs) != 0 {
		t.Error("no subscriber should reach the backend")
	}
}

func TestCreateSubscriber_BackendFailureKeepsDialogOpen(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)
	env.backend.failCreate = true
	env.srv.modals.Open(view.ModalAddSubscriber)

	form := url.Values{"id": {"1001"}, "username": {"alice"}}
	w := env.do(t, cookie, "POST", "/console/subscribers", form)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("create: status = %d, want 502", w.Code)
	}
	if !env.srv.modals.IsOpen(view.ModalAddSubscriber) {
		t.Error("dialog must stay open when the carrier rejects the create")
	}
	if env.srv.activity.Len() != 0 {
		t.Error("failed create must not log activity")
	}
}

func TestDeleteSubscriber(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)
	env.backend.subs = []carrier.Subscriber{{ID: "1001", Username: "alice"}}

	// Without the guard nothing happens.
	w := env.do(t, cookie, "DELETE", "/console/subscribers/1001", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unconfirmed delete: status = %d, want 400", w.Code)
	}
	env.backend.mu.Lock()
	if len(env.backend.subs) != 1 {
		t.Error("unconfirmed delete must not reach the backend")
	}
	env.backend.mu.Unlock()

	w = env.do(t, cookie, "DELETE", "/console/subscribers/1001?confirm=yes", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d", w.Code)
	}
	env.backend.mu.Lock()
	if len(env.backend.subs) != 0 {
		t.Error("subscriber should be gone from the backend")
	}
	env.backend.mu.Unlock()

	entries := env.srv.activity.Entries()
	if len(entries) == 0 || entries[0].Message != "Subscriber removed: 1001" {
		t.Errorf("activity = %+v", entries)
	}
}

func TestDeleteSubscriber_FailureRefreshesButDoesNotLog(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)
	env.backend.failDelete = true
	env.backend.subs = []carrier.Subscriber{{ID: "1001", Username: "alice"}}

	w := env.do(t, cookie, "DELETE", "/console/subscribers/1001?confirm=yes", nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("failed delete: status = %d, want 502", w.Code)
	}
	if env.srv.activity.Len() != 0 {
		t.Error("failed delete must not report a removal")
	}
	// The refresh still ran: the snapshot reflects the backend as-is.
	subs, ok := env.srv.snaps.Subscribers()
	if !ok || len(subs) != 1 {
		t.Errorf("snapshot = %+v fetched=%v, want the surviving subscriber", subs, ok)
	}
}

func TestAdjustBalance(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)
	env.backend.subs = []carrier.Subscriber{{ID: "1001", Username: "alice", Balance: 10}}
	env.srv.modals.Open(view.ModalEditBalance)

	w := env.do(t, cookie, "POST", "/console/subscribers/1001/balance", url.Values{"amount": {"-3.5"}})
	if w.Code != http.StatusNoContent {
		t.Fatalf("balance: status = %d", w.Code)
	}
	env.backend.mu.Lock()
	if env.backend.subs[0].Balance != -3.5 {
		t.Errorf("backend balance = %v", env.backend.subs[0].Balance)
	}
	env.backend.mu.Unlock()

	if env.srv.modals.IsOpen(view.ModalEditBalance) {
		t.Error("edit-bal dialog should close")
	}
	entries := env.srv.activity.Entries()
	if len(entries) == 0 || entries[0].Message != "Balance updated for 1001: $-3.50" {
		t.Errorf("activity = %+v", entries)
	}
}

func TestAdjustBalance_RejectsNonNumeric(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	w := env.do(t, cookie, "POST", "/console/subscribers/1001/balance", url.Values{"amount": {"lots"}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad amount: status = %d, want 400", w.Code)
	}
	if env.srv.activity.Len() != 0 {
		t.Error("rejected amount must not log activity")
	}
}

func TestModalRoutes(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	if w := env.do(t, cookie, "POST", "/console/modal/add-sub/open", nil); w.Code != http.StatusNoContent {
		t.Fatalf("modal open: status = %d", w.Code)
	}
	if !env.srv.modals.IsOpen(view.ModalAddSubscriber) {
		t.Error("add-sub should be open")
	}

	// The rendered page reflects the open dialog.
	w := env.do(t, cookie, "GET", "/console", nil)
	if !strings.Contains(w.Body.String(), `id="modal-add-sub"`) {
		t.Fatal("modal markup missing")
	}
	if !strings.Contains(w.Body.String(), "modal-backdrop open") {
		t.Error("open dialog should carry the open class")
	}

	if w := env.do(t, cookie, "POST", "/console/modal/add-sub/close", nil); w.Code != http.StatusNoContent {
		t.Fatalf("modal close: status = %d", w.Code)
	}
	if env.srv.modals.IsOpen(view.ModalAddSubscriber) {
		t.Error("add-sub should be closed")
	}
}

func TestWebSocket_ReceivesFragments(t *testing.T) {
	env := newTestEnv(t)
	ts := httptest.NewServer(env.handler)
	defer ts.Close()

	cookie := env.login(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/console/ws"
	header := http.Header{"Cookie": {cookie.Name + "=" + cookie.Value}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	env.srv.snaps.SetStats(&carrier.StatsSnapshot{ActiveCalls: 5, SystemStatus: "operational"})
	env.srv.OnSync(view.ResourceStats)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frag Fragment
	if err := conn.ReadJSON(&frag); err != nil {
		t.Fatalf("read: %v", err)
	}
	if frag.Target != "kpi-grid" {
		t.Errorf("target = %q", frag.Target)
	}
	if !strings.Contains(frag.HTML, ">Healthy<") {
		t.Errorf("fragment html = %q", frag.HTML)
	}
}

// Overlapping poll fetches complete on separate goroutines and each
// completion broadcasts. Every frame must still arrive intact on one
// connection.
func TestWebSocket_ConcurrentBroadcasts(t *testing.T) {
	env := newTestEnv(t)
	ts := httptest.NewServer(env.handler)
	defer ts.Close()

	cookie := env.login(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/console/ws"
	header := http.Header{"Cookie": {cookie.Name + "=" + cookie.Value}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	env.srv.snaps.SetStats(&carrier.StatsSnapshot{ActiveCalls: 5, SystemStatus: "operational"})

	const writers = 4
	const perWriter = 5
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				env.srv.OnSync(view.ResourceStats)
			}
		}()
	}
	wg.Wait()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < writers*perWriter; i++ {
		var frag Fragment
		if err := conn.ReadJSON(&frag); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if frag.Target != "kpi-grid" {
			t.Fatalf("frame %d: target = %q", i, frag.Target)
		}
	}
}

func TestConsolePage_BackdropClickCloses(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	w := env.do(t, cookie, "GET", "/console", nil)
	body := w.Body.String()

	// Each backdrop names its dialog so a click on the dimmed area
	// itself, but not on the dialog content, closes it server-side.
	for _, attr := range []string{`data-modal="add-sub"`, `data-modal="edit-bal"`} {
		if !strings.Contains(body, attr) {
			t.Errorf("backdrop attribute %s missing", attr)
		}
	}
	if !strings.Contains(body, "ev.target.dataset.modal") {
		t.Error("click handler should dismiss a dialog from its backdrop")
	}
	if !strings.Contains(body, `"/console/modal/" + ev.target.dataset.modal + "/close"`) {
		t.Error("backdrop dismissal should post the close endpoint")
	}
}
