package admin

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telemachus-dash/internal/feed"
	"telemachus-dash/internal/logging"
	"telemachus-dash/internal/sink"
	"telemachus-dash/internal/status"
	"telemachus-dash/internal/telemetry"
	"telemachus-dash/internal/view"
)

type toggler struct{ muted bool }

func (t *toggler) ToggleMute() bool { t.muted = !t.muted; return t.muted }
func (t *toggler) Muted() bool      { return t.muted }

func newTestServer(t *testing.T) (*Server, *sink.Store, *toggler) {
	t.Helper()
	mu := &toggler{}
	st := view.NewState([]view.Resource{{Name: "LiquidFuel", ID: "fuel", Label: "Liquid Fuel"}})
	store := sink.NewStore(st, mu.Muted)
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "telemachus_frames_total", Help: "frames"})
	reg.MustRegister(c)
	c.Add(3)
	s := NewServer(store, mu, reg, logging.Discard())
	s.now = func() time.Time { return time.Date(2024, 5, 6, 21, 7, 9, 0, time.Local) }
	return s, store, mu
}

func get(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestIndex(t *testing.T) {
	s, _, _ := newTestServer(t)
	w := get(t, s.Handler(), http.MethodGet, "/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<title>KSP Telemetry</title>")
	assert.Contains(t, body, `id="pct-fuel"`)
	assert.Contains(t, body, "T+"+view.UnknownClock)
}

func TestState(t *testing.T) {
	s, store, _ := newTestServer(t)
	st := view.NewState(nil)
	st.BodyName, st.BodyKnown = "Kerbin", true
	st.GameStatus = status.LinkOffline
	store.OnViewStateChanged(st)
	store.OnOverlay(status.Overlay{Title: "SYSTEM OFFLINE", Blinking: true})

	w := get(t, s.Handler(), http.MethodGet, "/state")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp struct {
		State struct {
			BodyName   string `json:"body_name"`
			GameStatus string `json:"game_status"`
		} `json:"state"`
		Overlay   *status.Overlay `json:"overlay"`
		Stale     bool            `json:"stale"`
		WallClock string          `json:"wall_clock"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Kerbin", resp.State.BodyName)
	assert.Equal(t, "link_offline", resp.State.GameStatus)
	require.NotNil(t, resp.Overlay)
	assert.Equal(t, "SYSTEM OFFLINE", resp.Overlay.Title)
	assert.True(t, resp.Stale)
	assert.Equal(t, "21:07:09", resp.WallClock)
}

func TestMute(t *testing.T) {
	s, _, mu := newTestServer(t)
	h := s.Handler()

	w := get(t, h, http.MethodPost, "/mute")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"muted":true}`, w.Body.String())
	assert.True(t, mu.muted)

	w = get(t, h, http.MethodPost, "/mute")
	assert.JSONEq(t, `{"muted":false}`, w.Body.String())

	w = get(t, h, http.MethodGet, "/mute")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestMuteWithoutAudio(t *testing.T) {
	s := NewServer(sink.NewStore(view.NewState(nil), nil), nil, nil, logging.Discard())
	w := get(t, s.Handler(), http.MethodPost, "/mute")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetrics(t *testing.T) {
	s, _, _ := newTestServer(t)
	w := get(t, s.Handler(), http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "telemachus_frames_total 3")
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer(t)
	w := get(t, s.Handler(), http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `"status":"ok"`))
	assert.Contains(t, w.Body.String(), `"game_status":"running"`)
}

func TestServeStopsOnCancel(t *testing.T) {
	s, _, _ := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

type fakeSubscriber struct {
	vars []telemetry.VariableName
	err  error
}

func (f *fakeSubscriber) Resubscribe(vars []telemetry.VariableName) error {
	if f.err != nil {
		return f.err
	}
	f.vars = vars
	return nil
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	return w
}

func TestSubscribe(t *testing.T) {
	s, _, _ := newTestServer(t)
	sub := &fakeSubscriber{}
	s.Subscriber = sub
	h := s.Handler()

	w := post(t, h, "/subscribe", `{"variables":["v.missionTime","v.altitude"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"variables":["v.missionTime","v.altitude"]}`, w.Body.String())
	assert.Equal(t, []telemetry.VariableName{"v.missionTime", "v.altitude"}, sub.vars)

	w = post(t, h, "/subscribe", `{"variables":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubscribeErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{telemetry.ErrNoVariables, http.StatusBadRequest},
		{feed.ErrNotOpen, http.StatusConflict},
		{errors.New("broken pipe"), http.StatusBadGateway},
	}
	for _, c := range cases {
		s, _, _ := newTestServer(t)
		s.Subscriber = &fakeSubscriber{err: c.err}
		w := post(t, s.Handler(), "/subscribe", `{"variables":[]}`)
		assert.Equal(t, c.code, w.Code, "error %v", c.err)
	}
}

func TestSubscribeWithoutSession(t *testing.T) {
	s, _, _ := newTestServer(t)
	w := post(t, s.Handler(), "/subscribe", `{"variables":["v.body"]}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
