package simfeed

import (
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telemachus-dash/internal/config"
	"telemachus-dash/internal/dashboard"
	"telemachus-dash/internal/feed"
	"telemachus-dash/internal/logging"
	"telemachus-dash/internal/scenario"
	"telemachus-dash/internal/sink"
	"telemachus-dash/internal/status"
	"telemachus-dash/internal/telemetry"
	"telemachus-dash/internal/view"
)

func newProvider(t *testing.T, name string) *Provider {
	t.Helper()
	p, err := NewProvider(scenario.BuiltIn()[name], time.Second, 1, logging.Discard())
	require.NoError(t, err)
	return p
}

func TestVesselStep(t *testing.T) {
	v := NewVessel()
	rnd := rand.New(rand.NewSource(1))
	v.Step(10, 0, 0.01, rnd)
	assert.Equal(t, 10.0, v.MissionTime)
	assert.InDelta(t, 324, v.Tanks["LiquidFuel"].Amount, 1e-9)
	assert.Equal(t, 10, v.FuelSpent())

	v.Step(10, codePaused, 0.5, rnd)
	assert.Equal(t, 10.0, v.MissionTime)
	assert.InDelta(t, 324, v.Tanks["LiquidFuel"].Amount, 1e-9)

	v.Step(100, codePowerOutage, 0, rnd)
	assert.Equal(t, 0.0, v.Tanks["ElectricCharge"].Amount)
}

func TestVesselTanksClamp(t *testing.T) {
	v := NewVessel()
	v.Step(1000, 0, 1, rand.New(rand.NewSource(1)))
	assert.Equal(t, 0.0, v.Tanks["LiquidFuel"].Amount)
	assert.Equal(t, 100, v.FuelSpent())
	ec := v.Tanks["ElectricCharge"]
	assert.LessOrEqual(t, ec.Amount, ec.Capacity)
}

func TestProviderFrame(t *testing.T) {
	p := newProvider(t, "nominal")
	p.Step(3725)
	f := p.Frame([]telemetry.VariableName{
		"v.missionTime()", "v.body", "p.paused",
		"r.resource[ElectricCharge]", "r.resourceMax[ElectricCharge]",
		"r.resource[Ablator]", "v.altitude",
	})
	assert.Equal(t, 3725.0, f["v.missionTime()"])
	assert.Equal(t, "Kerbin", f["v.body"])
	assert.Equal(t, 0, f["p.paused"])
	assert.Equal(t, 150.0, f["r.resourceMax[ElectricCharge]"])
	assert.Contains(t, f, telemetry.VariableName("r.resource[ElectricCharge]"))
	assert.NotContains(t, f, telemetry.VariableName("r.resource[Ablator]"))
	assert.NotContains(t, f, telemetry.VariableName("v.altitude"))
}

func TestProviderFollowsTimeTriggers(t *testing.T) {
	p := newProvider(t, "blackout")
	assert.Equal(t, "ascent", p.Snapshot().Phase)
	for i := 0; i < 20; i++ {
		p.Step(1)
	}
	snap := p.Snapshot()
	assert.Equal(t, "outage", snap.Phase)
	assert.Equal(t, 2, snap.Status)
	for i := 0; i < 10; i++ {
		p.Step(1)
	}
	assert.Equal(t, "offline", p.Snapshot().Phase)
}

func TestProviderFollowsFuelTrigger(t *testing.T) {
	p := newProvider(t, "mun-transfer")
	for i := 0; i < 19; i++ {
		p.Step(1)
	}
	assert.Equal(t, "transfer-burn", p.Snapshot().Phase)
	p.Step(1)
	snap := p.Snapshot()
	assert.Equal(t, "coast", snap.Phase)
	assert.Equal(t, "Mun", snap.Vessel.Body)
}

func TestSetPhase(t *testing.T) {
	p := newProvider(t, "tour")
	require.NoError(t, p.SetPhase("garbled"))
	assert.Equal(t, 7, p.Frame([]telemetry.VariableName{"p.paused"})["p.paused"])
	assert.Error(t, p.SetPhase("nowhere"))
}

func TestPayloadChaos(t *testing.T) {
	p := newProvider(t, "nominal")
	vars := []telemetry.VariableName{"v.missionTime", "v.body", "p.paused", "r.resource[LiquidFuel]", "r.resourceMax[LiquidFuel]"}

	b, err := p.Payload(vars)
	require.NoError(t, err)
	f, err := telemetry.Decode(b)
	require.NoError(t, err)
	assert.Len(t, f, len(vars))

	assert.True(t, p.ToggleChaos())
	var garbled, sparse int
	for i := 0; i < 200; i++ {
		b, err := p.Payload(vars)
		require.NoError(t, err)
		f, err := telemetry.Decode(b)
		if err != nil {
			garbled++
			continue
		}
		if len(f) < len(vars) {
			sparse++
		}
	}
	assert.Positive(t, garbled)
	assert.Positive(t, sparse)
	assert.False(t, p.ToggleChaos())
}

func TestSubscriptionApply(t *testing.T) {
	vars := subscription{Add: []telemetry.VariableName{"a", "b"}}.apply(nil)
	vars = subscription{Add: []telemetry.VariableName{"c", "a"}, Remove: []telemetry.VariableName{"b"}}.apply(vars)
	assert.Equal(t, []telemetry.VariableName{"a", "c"}, vars)
}

func TestControlEndpoints(t *testing.T) {
	p := newProvider(t, "tour")
	h := NewServer(p, logging.Discard()).Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/toggle-chaos", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"chaos":true}`, w.Body.String())
	assert.True(t, p.Chaos())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/phase?name=power", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "power", p.Snapshot().Phase)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/phase?name=nowhere", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/vessel", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"phase":"power"`)
	assert.Contains(t, w.Body.String(), `"clients":0`)
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/datalink"
}

func TestDatalinkStreamsSubscribedVariables(t *testing.T) {
	p := newProvider(t, "nominal")
	srv := httptest.NewServer(NewServer(p, logging.Discard()).Handler())
	defer srv.Close()

	c, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer c.Close()

	req, err := telemetry.BuildSubscribeRequest([]telemetry.VariableName{"v.body", "p.paused"}, 20)
	require.NoError(t, err)
	require.NoError(t, c.WriteMessage(websocket.TextMessage, req))

	require.NoError(t, c.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, msg, err := c.ReadMessage()
	require.NoError(t, err)
	f, err := telemetry.Decode(msg)
	require.NoError(t, err)
	assert.Equal(t, "Kerbin", f["v.body"])
	assert.Len(t, f, 2)

	unsub := []byte(`{"-":["p.paused"],"rate":20}`)
	require.NoError(t, c.WriteMessage(websocket.TextMessage, unsub))
	require.Eventually(t, func() bool {
		_, msg, err := c.ReadMessage()
		if err != nil {
			return false
		}
		f, err := telemetry.Decode(msg)
		return err == nil && len(f) == 1
	}, 3*time.Second, time.Millisecond)
}

func TestDashboardAgainstProvider(t *testing.T) {
	p := newProvider(t, "blackout")
	srv := httptest.NewServer(NewServer(p, logging.Discard()).Handler())
	defer srv.Close()

	cfg := config.Default()
	cfg.Feed.URL = wsURL(srv)
	cfg.Feed.RateMs = 20
	opts, err := dashboard.FromConfig(cfg)
	require.NoError(t, err)
	store := sink.NewStore(view.NewState(opts.Resources), nil)
	opts.Transport = feed.NewWebSocket()
	opts.Sink = store
	opts.Log = logging.Discard()
	s, err := dashboard.New(opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		st := s.Snapshot()
		return st.BodyKnown && st.MissionTimeKnown && st.Resources["fuel"].PercentKnown
	}, 3*time.Second, 10*time.Millisecond)
	st := s.Snapshot()
	assert.Equal(t, "Kerbin", st.BodyName)
	assert.Equal(t, 100, st.Resources["fuel"].Percent)
	assert.Equal(t, status.Running, s.Status())

	require.NoError(t, p.SetPhase("outage"))
	require.Eventually(t, func() bool {
		return s.Status() == status.PowerOutage && len(store.Snapshot().Channels) == 1
	}, 3*time.Second, 10*time.Millisecond)
	snap := store.Snapshot()
	require.NotNil(t, snap.Overlay)
	assert.Equal(t, "POWER OUTAGE", snap.Overlay.Title)
	assert.Equal(t, []status.Channel{status.ChannelPower}, snap.Channels)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("session did not stop")
	}
}
