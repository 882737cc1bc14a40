package httpapi

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/tripflow/internal/common"
	"github.com/dmitrijs2005/tripflow/internal/cryptox"
	"github.com/dmitrijs2005/tripflow/internal/logging"
	"github.com/dmitrijs2005/tripflow/internal/server/config"
	"github.com/dmitrijs2005/tripflow/internal/server/events"
	"github.com/dmitrijs2005/tripflow/internal/server/flow"
	"github.com/dmitrijs2005/tripflow/internal/server/flow/catalog"
	"github.com/dmitrijs2005/tripflow/internal/server/metrics"
	"github.com/dmitrijs2005/tripflow/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tripflow/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "app-secret"

var (
	keyOnce sync.Once
	testKey *rsa.PrivateKey
)

func privateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	keyOnce.Do(func() {
		k, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		testKey = k
	})
	return testKey
}

type stubFlows struct {
	resp *flow.Response
	err  error
	got  *flow.Request
}

func (s *stubFlows) Handle(_ context.Context, req *flow.Request) (*flow.Response, error) {
	s.got = req
	return s.resp, s.err
}

type fixture struct {
	t       *testing.T
	cfg     *config.Config
	metrics *metrics.Metrics
	server  *httptest.Server
}

func newFixture(t *testing.T, flows FlowHandler, tweak func(*config.Config)) *fixture {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.AppSecret = testSecret
	if tweak != nil {
		tweak(cfg)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	h := NewHandler(flows, privateKey(t), cfg, m, reg, logging.Nop())
	h.now = func() time.Time { return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC) }

	ts := httptest.NewServer(h.Router())
	t.Cleanup(ts.Close)

	return &fixture{t: t, cfg: cfg, metrics: m, server: ts}
}

// post encrypts and signs req, sends it and returns the response together
// with the exchange that can open its body.
func (f *fixture) post(req any) (*http.Response, *cryptox.Exchange) {
	f.t.Helper()

	env, x, err := cryptox.EncryptRequest(&privateKey(f.t).PublicKey, req)
	require.NoError(f.t, err)

	body, err := json.Marshal(env)
	require.NoError(f.t, err)

	return f.postRaw(body, cryptox.Sign([]byte(f.cfg.AppSecret), body)), x
}

func (f *fixture) postRaw(body []byte, signature string) *http.Response {
	f.t.Helper()

	r, err := http.NewRequest(http.MethodPost, f.server.URL+f.cfg.FlowPath, bytes.NewReader(body))
	require.NoError(f.t, err)
	r.Header.Set("Content-Type", "application/json")
	if signature != "" {
		r.Header.Set(common.SignatureHeaderName, signature)
	}

	resp, err := f.server.Client().Do(r)
	require.NoError(f.t, err)
	f.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (f *fixture) open(resp *http.Response, x *cryptox.Exchange) map[string]any {
	f.t.Helper()

	b, err := io.ReadAll(resp.Body)
	require.NoError(f.t, err)

	plain, err := x.DecryptResponse(string(b))
	require.NoError(f.t, err)

	out := map[string]any{}
	require.NoError(f.t, json.Unmarshal(plain, &out))
	return out
}

func TestFlow_PingRoundTrip(t *testing.T) {
	flows := &stubFlows{resp: &flow.Response{Data: map[string]any{"status": "active"}}}
	f := newFixture(t, flows, nil)

	resp, x := f.post(flow.Request{Version: "3.0", Action: flow.ActionPing})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	out := f.open(resp, x)
	assert.Equal(t, map[string]any{"data": map[string]any{"status": "active"}}, out)
	assert.Equal(t, flow.ActionPing, flows.got.Action)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Requests.WithLabelValues(flow.ActionPing, "200")))
}

func TestFlow_UpperCaseActions(t *testing.T) {
	flows := &stubFlows{resp: &flow.Response{Screen: flow.ScreenTravelDates, Data: map[string]any{}}}
	f := newFixture(t, flows, nil)

	resp, _ := f.post(flow.Request{Version: "3.0", Action: "DATA_EXCHANGE", Screen: flow.ScreenDestination, FlowToken: "abc123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, flow.ActionDataExchange, flows.got.Action)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Requests.WithLabelValues(flow.ActionDataExchange, "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Transitions.WithLabelValues(flow.ScreenDestination, flow.ScreenTravelDates)))
}

func TestFlow_SignatureRejected(t *testing.T) {
	flows := &stubFlows{}
	f := newFixture(t, flows, nil)

	body := []byte(`{"encrypted_flow_data":"a","encrypted_aes_key":"b","initial_vector":"c"}`)

	for name, sig := range map[string]string{
		"missing":  "",
		"mismatch": cryptox.Sign([]byte("other-secret"), body),
		"garbage":  "sha256=zz",
	} {
		t.Run(name, func(t *testing.T) {
			resp := f.postRaw(body, sig)
			assert.Equal(t, common.StatusSignatureFailed, resp.StatusCode)
			b, _ := io.ReadAll(resp.Body)
			assert.Empty(t, b)
		})
	}

	assert.Nil(t, flows.got)
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.SignatureFailures))
}

func TestFlow_RelaxedModeSkipsSignature(t *testing.T) {
	flows := &stubFlows{resp: &flow.Response{Data: map[string]any{"status": "active"}}}
	f := newFixture(t, flows, func(c *config.Config) { c.AppSecret = "" })

	env, x, err := cryptox.EncryptRequest(&privateKey(t).PublicKey, flow.Request{Action: flow.ActionPing})
	require.NoError(t, err)
	body, _ := json.Marshal(env)

	resp := f.postRaw(body, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "active", f.open(resp, x)["data"].(map[string]any)["status"])
}

func TestFlow_DecryptionFailed(t *testing.T) {
	f := newFixture(t, &stubFlows{}, nil)

	cases := map[string][]byte{
		"not json":       []byte("hello"),
		"missing fields": []byte(`{"encrypted_flow_data":"AAAA"}`),
		"bad key":        []byte(`{"encrypted_flow_data":"AAAA","encrypted_aes_key":"AAAA","initial_vector":"AAAAAAAAAAAAAAAAAAAAAA=="}`),
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp := f.postRaw(body, cryptox.Sign([]byte(testSecret), body))
			assert.Equal(t, common.StatusDecryptionFailed, resp.StatusCode)

			b, _ := io.ReadAll(resp.Body)
			assert.JSONEq(t, `{"error":"decryption failed"}`, string(b))
		})
	}
}

func TestFlow_ErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: %q", common.ErrUnknownAction, "NAVIGATE"), http.StatusBadRequest},
		{fmt.Errorf("%w: CHECKOUT", common.ErrUnknownScreen), http.StatusBadRequest},
		{fmt.Errorf("%w: db down", common.ErrSessionPersistence), http.StatusInternalServerError},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		f := newFixture(t, &stubFlows{err: tc.err}, nil)
		resp, _ := f.post(flow.Request{Action: flow.ActionDataExchange, Screen: "CHECKOUT", FlowToken: "t"})
		assert.Equal(t, tc.want, resp.StatusCode, tc.err.Error())
	}
}

func TestFlow_RateLimited(t *testing.T) {
	flows := &stubFlows{resp: &flow.Response{Data: map[string]any{"status": "active"}}}
	f := newFixture(t, flows, func(c *config.Config) {
		c.RateLimitRPS = 0.001
		c.RateLimitBurst = 1
	})

	resp, _ := f.post(flow.Request{Action: flow.ActionPing})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.post(flow.Request{Action: flow.ActionPing})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RateLimited))
}

func TestHealth(t *testing.T) {
	f := newFixture(t, &stubFlows{}, nil)

	resp, err := f.server.Client().Get(f.server.URL + "/flow")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	b, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"status":"healthy","endpoint":"/flow","timestamp":"2025-03-14T09:26:53Z"}`, string(b))
}

func TestPreflight(t *testing.T) {
	f := newFixture(t, &stubFlows{}, nil)

	r, _ := http.NewRequest(http.MethodOptions, f.server.URL+"/flow", nil)
	resp, err := f.server.Client().Do(r)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "GET, POST, OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), common.SignatureHeaderName)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, &stubFlows{}, nil)
	f.metrics.RateLimited.Inc()

	resp, err := f.server.Client().Get(f.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(b), "tripflow_flow_rate_limited_total 1")
}

type countingNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (n *countingNotifier) Send(_ context.Context, to, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, to+": "+text)
	return nil
}

func TestFlow_EndToEndBooking(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.NotifyAsync = false

	l := logging.Nop()
	rm := repomanager.NewMemoryRepositoryManager()
	emitter := events.NewEmitter(l, time.Second)
	notifier := &countingNotifier{}

	sessions := services.NewSessionService(nil, rm, cfg, l)
	bookings := services.NewBookingService(nil, rm, cfg, notifier, emitter, l)
	processor := flow.NewProcessor(flow.NewMachine(catalog.DefaultPriceTable()), sessions, bookings, emitter, l)

	f := newFixture(t, processor, nil)

	send := func(action, screen string, data map[string]any) map[string]any {
		t.Helper()
		resp, x := f.post(flow.Request{Version: "3.0", Action: action, Screen: screen, Data: data, FlowToken: "abc123"})
		require.Equal(t, http.StatusOK, resp.StatusCode, screen)
		return f.open(resp, x)
	}

	out := send(flow.ActionInit, "", nil)
	require.Equal(t, flow.ScreenDestination, out["screen"])
	assert.Len(t, out["data"].(map[string]any)["destinations"], 4)

	steps := []struct {
		screen string
		data   map[string]any
		next   string
	}{
		{flow.ScreenDestination, map[string]any{"selected_destination": "bali"}, flow.ScreenTravelDates},
		{flow.ScreenTravelDates, map[string]any{"departure_date": "2025-06-01", "return_date": "2025-06-10"}, flow.ScreenTravelers},
		{flow.ScreenTravelers, map[string]any{"adult_count": "2", "child_count": "0"}, flow.ScreenPackage},
		{flow.ScreenPackage, map[string]any{"selected_package": "luxury"}, flow.ScreenAccommodation},
		{flow.ScreenAccommodation, map[string]any{"selected_accommodation": "beachfront"}, flow.ScreenActivities},
		{flow.ScreenActivities, map[string]any{"selected_activities": []string{"scuba_diving"}}, flow.ScreenSummary},
	}
	for _, st := range steps {
		out = send(flow.ActionDataExchange, st.screen, st.data)
		require.Equal(t, st.next, out["screen"], st.screen)
	}

	summary := out["data"].(map[string]any)["summary"].(map[string]any)
	assert.Equal(t, "Scuba Diving Course", summary["activities"])
	assert.Equal(t, "$2,850", summary["total_price"])

	out = send(flow.ActionDataExchange, flow.ScreenSummary, nil)
	require.Equal(t, flow.ScreenConfirmation, out["screen"])

	data := out["data"].(map[string]any)
	conf := data["confirmation"].(map[string]any)
	assert.Equal(t, "confirmed", conf["status"])
	assert.NotEmpty(t, conf["booking_id"])
	assert.True(t, strings.HasPrefix(conf["booking_id"].(string), "TRV-"))

	final := data["summary"].(map[string]any)
	assert.Equal(t, "Bali, Indonesia", final["destination"])
	assert.Equal(t, "Beachfront Villa", final["accommodation"])
	assert.Equal(t, "$2,850", final["total_price"])

	// Opaque token: no channel identity, so nothing is sent.
	assert.Empty(t, notifier.sent)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Transitions.WithLabelValues(flow.ScreenSummary, flow.ScreenConfirmation)))
}
