// Package httpapi exposes the encrypted flow endpoint, its liveness probe and
// the Prometheus exposition over HTTP.
package httpapi

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/tripflow/internal/common"
	"github.com/dmitrijs2005/tripflow/internal/cryptox"
	"github.com/dmitrijs2005/tripflow/internal/logging"
	"github.com/dmitrijs2005/tripflow/internal/server/config"
	"github.com/dmitrijs2005/tripflow/internal/server/flow"
	"github.com/dmitrijs2005/tripflow/internal/server/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 1 << 20

// FlowHandler answers one decrypted flow request.
type FlowHandler interface {
	Handle(ctx context.Context, req *flow.Request) (*flow.Response, error)
}

type Handler struct {
	flows     FlowHandler
	key       *rsa.PrivateKey
	appSecret []byte
	flowPath  string
	limiter   *rate.Limiter
	metrics   *metrics.Metrics
	gatherer  prometheus.Gatherer
	log       logging.Logger
	now       func() time.Time
}

// NewHandler builds the endpoint. A non-positive RateLimitRPS disables rate
// limiting; an empty AppSecret disables signature checks.
func NewHandler(flows FlowHandler, key *rsa.PrivateKey, c *config.Config, m *metrics.Metrics,
	g prometheus.Gatherer, l logging.Logger) *Handler {
	h := &Handler{
		flows:     flows,
		key:       key,
		appSecret: []byte(c.AppSecret),
		flowPath:  c.FlowPath,
		metrics:   m,
		gatherer:  g,
		log:       l.With("module", "http"),
		now:       time.Now,
	}
	if c.RateLimitRPS > 0 {
		burst := c.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		h.limiter = rate.NewLimiter(rate.Limit(c.RateLimitRPS), burst)
	}
	return h
}

// Router wires the routes and the shared middleware.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get(h.flowPath, h.health)
	r.Options(h.flowPath, h.preflight)
	r.Post(h.flowPath, h.flow)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	return r
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) preflight(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+common.SignatureHeaderName)
	w.Header().Set("Access-Control-Max-Age", "86400")
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"endpoint":  h.flowPath,
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) flow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := h.now()
	action := "unknown"
	status := http.StatusOK

	defer func() {
		h.metrics.Requests.WithLabelValues(action, strconv.Itoa(status)).Inc()
		h.metrics.RequestDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
	}()

	if h.limiter != nil && !h.limiter.Allow() {
		h.metrics.RateLimited.Inc()
		status = http.StatusTooManyRequests
		writeError(w, status, "rate limited")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		status = http.StatusBadRequest
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, "unreadable body")
		return
	}

	if err := cryptox.VerifySignature(h.appSecret, body, r.Header.Get(common.SignatureHeaderName)); err != nil {
		h.metrics.SignatureFailures.Inc()
		h.log.Warn(ctx, "signature rejected", "remote", r.RemoteAddr)
		status = common.StatusSignatureFailed
		w.WriteHeader(status)
		return
	}

	x, req, err := h.decrypt(body)
	if err != nil {
		h.metrics.DecryptionFailures.Inc()
		h.log.Warn(ctx, "request not decrypted", "error", err)
		status = common.StatusDecryptionFailed
		writeError(w, status, "decryption failed")
		return
	}
	defer x.Wipe()

	req.Normalize()
	action = req.Action

	resp, err := h.flows.Handle(ctx, req)
	if err != nil {
		status = statusFor(err)
		h.log.Error(ctx, "flow request failed", "flow_token", req.FlowToken, "action", req.Action,
			"screen", req.Screen, "status", status, "error", err)
		writeError(w, status, http.StatusText(status))
		return
	}

	if req.Action == flow.ActionDataExchange && resp.Screen != "" {
		h.metrics.Transitions.WithLabelValues(req.Screen, resp.Screen).Inc()
	}

	out, err := x.EncryptResponse(resp)
	if err != nil {
		h.log.Error(ctx, "response not encrypted", "flow_token", req.FlowToken, "error", err)
		status = http.StatusInternalServerError
		writeError(w, status, http.StatusText(status))
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, out)
}

// decrypt opens the envelope and parses the flow request. Every failure
// wraps common.ErrDecryption.
func (h *Handler) decrypt(body []byte) (*cryptox.Exchange, *flow.Request, error) {
	env, err := cryptox.ParseEnvelope(body)
	if err != nil {
		return nil, nil, err
	}

	x, err := cryptox.DecryptRequest(h.key, env)
	if err != nil {
		return nil, nil, err
	}

	req := &flow.Request{}
	if err := json.Unmarshal(x.Plaintext, req); err != nil {
		x.Wipe()
		return nil, nil, fmt.Errorf("%w: request json", common.ErrDecryption)
	}
	return x, req, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrUnknownAction), errors.Is(err, common.ErrUnknownScreen):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
