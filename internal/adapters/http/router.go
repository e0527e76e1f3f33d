package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillkom/profile-export/internal/config"
	"github.com/kirillkom/profile-export/internal/core/domain"
	"github.com/kirillkom/profile-export/internal/core/ports"
	"github.com/kirillkom/profile-export/internal/observability/metrics"
)

const (
	serviceName         = "api"
	multipartMemory     = 8 << 20
	backpressureWait    = 250 * time.Millisecond
	defaultMaxUploadLen = 32 << 20
)

type Router struct {
	cfg       config.Config
	submitter ports.ProfileSubmitter
	runs      ports.RunReader
	metrics   *metrics.HTTPServerMetrics
	logger    *slog.Logger
}

type RouterOptions struct {
	Metrics *metrics.HTTPServerMetrics
	Logger  *slog.Logger
}

func NewRouter(
	cfg config.Config,
	submitter ports.ProfileSubmitter,
	runs ports.RunReader,
	opts RouterOptions,
) *Router {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		cfg:       cfg,
		submitter: submitter,
		runs:      runs,
		metrics:   opts.Metrics,
		logger:    logger,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("POST /v1/profiles", rt.submitProfile)
	mux.HandleFunc("GET /v1/runs/{id}", rt.getRun)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, backpressureWait)
	if rt.cfg.APIRateLimitRPS > 0 {
		burst := rt.cfg.APIRateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		handler = rateLimitMiddleware(handler, rate.NewLimiter(rate.Limit(rt.cfg.APIRateLimitRPS), burst))
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(rt.logger, handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type submitResponse struct {
	RunID     string `json:"run_id"`
	Document  string `json:"document"`
	Status    string `json:"status"`
	StatusURL string `json:"status_url"`
}

func (rt *Router) submitProfile(w http.ResponseWriter, r *http.Request) {
	limit := rt.cfg.APIMaxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUploadLen
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		rt.recordUpload(0, err)
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			rt.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart body is required"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		rt.recordUpload(0, err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	job, err := rt.submitter.Submit(r.Context(), header.Filename, file)
	rt.recordUpload(header.Size, err)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, submitResponse{
		RunID:     job.RunID,
		Document:  job.Document,
		Status:    string(domain.StatusQueued),
		StatusURL: "/v1/runs/" + job.RunID,
	})
}

type runResponse struct {
	RunID   string                  `json:"run_id"`
	Results []domain.DocumentResult `json:"results"`
}

func (rt *Router) getRun(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "run id is required"})
		return
	}

	results, err := rt.runs.ListByRun(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, runResponse{RunID: id, Results: results})
}

func (rt *Router) recordUpload(size int64, err error) {
	if rt.metrics != nil {
		rt.metrics.RecordUpload(serviceName, size, err)
	}
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		rt.logger.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, status, map[string]string{
		"error":      publicMessage(status, err),
		"request_id": requestIDFromContext(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
