package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vidgend/internal/manager"
	"vidgend/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Submit(req types.GenerateRequest) (types.JobView, error)
	Generate(ctx context.Context, req types.GenerateRequest) (types.JobView, error)
	Job(id string) (types.JobView, error)
	Cancel(id string) bool
	Status() types.StatusResponse
	Errors() []types.ErrorRecord
	Artifacts() ([]types.Artifact, error)
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if corsEnabled {
		origins, methods, headers := corsDefaults()
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: methods,
			AllowedHeaders: headers,
			MaxAge:         300,
		}))
	}
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Post("/jobs", func(w http.ResponseWriter, r *http.Request) { handleSubmit(svc, w, r) })

	r.Get("/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		v, err := svc.Job(chi.URLParam(r, "id"))
		if err != nil {
			writeErrorResponse(w, errorResponse(err))
			return
		}
		writeJSON(w, http.StatusOK, v)
	})

	r.Post("/jobs/{id}/cancel", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if !svc.Cancel(id) {
			writeErrorResponse(w, errorResponse(manager.ErrJobNotFound(id)))
			return
		}
		writeJSON(w, http.StatusOK, types.CancelResponse{ID: id, Cancelled: true})
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	})

	r.Get("/errors", func(w http.ResponseWriter, r *http.Request) {
		recs := svc.Errors()
		if recs == nil {
			recs = []types.ErrorRecord{}
		}
		writeJSON(w, http.StatusOK, types.ErrorsResponse{Errors: recs})
	})

	r.Get("/artifacts", func(w http.ResponseWriter, r *http.Request) {
		arts, err := svc.Artifacts()
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to list artifacts")
			return
		}
		if arts == nil {
			arts = []types.Artifact{}
		}
		writeJSON(w, http.StatusOK, types.ArtifactsResponse{Artifacts: arts})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("starting"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

// handleSubmit admits a job, or with ?wait=1 runs it to completion.
func handleSubmit(svc Service, w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req types.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// oversize bodies land here too; the size limit is not disclosed
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	wait := isTruthy(r.URL.Query().Get("wait"))
	lvl := requestLogLevel(r)
	start := time.Now()
	logJobStart(r, lvl, wait)

	if !wait {
		v, err := svc.Submit(req)
		if err != nil {
			resp := errorResponse(err)
			if resp.Code == http.StatusTooManyRequests {
				IncrementBackpressure("queue_full")
			}
			writeErrorResponse(w, resp)
			logJobEnd(r, lvl, resp.Code, "", start, err)
			return
		}
		writeJSON(w, http.StatusAccepted, types.SubmitResponse{ID: v.ID, State: v.State})
		logJobEnd(r, lvl, http.StatusAccepted, v.ID, start, nil)
		return
	}

	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	if waitTimeout > 0 {
		var cancelWait context.CancelFunc
		ctx, cancelWait = context.WithTimeout(ctx, waitTimeout)
		defer cancelWait()
	}
	v, err := svc.Generate(ctx, req)
	if err != nil {
		// client gone or server shutting down; the job was cancelled
		if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
			logJobEnd(r, lvl, 499, v.ID, start, err)
			return
		}
		if ctx.Err() != nil {
			writeErrorResponse(w, types.ErrorResponse{
				Error:     "wait limit reached; the job has been cancelled",
				Code:      http.StatusGatewayTimeout,
				Retryable: true,
			})
			logJobEnd(r, lvl, http.StatusGatewayTimeout, v.ID, start, err)
			return
		}
		resp := errorResponse(err)
		if v.Error != "" {
			resp.Error = v.Error
		}
		if resp.Code == http.StatusTooManyRequests {
			IncrementBackpressure("queue_full")
		}
		writeErrorResponse(w, resp)
		logJobEnd(r, lvl, resp.Code, v.ID, start, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
	logJobEnd(r, lvl, http.StatusOK, v.ID, start, nil)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func isTruthy(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes":
		return true
	}
	return false
}
