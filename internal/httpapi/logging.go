package httpapi

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is the structured logger; nil until SetLogger is called.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = &l }

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch s {
	case "off", "":
		return LevelOff
	case "error":
		return LevelError
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// global default, read once
var defaultLogLevel = parseLevel(os.Getenv("VIDGEND_LOG_LEVEL"))

func requestLogLevel(r *http.Request) LogLevel {
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// logJobStart and logJobEnd bracket a submission when the request asks for it.
func logJobStart(r *http.Request, lvl LogLevel, wait bool) {
	if lvl < LevelInfo || zlog == nil {
		return
	}
	z := zlog.Info().Str("path", r.URL.Path).Bool("wait", wait)
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		z = z.Str("request_id", rid)
	}
	z.Msg("submit start")
}

func logJobEnd(r *http.Request, lvl LogLevel, status int, jobID string, start time.Time, err error) {
	if zlog == nil {
		return
	}
	switch {
	case lvl >= LevelInfo:
	case lvl == LevelError && err != nil:
	default:
		return
	}
	z := zlog.Info()
	if err != nil && status >= http.StatusInternalServerError {
		z = zlog.Error()
	}
	z = z.Int("status", status).Dur("dur", time.Since(start))
	if jobID != "" {
		z = z.Str("job_id", jobID)
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		z = z.Str("request_id", rid)
	}
	if err != nil {
		z = z.Err(err)
	}
	z.Msg("submit end")
}
