package logging

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys. Strings so that values set on a *gin.Context with c.Set are found too.
const (
	CorrelationIdHeader = "Correlation-Id"
	AgentNameHeader     = "User-Agent"
	SessionIdKey        = "Session-Id"
	UserIdKey           = "User-Id"
)

var contextKeys = []string{CorrelationIdHeader, AgentNameHeader, SessionIdKey, UserIdKey}

type handler struct {
	slog.Handler
}

func NewHandler(h slog.Handler) slog.Handler {
	return &handler{Handler: h}
}

func NewDefaultHandler() slog.Handler {
	return NewWriterHandler(os.Stdout, GetLogLevelFromEnv())
}

func NewWriterHandler(w io.Writer, level slog.Level) slog.Handler {
	return &handler{Handler: slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})}
}

// Setup installs the JSON handler as the slog default.
func Setup() {
	slog.SetDefault(slog.New(NewDefaultHandler()))
}

func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	extra := make(map[string]interface{})
	r.Attrs(func(a slog.Attr) bool {
		addAttr(extra, a)
		return true
	})

	if ginCtx, ok := ctx.(*gin.Context); ok && ginCtx.Request != nil {
		for _, header := range []string{CorrelationIdHeader, AgentNameHeader} {
			if value := ginCtx.Request.Header.Get(header); value != "" {
				extra[header] = value
			}
		}
	}
	for _, key := range contextKeys {
		if value := ctx.Value(key); value != nil {
			extra[key] = value
		}
	}

	newRecord := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	if extraJSON, err := json.Marshal(extra); err != nil {
		newRecord.AddAttrs(slog.String("extra", "{}"))
	} else {
		newRecord.AddAttrs(slog.String("extra", string(extraJSON)))
	}

	return h.Handler.Handle(ctx, newRecord)
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &handler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *handler) WithGroup(name string) slog.Handler {
	return &handler{Handler: h.Handler.WithGroup(name)}
}

func addAttr(extra map[string]interface{}, a slog.Attr) {
	value := a.Value.Resolve()
	switch {
	case value.Kind() == slog.KindGroup && a.Key == "":
		for _, at := range value.Group() {
			addAttr(extra, at)
		}
	case value.Kind() == slog.KindGroup:
		group := make(map[string]interface{})
		for _, at := range value.Group() {
			addAttr(group, at)
		}
		extra[a.Key] = group
	case value.Kind() == slog.KindAny:
		if err, ok := value.Any().(error); ok {
			extra[a.Key] = err.Error()
			return
		}
		extra[a.Key] = value.Any()
	default:
		extra[a.Key] = value.Any()
	}
}

func GetLogLevelFromEnv() slog.Level {
	return ParseLevel(os.Getenv("LOG_LEVEL"))
}

func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
