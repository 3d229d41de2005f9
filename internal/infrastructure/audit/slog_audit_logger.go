// Package audit writes security events to the structured log.
package audit

import (
	"context"
	"log/slog"

	"github.com/you/otpauth/domain"
)

// SlogAuditLogger implements domain.AuditLogger on top of slog
type SlogAuditLogger struct {
	logger *slog.Logger
}

// NewSlogAuditLogger tags every record with component=audit
func NewSlogAuditLogger(logger *slog.Logger) *SlogAuditLogger {
	return &SlogAuditLogger{logger: logger.With("component", "audit")}
}

// LogEvent implements domain.AuditLogger. Failed events are logged at warn.
func (a *SlogAuditLogger) LogEvent(ctx context.Context, event *domain.AuditEvent) {
	if event == nil {
		return
	}

	attrs := []slog.Attr{
		slog.String("event_type", string(event.EventType)),
		slog.Bool("success", event.Success),
		slog.Time("timestamp", event.Timestamp),
	}
	if event.UserID != 0 {
		attrs = append(attrs, slog.Uint64("user_id", uint64(event.UserID)))
	}
	if event.Email != "" {
		attrs = append(attrs, slog.String("email", event.Email))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}
	if event.ErrorMsg != "" {
		attrs = append(attrs, slog.String("error", event.ErrorMsg))
	}
	for k, v := range event.Metadata {
		attrs = append(attrs, slog.Any(k, v))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	a.logger.LogAttrs(ctx, level, "audit event", attrs...)
}

var _ domain.AuditLogger = (*SlogAuditLogger)(nil)
