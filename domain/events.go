package domain

import (
	"context"
	"time"
)

// AuditEventType defines the type of audit event
type AuditEventType string

const (
	// Account events
	AccountRegisteredEvent AuditEventType = "ACCOUNT_REGISTERED"
	AccountLinkedEvent     AuditEventType = "ACCOUNT_LINKED"
	AccountCreatedEvent    AuditEventType = "ACCOUNT_CREATED_FROM_PROVIDER"

	// Authentication events
	PasswordLoginEvent        AuditEventType = "PASSWORD_LOGIN"
	PasswordLoginFailureEvent AuditEventType = "PASSWORD_LOGIN_FAILED"
	OTPIssuedEvent            AuditEventType = "OTP_ISSUED"
	OTPVerifyEvent            AuditEventType = "OTP_VERIFIED"
	OTPFailureEvent           AuditEventType = "OTP_VERIFICATION_FAILED"
	ProviderLoginEvent        AuditEventType = "PROVIDER_LOGIN"
	ProviderLoginFailureEvent AuditEventType = "PROVIDER_LOGIN_FAILED"

	// Authorization events
	AccessDeniedEvent AuditEventType = "ACCESS_DENIED"
)

// AuditEvent represents a business event that occurred in the system
type AuditEvent struct {
	EventType AuditEventType         `json:"event_type"`
	UserID    uint                   `json:"user_id"`
	Email     string                 `json:"email,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	IPAddress string                 `json:"ip_address,omitempty"`
	UserAgent string                 `json:"user_agent,omitempty"`
	ErrorMsg  string                 `json:"error_msg,omitempty"`
	Success   bool                   `json:"success"`
}

// AuditLogger records audit events
type AuditLogger interface {
	LogEvent(ctx context.Context, event *AuditEvent)
}

// NewAuditEvent creates a new audit event with common fields populated
func NewAuditEvent(eventType AuditEventType, userID uint) *AuditEvent {
	return &AuditEvent{
		EventType: eventType,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Metadata:  make(map[string]interface{}),
		Success:   true,
	}
}

// WithError sets error information on the audit event
func (e *AuditEvent) WithError(err error) *AuditEvent {
	e.Success = false
	if err != nil {
		e.ErrorMsg = err.Error()
	}
	return e
}

// WithEmail sets the email field
func (e *AuditEvent) WithEmail(email string) *AuditEvent {
	e.Email = email
	return e
}

// WithClientContext sets client context information
func (e *AuditEvent) WithClientContext(ctx *ClientContext) *AuditEvent {
	if ctx != nil {
		e.IPAddress = ctx.IPAddress
		e.UserAgent = ctx.UserAgent
	}
	return e
}

// WithMetadata adds metadata to the event
func (e *AuditEvent) WithMetadata(key string, value interface{}) *AuditEvent {
	e.Metadata[key] = value
	return e
}
