package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/you/otpauth/domain"
	"github.com/you/otpauth/internal/logging"
)

func TestSlogAuditLogger_LogEvent(t *testing.T) {
	tests := []struct {
		name          string
		event         *domain.AuditEvent
		expectedLevel string
		expectedKeys  map[string]interface{}
	}{
		{
			name: "successful verification",
			event: domain.NewAuditEvent(domain.OTPVerifyEvent, 7).
				WithEmail("alice@x.com").
				WithClientContext(&domain.ClientContext{IPAddress: "10.0.0.1", UserAgent: "curl/8"}),
			expectedLevel: "INFO",
			expectedKeys: map[string]interface{}{
				"event_type": "OTP_VERIFIED",
				"user_id":    float64(7),
				"email":      "alice@x.com",
				"ip_address": "10.0.0.1",
				"user_agent": "curl/8",
				"success":    true,
				"component":  "audit",
			},
		},
		{
			name: "failure carries error and metadata",
			event: domain.NewAuditEvent(domain.OTPFailureEvent, 7).
				WithError(errors.New("otp mismatch")).
				WithMetadata("outcome", "mismatch"),
			expectedLevel: "WARN",
			expectedKeys: map[string]interface{}{
				"event_type": "OTP_VERIFICATION_FAILED",
				"error":      "otp mismatch",
				"outcome":    "mismatch",
				"success":    false,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewSlogAuditLogger(logging.New(&buf, "debug", "json"))

			logger.LogEvent(context.Background(), tt.event)

			var record map[string]interface{}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
			assert.Equal(t, tt.expectedLevel, record["level"])
			for k, v := range tt.expectedKeys {
				assert.Equal(t, v, record[k], k)
			}
		})
	}
}

func TestSlogAuditLogger_NilEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogAuditLogger(logging.New(&buf, "debug", "json"))

	logger.LogEvent(context.Background(), nil)
	assert.Empty(t, buf.String())
}
