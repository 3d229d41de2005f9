package mocks

import (
	"context"
	"sync"

	"github.com/you/otpauth/domain"
)

// SentMessage is one message captured by a mock
type SentMessage struct {
	To      string
	Subject string
	Body    string
}

// MockNotifier implements domain.Notifier and records every message
type MockNotifier struct {
	mu       sync.Mutex
	messages []SentMessage
	SendFunc func(to, subject, body string)
}

// NewMockNotifier creates a new recording MockNotifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// Send records the message
func (m *MockNotifier) Send(to, subject, body string) {
	m.mu.Lock()
	m.messages = append(m.messages, SentMessage{To: to, Subject: subject, Body: body})
	m.mu.Unlock()

	if m.SendFunc != nil {
		m.SendFunc(to, subject, body)
	}
}

// Messages returns a copy of everything sent so far
func (m *MockNotifier) Messages() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.messages...)
}

// MockEmailSender implements domain.EmailSender interface for testing
type MockEmailSender struct {
	SendEmailFunc func(ctx context.Context, to, subject, body string) error
}

// NewMockEmailSender creates a new MockEmailSender with default behaviors
func NewMockEmailSender() *MockEmailSender {
	return &MockEmailSender{}
}

// SendEmail sends an email message
func (m *MockEmailSender) SendEmail(ctx context.Context, to, subject, body string) error {
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, to, subject, body)
	}
	// Default behavior: success (no actual email sent in tests)
	return nil
}

// Compile-time interface compliance verification
var (
	_ domain.Notifier    = (*MockNotifier)(nil)
	_ domain.EmailSender = (*MockEmailSender)(nil)
)
