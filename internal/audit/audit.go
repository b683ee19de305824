package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/MrEthical07/goAccount/internal/logging"
)

// Event is one audit record. It never carries passwords, hashes or session
// tokens.
type Event struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	IP        string            `json:"ip,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Sink receives emitted audit events.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink drops audit events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink writes audit events into a buffered channel.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan Event, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}

// LoggerSink forwards events to a structured logger at INFO, or WARN for
// failed operations.
type LoggerSink struct {
	log logging.Logger
}

func NewLoggerSink(log logging.Logger) *LoggerSink {
	if log == nil {
		log = logging.Discard()
	}
	return &LoggerSink{log: log.With("component", "audit")}
}

func (s *LoggerSink) Emit(ctx context.Context, event Event) {
	args := []any{
		"event_id", event.ID,
		"event_type", event.EventType,
		"success", event.Success,
	}
	if event.UserID != "" {
		args = append(args, "user_id", event.UserID)
	}
	if event.IP != "" {
		args = append(args, "ip", event.IP)
	}
	if event.Error != "" {
		args = append(args, "error", event.Error)
	}
	for k, v := range event.Metadata {
		args = append(args, k, v)
	}

	if event.Success {
		s.log.Info(ctx, "audit", args...)
		return
	}
	s.log.Warn(ctx, "audit", args...)
}
