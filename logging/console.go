package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
)

// ConsolePublisher writes events as single log lines. It is synchronous and
// intended for development servers and tests.
type ConsolePublisher struct {
	logger *log.Logger
}

func NewConsolePublisher(w io.Writer) *ConsolePublisher {
	return &ConsolePublisher{logger: log.New(w, "", log.LstdFlags)}
}

func (p *ConsolePublisher) Publish(_ context.Context, event Event) {
	if p == nil || p.logger == nil {
		return
	}
	p.logger.Printf("[%s] tick=%d actor=%s severity=%s%s", event.Type, event.Tick, formatEntity(event.Actor), formatSeverity(event.Severity), formatPayload(event.Payload))
}

func formatSeverity(sev Severity) string {
	switch sev {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

func formatEntity(ref EntityRef) string {
	if ref.ID == "" {
		return string(ref.Kind)
	}
	if ref.Kind == "" {
		return ref.ID
	}
	return fmt.Sprintf("%s:%s", ref.Kind, ref.ID)
}

func formatPayload(payload any) string {
	if payload == nil {
		return ""
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf(" payload=%v", payload)
	}
	return fmt.Sprintf(" payload=%s", data)
}
