package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

type fakeSender struct {
	name string
	err  error
	sent []string
}

func (f *fakeSender) Send(ctx context.Context, title, message string) error {
	f.sent = append(f.sent, title+": "+message)
	return f.err
}

func (f *fakeSender) Name() string { return f.name }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyForwardsAllowedEvent(t *testing.T) {
	sender := &fakeSender{name: "telegram"}
	n := NewNotifier([]Sender{sender}, []string{"opportunity_found"}, discardLogger())

	if err := n.Notify(context.Background(), "opportunity_found", "title", "msg"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 message sent, got %d", len(sender.sent))
	}
}

func TestNotifyFiltersDisallowedEvent(t *testing.T) {
	sender := &fakeSender{name: "telegram"}
	n := NewNotifier([]Sender{sender}, []string{"opportunity_found"}, discardLogger())

	if err := n.Notify(context.Background(), "trade_failed", "title", "msg"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected event to be filtered, got %d sends", len(sender.sent))
	}
}

func TestNotifyAllowsEverythingWhenNoEventsConfigured(t *testing.T) {
	sender := &fakeSender{name: "discord"}
	n := NewNotifier([]Sender{sender}, nil, discardLogger())

	if err := n.Notify(context.Background(), "anything_at_all", "title", "msg"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected message to pass through with no event filter configured, got %d", len(sender.sent))
	}
}

func TestNotifyAllBypassesFilter(t *testing.T) {
	sender := &fakeSender{name: "telegram"}
	n := NewNotifier([]Sender{sender}, []string{"only_this_event"}, discardLogger())

	if err := n.NotifyAll(context.Background(), "title", "msg"); err != nil {
		t.Fatalf("NotifyAll: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected NotifyAll to bypass the event filter, got %d sends", len(sender.sent))
	}
}

func TestDispatchAggregatesMultipleSenderErrors(t *testing.T) {
	good := &fakeSender{name: "discord"}
	bad1 := &fakeSender{name: "telegram", err: errors.New("timeout")}
	bad2 := &fakeSender{name: "webhook", err: errors.New("connection refused")}

	n := NewNotifier([]Sender{good, bad1, bad2}, nil, discardLogger())

	err := n.NotifyAll(context.Background(), "title", "msg")
	if err == nil {
		t.Fatal("expected aggregated error from failing senders")
	}
	if len(good.sent) != 1 {
		t.Fatal("expected the healthy sender to still receive the notification")
	}
}

func TestDispatchWithNoSendersIsNoop(t *testing.T) {
	n := NewNotifier(nil, nil, discardLogger())
	if err := n.NotifyAll(context.Background(), "title", "msg"); err != nil {
		t.Fatalf("expected nil error with no senders configured, got %v", err)
	}
}
