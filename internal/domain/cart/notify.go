package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Level classifies a user-facing cart notification.
type Level string

const (
	// LevelSuccess confirms an action the user asked for, such as adding a line.
	LevelSuccess Level = "success"
	// LevelInfo reports a neutral change, such as removing a line.
	LevelInfo Level = "info"
)

// Event is a user-visible notification emitted by cart mutations.
type Event struct {
	Level   Level
	Message string
}

// Notifier receives cart events.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// LogNotifier writes every event to a zap logger.
type LogNotifier struct {
	lg *zap.Logger
}

// NewLogNotifier returns a Notifier that logs events at debug level.
func NewLogNotifier(lg *zap.Logger) *LogNotifier {
	return &LogNotifier{lg: lg}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, ev Event) {
	n.lg.Debug("Cart notification",
		zap.String("level", string(ev.Level)),
		zap.String("message", ev.Message),
	)
}

// Recorder collects the events emitted while serving one request so they can
// be returned to the client.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Notify implements Notifier.
func (r *Recorder) Notify(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns the recorded events in emission order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

type recorderKey struct{}

// WithRecorder attaches r to ctx. Sessions deliver events to the recorder
// found in the context in addition to their own notifier.
func WithRecorder(ctx context.Context, r *Recorder) context.Context {
	return context.WithValue(ctx, recorderKey{}, r)
}

func recorderFrom(ctx context.Context) *Recorder {
	r, _ := ctx.Value(recorderKey{}).(*Recorder)
	return r
}

func addedMessage(name string, quantity int, size, color string) string {
	var variant []string
	if size != "" {
		variant = append(variant, "size "+size)
	}
	if color != "" {
		variant = append(variant, "color "+color)
	}
	msg := fmt.Sprintf("Added %d × %s to cart", quantity, name)
	if len(variant) > 0 {
		msg += " (" + strings.Join(variant, ", ") + ")"
	}
	return msg
}

func removedMessage(name string) string {
	return fmt.Sprintf("Removed %s from cart", name)
}

const clearedMessage = "Cart cleared"
