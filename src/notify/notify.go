package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Kind string

const (
	KindProgress Kind = "progress"
	KindSuccess  Kind = "success"
	KindError    Kind = "error"
)

// Notifier is the surface the core reports progress and outcomes to. Implementations must not
// block for long; the pipeline calls them inline.
type Notifier interface {
	Notify(ctx context.Context, kind Kind, message string)
}

type Notification struct {
	Kind    Kind
	Message string
	At      time.Time
}

// LogNotifier writes notifications to the log, which is all the CLI needs to show progress
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With(zap.String("component", "notify"))}
}

func (ln *LogNotifier) Notify(ctx context.Context, kind Kind, message string) {
	if kind == KindError {
		ln.logger.Error(message)
		return
	}
	ln.logger.Info(message, zap.String("kind", string(kind)))
}

// Recorder keeps every notification in memory
type Recorder struct {
	mu            sync.Mutex
	notifications []Notification
}

func (r *Recorder) Notify(ctx context.Context, kind Kind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, Notification{Kind: kind, Message: message, At: time.Now()})
}

func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.notifications))
	copy(out, r.notifications)
	return out
}

func (r *Recorder) Kinds() []Kind {
	var kinds []Kind
	for _, n := range r.Notifications() {
		kinds = append(kinds, n.Kind)
	}
	return kinds
}

type fanout []Notifier

// Fanout delivers every notification to each of the given notifiers in order
func Fanout(notifiers ...Notifier) Notifier {
	out := fanout{}
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

func (f fanout) Notify(ctx context.Context, kind Kind, message string) {
	for _, n := range f {
		n.Notify(ctx, kind, message)
	}
}

type nop struct{}

func (nop) Notify(ctx context.Context, kind Kind, message string) {}

// Nop discards everything
var Nop Notifier = nop{}
