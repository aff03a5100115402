package effects

import (
	"sync"

	"github.com/roomsync/roomsync-client/logger"
	"go.uber.org/zap"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

type Toast struct {
	Level   Level
	Message string
}

// Toaster surfaces a transient message to the user.
type Toaster interface {
	Show(toast Toast)
}

// LogToaster writes toasts to the structured log. It is what a headless
// agent uses in place of a UI.
type LogToaster struct {
	log *zap.SugaredLogger
}

func NewLogToaster() *LogToaster {
	return &LogToaster{log: logger.GetLogger().Named("toast")}
}

func (t *LogToaster) Show(toast Toast) {
	switch toast.Level {
	case LevelError:
		t.log.Warnw(toast.Message, "level", toast.Level)
	default:
		t.log.Infow(toast.Message, "level", toast.Level)
	}
}

// Recorder keeps every toast shown, in order.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

func (r *Recorder) Show(toast Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, toast)
}

// Toasts returns a copy of what has been shown so far.
func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Toast(nil), r.toasts...)
}

// Count returns how many toasts of level were shown.
func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.toasts {
		if t.Level == level {
			n++
		}
	}
	return n
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = nil
}
