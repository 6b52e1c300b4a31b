package notification

import (
	"strings"
	"unicode/utf8"

	"github.com/gen2brain/beeep"
	"go.uber.org/zap"
)

const (
	// DefaultTitle heads every toast.
	DefaultTitle = "GPTTrans"
	maxBodyRunes = 200
)

// Notifier shows short desktop toasts. It never blocks the caller.
type Notifier struct {
	title  string
	logger *zap.SugaredLogger
	notify func(title, message string, icon any) error
}

func New(logger *zap.SugaredLogger) *Notifier {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Notifier{title: DefaultTitle, logger: logger, notify: beeep.Notify}
}

// Notify displays msg, truncated to 200 characters. Delivery failures are
// logged only.
func (n *Notifier) Notify(msg string) {
	body := Truncate(strings.TrimSpace(msg))
	if body == "" {
		return
	}
	go func() {
		if err := n.notify(n.title, body, ""); err != nil {
			n.logger.Warnw("failed to show notification", "error", err, "message", body)
		}
	}()
}

// Truncate shortens s to 200 runes, marking the cut with "...".
func Truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxBodyRunes {
		return s
	}
	return string([]rune(s)[:maxBodyRunes]) + "..."
}
