// Package notify implements the single-slot notification channel surfacing
// transient status messages to the user.
package notify

import (
	"sync"
	"time"
)

// Severity grades a notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is a transient user-facing message. At most one is visible at
// a time; a new one replaces the prior.
type Notification struct {
	Message  string
	Severity Severity
	Open     bool
}

// DismissReason identifies how a dismissal was triggered.
type DismissReason int

const (
	// DismissExplicit is a deliberate close action.
	DismissExplicit DismissReason = iota
	// DismissTimeout is the auto-dismiss timer firing.
	DismissTimeout
	// DismissBackdrop is an accidental click outside the message. Ignored, so
	// error messages are not lost before they are read.
	DismissBackdrop
)

// DefaultTimeout is the auto-dismiss duration for operation notifications.
const DefaultTimeout = 4 * time.Second

// Notifier owns the current notification. Safe for concurrent use.
type Notifier struct {
	mu       sync.Mutex
	current  Notification
	seq      uint64
	timeout  time.Duration
	timer    *time.Timer
	onChange func(Notification)
}

// New creates a notifier. onChange, when non-nil, is invoked with a copy of
// the notification after every visible change. A non-positive timeout falls
// back to DefaultTimeout.
func New(timeout time.Duration, onChange func(Notification)) *Notifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Notifier{timeout: timeout, onChange: onChange}
}

// Notify replaces the current notification and re-arms the auto-dismiss timer.
func (n *Notifier) Notify(message string, severity Severity) {
	n.mu.Lock()
	n.seq++
	seq := n.seq
	n.current = Notification{Message: message, Severity: severity, Open: true}
	if n.timer != nil {
		n.timer.Stop()
	}
	n.timer = time.AfterFunc(n.timeout, func() {
		n.dismissSeq(seq)
	})
	cb := n.onChange
	cur := n.current
	n.mu.Unlock()

	if cb != nil {
		cb(cur)
	}
}

// Dismiss closes the current notification. Backdrop dismissal is ignored.
func (n *Notifier) Dismiss(reason DismissReason) {
	if reason == DismissBackdrop {
		return
	}
	n.mu.Lock()
	if !n.current.Open {
		n.mu.Unlock()
		return
	}
	n.current.Open = false
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	cb := n.onChange
	cur := n.current
	n.mu.Unlock()

	if cb != nil {
		cb(cur)
	}
}

// dismissSeq closes the notification only if it is still the one the timer
// was armed for.
func (n *Notifier) dismissSeq(seq uint64) {
	n.mu.Lock()
	if n.seq != seq || !n.current.Open {
		n.mu.Unlock()
		return
	}
	n.current.Open = false
	n.timer = nil
	cb := n.onChange
	cur := n.current
	n.mu.Unlock()

	if cb != nil {
		cb(cur)
	}
}

// Current returns a copy of the current notification.
func (n *Notifier) Current() Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}
