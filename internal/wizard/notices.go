package wizard

import (
	"sync"
	"time"

	"github.com/desertthunder/maestro/internal/shared"
)

const (
	DefaultErrorTTL   = 4 * time.Second
	DefaultSuccessTTL = 3 * time.Second
)

// Kind tells a success notice from an error notice.
type Kind int

const (
	Success Kind = iota
	Failure
)

func (k Kind) String() string {
	if k == Failure {
		return "error"
	}
	return "success"
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Notice is a transient user-facing message.
type Notice struct {
	ID      int       `json:"id"`
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	Expires time.Time `json:"expires"`
}

// Notices holds transient messages until they expire. It is safe for concurrent use and may
// be shared between the wizard and the dashboard.
type Notices struct {
	mu         sync.Mutex
	items      []Notice
	next       int
	errorTTL   time.Duration
	successTTL time.Duration
	now        func() time.Time
}

// NewNotices returns an empty queue. Non-positive TTLs fall back to 4s for errors and 3s for
// successes.
func NewNotices(errorTTL, successTTL time.Duration) *Notices {
	if errorTTL <= 0 {
		errorTTL = DefaultErrorTTL
	}
	if successTTL <= 0 {
		successTTL = DefaultSuccessTTL
	}
	return &Notices{errorTTL: errorTTL, successTTL: successTTL, now: time.Now}
}

// Success queues a success message.
func (n *Notices) Success(message string) Notice {
	return n.push(Success, message, n.successTTL)
}

// Error queues an error message.
func (n *Notices) Error(message string) Notice {
	return n.push(Failure, message, n.errorTTL)
}

// Fail queues prefix followed by the user-facing description of err.
func (n *Notices) Fail(prefix string, err error) Notice {
	return n.Error(prefix + shared.Describe(err))
}

// Active returns unexpired notices, oldest first, and forgets the rest.
func (n *Notices) Active() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	live := n.items[:0]
	for _, item := range n.items {
		if now.Before(item.Expires) {
			live = append(live, item)
		}
	}
	n.items = live
	return append([]Notice(nil), live...)
}

// Latest returns the newest unexpired notice.
func (n *Notices) Latest() (Notice, bool) {
	active := n.Active()
	if len(active) == 0 {
		return Notice{}, false
	}
	return active[len(active)-1], true
}

// Dismiss drops the notice with id.
func (n *Notices) Dismiss(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, item := range n.items {
		if item.ID == id {
			n.items = append(n.items[:i], n.items[i+1:]...)
			return
		}
	}
}

// Clear drops every notice.
func (n *Notices) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = nil
}

func (n *Notices) push(kind Kind, message string, ttl time.Duration) Notice {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.next++
	notice := Notice{ID: n.next, Kind: kind, Message: message, Expires: n.now().Add(ttl)}
	n.items = append(n.items, notice)
	return notice
}
