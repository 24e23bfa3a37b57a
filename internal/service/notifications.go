package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level grades a user notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Notification is a transient, non-blocking message for the technician.
type Notification struct {
	ID       string    `json:"id"`
	Level    Level     `json:"level"`
	Message  string    `json:"message"`
	Step     string    `json:"step,omitempty"`
	Code     string    `json:"code,omitempty"`
	TicketID int       `json:"ticket_id,omitempty"`
	At       time.Time `json:"at"`
}

// Notifier receives notifications raised by the console flows.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notification) {
	f(n)
}

// DefaultInboxSize bounds an Inbox created with a non-positive capacity.
const DefaultInboxSize = 50

// Inbox buffers notifications until a UI layer drains them. When full the
// oldest notification is dropped.
type Inbox struct {
	mu       sync.Mutex
	items    []Notification
	capacity int
}

// NewInbox creates a bounded inbox.
func NewInbox(capacity int) *Inbox {
	if capacity <= 0 {
		capacity = DefaultInboxSize
	}
	return &Inbox{capacity: capacity}
}

// Notify appends n.
func (i *Inbox) Notify(n Notification) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.items) == i.capacity {
		i.items = i.items[1:]
	}
	i.items = append(i.items, n)
}

// Drain returns and clears the pending notifications, oldest first.
func (i *Inbox) Drain() []Notification {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := i.items
	i.items = nil
	return out
}

// Len returns the number of pending notifications.
func (i *Inbox) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.items)
}

func newNotification(level Level, message string, ticketID int) Notification {
	return Notification{
		ID:       uuid.NewString(),
		Level:    level,
		Message:  message,
		TicketID: ticketID,
		At:       time.Now().UTC(),
	}
}
