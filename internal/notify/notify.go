// Package notify is the transient message queue every surface reports
// outcomes through. Messages expire after their TTL.
package notify

import (
	"errors"
	"sync"
	"time"

	"inkyspace/internal/client"
)

type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Info    Kind = "info"
)

const DefaultTTL = 5 * time.Second

type Message struct {
	ID      int       `json:"id"`
	Kind    Kind      `json:"type"`
	Text    string    `json:"message"`
	Expires time.Time `json:"expires"`
}

type Queue struct {
	mu     sync.Mutex
	nextID int
	items  []Message
	now    func() time.Time
}

func NewQueue() *Queue {
	return &Queue{now: time.Now}
}

// WithClock replaces the time source, for tests.
func (q *Queue) WithClock(now func() time.Time) *Queue {
	q.now = now
	return q
}

// Push queues text with the default TTL.
func (q *Queue) Push(kind Kind, text string) Message {
	return q.PushTTL(kind, text, DefaultTTL)
}

// PushTTL queues text. A zero ttl keeps the message until dismissed.
func (q *Queue) PushTTL(kind Kind, text string, ttl time.Duration) Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.nextID++
	m := Message{ID: q.nextID, Kind: kind, Text: text}
	if ttl > 0 {
		m.Expires = q.now().Add(ttl)
	}
	q.items = append(q.items, m)
	return m
}

// Active prunes expired messages and returns the rest in push order.
func (q *Queue) Active() []Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := q.now()
	kept := q.items[:0]
	for _, m := range q.items {
		if m.Expires.IsZero() || now.Before(m.Expires) {
			kept = append(kept, m)
		}
	}
	q.items = kept
	out := make([]Message, len(kept))
	copy(out, kept)
	return out
}

func (q *Queue) Dismiss(id int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, m := range q.items {
		if m.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}

// Texts converts err into user-facing lines: one per field error of a
// server-reported failure, else its message, else the generic text.
func Texts(err error) []string {
	if err == nil {
		return nil
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		if len(apiErr.Errors) > 0 {
			out := make([]string, 0, len(apiErr.Errors))
			for _, fe := range apiErr.Errors {
				out = append(out, fe.Error)
			}
			return out
		}
		if apiErr.Message != "" {
			return []string{apiErr.Message}
		}
	}
	return []string{client.UnexpectedMessage}
}

// FromError queues one error message per line of Texts(err).
func (q *Queue) FromError(err error) []Message {
	var out []Message
	for _, text := range Texts(err) {
		out = append(out, q.Push(Error, text))
	}
	return out
}
