package devapi

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Mail kinds.
const (
	MailVerify = "verify"
	MailInvite = "invite"
)

type Mail struct {
	Kind  string
	To    string
	Token string
	From  string
}

// Mailer delivers the one-shot links the API hands out. The stand-in never
// talks to a mail server.
type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

// LogMailer writes each link to the log so a developer can follow it.
type LogMailer struct {
	Log *logrus.Logger
}

func (l LogMailer) Send(_ context.Context, m Mail) error {
	l.Log.WithFields(logrus.Fields{"kind": m.Kind, "to": m.To, "from": m.From, "token": m.Token}).Info("mail queued")
	return nil
}

// Outbox keeps every mail in memory. Tests read tokens back from it.
type Outbox struct {
	mu    sync.Mutex
	items []Mail
}

func (o *Outbox) Send(_ context.Context, m Mail) error {
	o.mu.Lock()
	o.items = append(o.items, m)
	o.mu.Unlock()
	return nil
}

// Last returns the most recent mail of kind sent to addr.
func (o *Outbox) Last(kind, addr string) (Mail, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.items) - 1; i >= 0; i-- {
		if o.items[i].Kind == kind && o.items[i].To == addr {
			return o.items[i], true
		}
	}
	return Mail{}, false
}

func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.items)
}
