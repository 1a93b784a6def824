package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	notificationserrors "birshibpur/internal/notifications/errors"
	"birshibpur/pkg/config"
	"birshibpur/pkg/logger"
	"birshibpur/pkg/mailer"
	"birshibpur/pkg/model"
)

type memRepo struct {
	mu        sync.Mutex
	items     []*model.Notification
	createErr error
}

func (m *memRepo) Create(_ context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	n.ID = fmt.Sprintf("%024d", len(m.items)+1)
	n.CreatedAt = time.Now().UTC()
	m.items = append(m.items, n)
	return nil
}

func (m *memRepo) visible(userID string) []*model.Notification {
	var out []*model.Notification
	for _, n := range m.items {
		if n.UserID == "" || n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func (m *memRepo) FindForUser(_ context.Context, userID string, limit int, offset int64) ([]*model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.visible(userID)
	if int(offset) >= len(items) {
		return []*model.Notification{}, nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	for _, n := range items {
		n.ResolveRead(userID)
	}
	return items, nil
}

func (m *memRepo) CountForUser(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.visible(userID))), nil
}

func (m *memRepo) MarkRead(_ context.Context, id string, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(id) != 24 {
		return notificationserrors.ErrInvalidID
	}
	for _, n := range m.visible(userID) {
		if n.ID == id {
			if !slices.Contains(n.ReadBy, userID) {
				n.ReadBy = append(n.ReadBy, userID)
			}
			return nil
		}
	}
	return notificationserrors.ErrNotFound
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(id) != 24 {
		return notificationserrors.ErrInvalidID
	}
	for i, n := range m.items {
		if n.ID == id {
			m.items = slices.Delete(m.items, i, i+1)
			return nil
		}
	}
	return notificationserrors.ErrNotFound
}

type emitted struct {
	Target string
	Prefix bool
	Event  string
	Data   any
}

type recordingHub struct {
	mu     sync.Mutex
	events []emitted
}

func (h *recordingHub) Emit(room, event string, data any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, emitted{Target: room, Event: event, Data: data})
}

func (h *recordingHub) EmitPrefix(prefix, event string, data any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, emitted{Target: prefix, Prefix: true, Event: event, Data: data})
}

func (h *recordingHub) names() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.events))
	for _, e := range h.events {
		out = append(out, e.Target+" "+e.Event)
	}
	return out
}

type sentMail struct {
	To       []string
	Template mailer.Template
	Data     any
}

type fakeMailer struct {
	disabled bool
	failFor  string
	mu       sync.Mutex
	sent     []sentMail
}

func (f *fakeMailer) Enabled() bool { return !f.disabled }

func (f *fakeMailer) Send(_ context.Context, to string, tmpl mailer.Template, data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{To: []string{to}, Template: tmpl, Data: data})
	if to == f.failFor {
		return errors.New("smtp: mailbox unavailable")
	}
	return nil
}

func (f *fakeMailer) SendBatch(_ context.Context, recipients []string, tmpl mailer.Template, data any) []mailer.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{To: recipients, Template: tmpl, Data: data})
	results := make([]mailer.Result, 0, len(recipients))
	for _, r := range recipients {
		var err error
		if r == f.failFor {
			err = errors.New("smtp: mailbox unavailable")
		}
		results = append(results, mailer.Result{Recipient: r, Err: err})
	}
	return results
}

type staticDirectory struct {
	admins []string
	users  []string
	err    error
}

func (d *staticDirectory) AdminEmails(context.Context) ([]string, error) { return d.admins, d.err }
func (d *staticDirectory) UserEmails(context.Context) ([]string, error)  { return d.users, d.err }

type publishedEvent struct {
	Type      string
	BookingID string
}

type recordingEvents struct {
	events []publishedEvent
	err    error
}

func (r *recordingEvents) Publish(_ context.Context, eventType string, b *model.Booking) error {
	r.events = append(r.events, publishedEvent{Type: eventType, BookingID: b.ID})
	return r.err
}

func testConfig() *config.Config {
	return &config.Config{
		Log:               logger.Discard(),
		Location:          time.FixedZone("IST", 5*3600+1800),
		FrontendURL:       "https://birshibpur.example",
		DefaultAdminEmail: "mandir@example.com",
		ReadTimeout:       time.Second,
		WriteTimeout:      time.Second,
	}
}

func syncRun(f func()) { f() }
