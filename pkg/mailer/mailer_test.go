package mailer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"sync"
	"testing"
	"time"

	"birshibpur/pkg/logger"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	mu      sync.Mutex
	sent    []string
	bodies  [][]byte
	failFor map[string]bool
}

func (f *fakeTransport) Send(_ context.Context, _ string, to []string, msg []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[to[0]] {
		return errors.New("mailbox unavailable")
	}
	f.sent = append(f.sent, to[0])
	f.bodies = append(f.bodies, msg)
	return nil
}

func newTestMailer(transport Transport, batchSize int) (*Mailer, *[]time.Duration) {
	m := New(Config{From: "mandir@example.com", BatchSize: batchSize, BatchDelay: time.Second}, transport, logger.Discard(), nil)
	var sleeps []time.Duration
	m.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return ctx.Err()
	}
	return m, &sleeps
}

func TestRender_AllTemplates(t *testing.T) {
	m, _ := newTestMailer(&fakeTransport{}, 1)

	booking := BookingData{Name: "Ramesh", ServiceName: "Annaprashan", Date: "2025-03-10", Time: "10:00", Reason: "সময় পরিবর্তন"}
	cases := map[Template]any{
		TemplateNewBooking:      booking,
		TemplateBookingApproved: booking,
		TemplateBookingRejected: booking,
		TemplateOTP:             OTPData{Code: "123456", Purpose: "লগইন", Minutes: 10},
		TemplateAnnouncement:    AnnouncementData{Title: "দুর্গা পূজা", Message: "সবাইকে আমন্ত্রণ"},
	}

	for tmpl, data := range cases {
		subject, body, err := m.render(tmpl, data)
		require.NoError(t, err, tmpl)
		assert.NotEmpty(t, subject, tmpl)
		assert.Contains(t, body, "বীরশিবপুর মন্দির", tmpl)
	}

	_, body, err := m.render(TemplateBookingRejected, booking)
	require.NoError(t, err)
	assert.Contains(t, body, "সময় পরিবর্তন")

	_, _, err = m.render(Template("missing"), nil)
	assert.Error(t, err)
}

func TestRender_EscapesHTML(t *testing.T) {
	m, _ := newTestMailer(&fakeTransport{}, 1)

	_, body, err := m.render(TemplateAnnouncement, AnnouncementData{Title: "x", Message: "<script>alert(1)</script>"})
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
}

func TestSend(t *testing.T) {
	transport := &fakeTransport{}
	m, _ := newTestMailer(transport, 1)
	to := gofakeit.Email()

	err := m.Send(context.Background(), to, TemplateOTP, OTPData{Code: "654321", Purpose: "login", Minutes: 10})
	require.NoError(t, err)
	require.Len(t, transport.sent, 1)
	assert.Equal(t, to, transport.sent[0])

	parsed, err := mail.ReadMessage(bytes.NewReader(transport.bodies[0]))
	require.NoError(t, err)
	assert.Equal(t, to, parsed.Header.Get("To"))

	subject, err := new(mime.WordDecoder).DecodeHeader(parsed.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Contains(t, subject, "654321")

	body, err := io.ReadAll(quotedprintable.NewReader(parsed.Body))
	require.NoError(t, err)
	assert.Contains(t, string(body), "654321")
}

func TestSend_Disabled(t *testing.T) {
	m := New(Config{}, nil, logger.Discard(), nil)

	assert.False(t, m.Enabled())
	assert.ErrorIs(t, m.Send(context.Background(), "a@b.c", TemplateOTP, OTPData{}), ErrDisabled)

	results := m.SendBatch(context.Background(), []string{"a@b.c", "d@e.f"}, TemplateAnnouncement, AnnouncementData{})
	require.Len(t, results, 2)
	assert.ErrorIs(t, results[1].Err, ErrDisabled)
}

func TestSendBatch_ThrottlesBetweenBatches(t *testing.T) {
	transport := &fakeTransport{failFor: map[string]bool{"bad@example.com": true}}
	m, sleeps := newTestMailer(transport, 2)

	recipients := []string{"a@example.com", "bad@example.com", "c@example.com", "d@example.com", "e@example.com"}
	results := m.SendBatch(context.Background(), recipients, TemplateAnnouncement, AnnouncementData{Title: "t", Message: "m"})

	require.Len(t, results, len(recipients))
	assert.Len(t, *sleeps, 2)
	assert.Equal(t, []string{"a@example.com", "c@example.com", "d@example.com", "e@example.com"}, transport.sent)

	failed := Failed(results)
	require.Len(t, failed, 1)
	assert.Equal(t, "bad@example.com", failed[0].Recipient)
}

func TestSendBatch_StopsWhenContextEnds(t *testing.T) {
	transport := &fakeTransport{}
	m, _ := newTestMailer(transport, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := m.SendBatch(ctx, []string{"a@example.com", "b@example.com", "c@example.com"}, TemplateAnnouncement, AnnouncementData{})

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, context.Canceled)
	assert.ErrorIs(t, results[2].Err, context.Canceled)
	assert.Len(t, transport.sent, 1)
}

func TestCompose_QuotedPrintableBody(t *testing.T) {
	msg, err := compose("from@example.com", "to@example.com", "বুকিং", strings.Repeat("অ", 100))
	require.NoError(t, err)

	s := string(msg)
	assert.Contains(t, s, "Content-Transfer-Encoding: quoted-printable")
	for _, line := range strings.Split(s, "\r\n") {
		assert.LessOrEqual(t, len(line), 998)
	}
}
