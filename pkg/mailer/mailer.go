// Package mailer renders the temple's transactional e-mails and sends
// them over SMTP.
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"time"

	"birshibpur/pkg/logger"
	"birshibpur/pkg/metrics"
)

var ErrDisabled = errors.New("mail delivery is not configured")

// Transport delivers one fully composed message.
type Transport interface {
	Send(ctx context.Context, from string, to []string, msg []byte) error
}

type Config struct {
	From       string
	BatchSize  int
	BatchDelay time.Duration
}

type Result struct {
	Recipient string
	Err       error
}

type Mailer struct {
	transport Transport
	cfg       Config
	templates map[Template]*template
	log       *logger.Logger
	metrics   *metrics.Metrics
	sleep     func(ctx context.Context, d time.Duration) error
}

// New returns a mailer. A nil transport yields a mailer whose sends fail
// with ErrDisabled.
func New(cfg Config, transport Transport, log *logger.Logger, m *metrics.Metrics) *Mailer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1
	}
	return &Mailer{
		transport: transport,
		cfg:       cfg,
		templates: mustParseTemplates(),
		log:       log,
		metrics:   m,
		sleep:     sleepContext,
	}
}

func (m *Mailer) Enabled() bool {
	return m.transport != nil
}

// Send renders tmpl with data and delivers it to a single recipient.
func (m *Mailer) Send(ctx context.Context, to string, tmpl Template, data any) error {
	if !m.Enabled() {
		return ErrDisabled
	}

	subject, body, err := m.render(tmpl, data)
	if err != nil {
		return err
	}
	return m.deliver(ctx, to, tmpl, subject, body)
}

// SendBatch renders once and sends to every recipient sequentially,
// pausing BatchDelay after each BatchSize messages. It stops early only
// when ctx ends; remaining recipients are reported with the context error.
func (m *Mailer) SendBatch(ctx context.Context, recipients []string, tmpl Template, data any) []Result {
	results := make([]Result, 0, len(recipients))
	if len(recipients) == 0 {
		return results
	}

	fail := func(from int, err error) []Result {
		for _, r := range recipients[from:] {
			results = append(results, Result{Recipient: r, Err: err})
		}
		return results
	}

	if !m.Enabled() {
		return fail(0, ErrDisabled)
	}
	subject, body, err := m.render(tmpl, data)
	if err != nil {
		return fail(0, err)
	}

	for i, to := range recipients {
		if i > 0 && i%m.cfg.BatchSize == 0 {
			if err := m.sleep(ctx, m.cfg.BatchDelay); err != nil {
				return fail(i, err)
			}
		}
		results = append(results, Result{Recipient: to, Err: m.deliver(ctx, to, tmpl, subject, body)})
	}
	return results
}

func (m *Mailer) deliver(ctx context.Context, to string, tmpl Template, subject, body string) error {
	msg, err := compose(m.cfg.From, to, subject, body)
	if err != nil {
		return err
	}

	err = m.transport.Send(ctx, m.cfg.From, []string{to}, msg)
	m.metrics.IncEmail(string(tmpl), err == nil)
	if err != nil {
		return fmt.Errorf("send %s mail to %s: %w", tmpl, to, err)
	}
	m.log.Debug("Mail sent", "template", tmpl, "to", to)
	return nil
}

func compose(from, to, subject, htmlBody string) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")

	qp := quotedprintable.NewWriter(&buf)
	if _, err := qp.Write([]byte(htmlBody)); err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	if err := qp.Close(); err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	return buf.Bytes(), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
