package mailer

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

type Template string

const (
	TemplateNewBooking      Template = "new_booking"
	TemplateBookingApproved Template = "booking_approved"
	TemplateBookingRejected Template = "booking_rejected"
	TemplateOTP             Template = "otp"
	TemplateAnnouncement    Template = "announcement"
)

// BookingData feeds the three booking templates.
type BookingData struct {
	Name        string
	Email       string
	Phone       string
	ServiceName string
	Date        string
	Time        string
	Message     string
	Reason      string
	Link        string
}

type OTPData struct {
	Code    string
	Purpose string
	Minutes int
}

type AnnouncementData struct {
	Title   string
	Message string
}

type template struct {
	subject *texttemplate.Template
	body    *htmltemplate.Template
}

const layoutStart = `<div style="font-family:'Noto Sans Bengali',Arial,sans-serif;max-width:560px;margin:auto;padding:24px;border:1px solid #f0d9b5;border-radius:8px">
<h2 style="color:#b45309;margin-top:0">বীরশিবপুর মন্দির</h2>`

const layoutEnd = `<p style="color:#78716c;font-size:12px;margin-top:24px">এটি একটি স্বয়ংক্রিয় বার্তা। অনুগ্রহ করে উত্তর দেবেন না।</p></div>`

var sources = map[Template][2]string{
	TemplateNewBooking: {
		`নতুন বুকিং: {{.ServiceName}} ({{.Date}})`,
		layoutStart + `<p>একটি নতুন বুকিং অনুরোধ এসেছে।</p>
<table cellpadding="4">
<tr><td>নাম</td><td>{{.Name}}</td></tr>
<tr><td>ইমেল</td><td>{{.Email}}</td></tr>
<tr><td>ফোন</td><td>{{.Phone}}</td></tr>
<tr><td>পূজা</td><td>{{.ServiceName}}</td></tr>
<tr><td>তারিখ</td><td>{{.Date}} {{.Time}}</td></tr>
{{if .Message}}<tr><td>বার্তা</td><td>{{.Message}}</td></tr>{{end}}
</table>
{{if .Link}}<p><a href="{{.Link}}">ড্যাশবোর্ডে দেখুন</a></p>{{end}}` + layoutEnd,
	},
	TemplateBookingApproved: {
		`আপনার বুকিং নিশ্চিত হয়েছে: {{.ServiceName}}`,
		layoutStart + `<p>প্রিয় {{.Name}},</p>
<p>{{.Date}} তারিখে {{.Time}} সময়ে আপনার <b>{{.ServiceName}}</b> বুকিং অনুমোদিত হয়েছে।</p>
{{if .Link}}<p><a href="{{.Link}}">বুকিং দেখুন</a></p>{{end}}` + layoutEnd,
	},
	TemplateBookingRejected: {
		`আপনার বুকিং গ্রহণ করা যায়নি: {{.ServiceName}}`,
		layoutStart + `<p>প্রিয় {{.Name}},</p>
<p>দুঃখিত, {{.Date}} তারিখে {{.Time}} সময়ের <b>{{.ServiceName}}</b> বুকিংটি গ্রহণ করা সম্ভব হয়নি।</p>
{{if .Reason}}<p>কারণ: {{.Reason}}</p>{{end}}
{{if .Link}}<p><a href="{{.Link}}">নতুন বুকিং করুন</a></p>{{end}}` + layoutEnd,
	},
	TemplateOTP: {
		`আপনার যাচাইকরণ কোড: {{.Code}}`,
		layoutStart + `<p>{{.Purpose}} এর জন্য আপনার কোড:</p>
<p style="font-size:28px;letter-spacing:6px;font-weight:bold">{{.Code}}</p>
<p>কোডটি {{.Minutes}} মিনিট পর্যন্ত বৈধ।</p>` + layoutEnd,
	},
	TemplateAnnouncement: {
		`{{.Title}}`,
		layoutStart + `<h3>{{.Title}}</h3>
<p style="white-space:pre-line">{{.Message}}</p>` + layoutEnd,
	},
}

func mustParseTemplates() map[Template]*template {
	out := make(map[Template]*template, len(sources))
	for name, src := range sources {
		out[name] = &template{
			subject: texttemplate.Must(texttemplate.New(string(name) + "_subject").Parse(src[0])),
			body:    htmltemplate.Must(htmltemplate.New(string(name)).Parse(src[1])),
		}
	}
	return out
}

func (m *Mailer) render(name Template, data any) (string, string, error) {
	t, ok := m.templates[name]
	if !ok {
		return "", "", fmt.Errorf("unknown mail template %q", name)
	}

	var subject, body bytes.Buffer
	if err := t.subject.Execute(&subject, data); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", name, err)
	}
	if err := t.body.Execute(&body, data); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", name, err)
	}
	return subject.String(), body.String(), nil
}
