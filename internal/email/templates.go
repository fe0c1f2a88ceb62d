package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/smilebright/booking-api/internal/model"
)

const baseTemplate = `
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background-color: #0ea5e9; padding: 24px; text-align: center;">
    <h1 style="color: #ffffff; margin: 0;">Smile Bright Dental Clinic</h1>
  </div>
  <div style="padding: 24px; background-color: #f8fafc;">
    <h2 style="color: #0f172a;">{{.Heading}}</h2>
    <p style="color: #334155;">Dear {{.PatientName}},</p>
    <p style="color: #334155;">{{.Intro}}</p>
    <table style="width: 100%; background-color: #ffffff; border-radius: 8px; padding: 16px; margin: 16px 0;">
      <tr><td style="padding: 8px; color: #64748b;">Service</td><td style="padding: 8px; color: #0f172a;">{{.Service}}</td></tr>
      <tr><td style="padding: 8px; color: #64748b;">Date</td><td style="padding: 8px; color: #0f172a;">{{.Date}}</td></tr>
      <tr><td style="padding: 8px; color: #64748b;">Time</td><td style="padding: 8px; color: #0f172a;">{{.Time}}</td></tr>
    </table>
    {{if .Reply}}
    <div style="background-color: #ffffff; border-left: 4px solid #0ea5e9; padding: 12px 16px; margin: 16px 0;">
      <p style="color: #0f172a; margin: 0;">{{.Reply}}</p>
    </div>
    {{end}}
    <div style="text-align: center; margin: 24px 0;">
      <a href="{{.Link}}" style="background-color: #0ea5e9; color: #ffffff; padding: 12px 24px; border-radius: 6px; text-decoration: none;">{{.LinkLabel}}</a>
    </div>
    <p style="color: #64748b; font-size: 13px;">If you have any questions, simply reply to this email or call our front desk.</p>
  </div>
  <div style="padding: 16px; text-align: center; color: #94a3b8; font-size: 12px;">
    Smile Bright Dental Clinic
  </div>
</div>
`

var emailTemplate = template.Must(template.New("email").Parse(baseTemplate))

type templateData struct {
	Heading     string
	PatientName string
	Intro       string
	Service     string
	Date        string
	Time        string
	Reply       string
	Link        string
	LinkLabel   string
}

func renderEmail(data templateData) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render email template: %w", err)
	}
	return buf.String(), nil
}

func formatDate(t time.Time) string {
	return t.Format("Monday, January 2, 2006")
}

func confirmationEmail(appt *model.Appointment, frontendURL string) (subject, body string, err error) {
	subject = "Your appointment is confirmed"
	body, err = renderEmail(templateData{
		Heading:     "Appointment Confirmed",
		PatientName: appt.PatientName,
		Intro:       "Great news! Your appointment has been confirmed. We look forward to seeing you.",
		Service:     appt.Service,
		Date:        formatDate(appt.Date),
		Time:        appt.Time,
		Link:        frontendURL + "/my-appointments",
		LinkLabel:   "View My Appointments",
	})
	return subject, body, err
}

func cancellationEmail(appt *model.Appointment, frontendURL string) (subject, body string, err error) {
	subject = "Your appointment has been cancelled"
	body, err = renderEmail(templateData{
		Heading:     "Appointment Cancelled",
		PatientName: appt.PatientName,
		Intro:       "Your appointment has been cancelled. If this was unexpected, please contact us or book a new visit.",
		Service:     appt.Service,
		Date:        formatDate(appt.Date),
		Time:        appt.Time,
		Link:        frontendURL + "/booking",
		LinkLabel:   "Book a New Appointment",
	})
	return subject, body, err
}

func reminderEmail(appt *model.Appointment, frontendURL string) (subject, body string, err error) {
	subject = "Reminder: your appointment is tomorrow"
	body, err = renderEmail(templateData{
		Heading:     "Appointment Reminder",
		PatientName: appt.PatientName,
		Intro:       "This is a friendly reminder that your appointment is tomorrow. Please arrive 10 minutes early.",
		Service:     appt.Service,
		Date:        formatDate(appt.Date),
		Time:        appt.Time,
		Link:        frontendURL + "/my-appointments",
		LinkLabel:   "View My Appointments",
	})
	return subject, body, err
}

func replyEmail(appt *model.Appointment, reply *model.Reply, frontendURL string) (subject, body string, err error) {
	subject = "New message about your appointment"
	body, err = renderEmail(templateData{
		Heading:     "New Message From Our Team",
		PatientName: appt.PatientName,
		Intro:       fmt.Sprintf("%s sent you a message about your appointment:", reply.Author),
		Service:     appt.Service,
		Date:        formatDate(appt.Date),
		Time:        appt.Time,
		Reply:       reply.Body,
		Link:        frontendURL + "/my-appointments",
		LinkLabel:   "Reply in Your Account",
	})
	return subject, body, err
}
