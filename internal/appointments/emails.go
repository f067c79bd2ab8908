package appointments

import (
	"fmt"
	"html"
	"time"

	"github.com/wolfman30/dental-booking-ai/internal/notify"
	"github.com/wolfman30/dental-booking-ai/internal/store"
)

const emailTimeLayout = "Monday, January 2, 2006 at 15:04"

func confirmationEmail(appt *store.Appointment, clinicName string, loc *time.Location) notify.EmailMessage {
	when := appt.StartsAt.In(loc).Format(emailTimeLayout)
	body := fmt.Sprintf(`Dear %s,

Your appointment has been approved.

Service: %s
Date & Time: %s

We look forward to seeing you!

Best regards,
%s`, appt.PatientName, appt.ServiceName, when, clinicName)

	htmlBody := fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
<h2 style="color: #10b981;">Appointment Confirmed!</h2>
<p>Dear %s,</p>
<p>Your appointment has been approved.</p>
<p><strong>Service:</strong> %s</p>
<p><strong>Date &amp; Time:</strong> %s</p>
<p>We look forward to seeing you!</p>
<p>Best regards,<br>%s</p>
</div>`,
		html.EscapeString(appt.PatientName), html.EscapeString(appt.ServiceName), when, html.EscapeString(clinicName))

	return notify.EmailMessage{
		To:      appt.PatientEmail,
		ToName:  appt.PatientName,
		Subject: fmt.Sprintf("✅ Your appointment at %s is confirmed!", clinicName),
		Body:    body,
		HTML:    htmlBody,
	}
}

func declineEmail(appt *store.Appointment, clinicName, clinicPhone string, loc *time.Location) notify.EmailMessage {
	when := appt.StartsAt.In(loc).Format(emailTimeLayout)
	body := fmt.Sprintf(`Dear %s,

Unfortunately, we are unable to accommodate your requested appointment time.

Requested Service: %s
Requested Time: %s

Please visit our website to book a different time, or call us at %s.
We apologize for any inconvenience.

Best regards,
%s`, appt.PatientName, appt.ServiceName, when, clinicPhone, clinicName)

	htmlBody := fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
<h2>Appointment Update</h2>
<p>Dear %s,</p>
<p>Unfortunately, we are unable to accommodate your requested appointment time.</p>
<p><strong>Requested Service:</strong> %s</p>
<p><strong>Requested Time:</strong> %s</p>
<p>Please visit our website to book a different time, or call us at <a href="tel:%s">%s</a>.</p>
<p>We apologize for any inconvenience.</p>
<p>Best regards,<br>%s</p>
</div>`,
		html.EscapeString(appt.PatientName), html.EscapeString(appt.ServiceName), when,
		html.EscapeString(clinicPhone), html.EscapeString(clinicPhone), html.EscapeString(clinicName))

	return notify.EmailMessage{
		To:      appt.PatientEmail,
		ToName:  appt.PatientName,
		Subject: fmt.Sprintf("Regarding your appointment request at %s", clinicName),
		Body:    body,
		HTML:    htmlBody,
	}
}
