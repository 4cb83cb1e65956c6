package reminder

import (
	"fmt"
	"strings"

	"github.com/bookwell/bookwell/internal/appointment"
)

// MessageTemplate renders the reminder email for one offset.
func MessageTemplate(a *appointment.Appointment, serviceName string, offset Offset) (subject, body string) {
	name := firstName(a.CustomerName)
	what := strings.TrimSpace(serviceName)
	if what == "" {
		what = "appointment"
	}
	when := fmt.Sprintf("%s at %s", a.Date.Format("Monday, January 2"), a.TimeLabel)

	switch offset.Label {
	case "now":
		subject = fmt.Sprintf("Your %s is starting now", what)
		body = fmt.Sprintf(
			"Hi %s! Your %s is starting now (%s). See you there!",
			name, what, a.TimeLabel,
		)
	case "5m", "30m", "1h":
		subject = fmt.Sprintf("Your %s starts in %s", what, humanLead(offset))
		body = fmt.Sprintf(
			"Hi %s! Quick reminder: your %s starts in %s, on %s. If you're running late, let your provider know.",
			name, what, humanLead(offset), when,
		)
	default:
		subject = fmt.Sprintf("Reminder: %s on %s", what, a.Date.Format("Jan 2"))
		body = fmt.Sprintf(
			"Hi %s! This is a reminder that your %s is coming up in about %s, on %s. Need to make a change? You can reschedule or cancel any time before it starts.",
			name, what, humanLead(offset), when,
		)
	}
	return subject, body
}

func humanLead(o Offset) string {
	switch o.Label {
	case "24h":
		return "24 hours"
	case "12h":
		return "12 hours"
	case "6h":
		return "6 hours"
	case "1h":
		return "1 hour"
	case "30m":
		return "30 minutes"
	case "5m":
		return "5 minutes"
	default:
		return o.Lead.String()
	}
}

func firstName(full string) string {
	full = strings.TrimSpace(full)
	if full == "" {
		return "there"
	}
	if idx := strings.IndexByte(full, ' '); idx > 0 {
		return full[:idx]
	}
	return full
}
