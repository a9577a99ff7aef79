package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"gigbook/internal/events"
	"gigbook/internal/models"
)

type message struct {
	Greeting string
	Lines    []string
	Link     string
}

var htmlLayout = template.Must(template.New("email").Parse(`<!doctype html>
<html><body style="font-family:sans-serif">
<p>{{.Greeting}}</p>
{{range .Lines}}<p>{{.}}</p>
{{end}}{{if .Link}}<p><a href="{{.Link}}">Open gigbook</a></p>{{end}}
</body></html>`))

var textLayout = texttemplate.Must(texttemplate.New("email").Parse(`{{.Greeting}}

{{range .Lines}}{{.}}
{{end}}{{if .Link}}
{{.Link}}
{{end}}`))

func render(to, subject string, m message) (models.Notification, error) {
	var html, text bytes.Buffer
	if err := htmlLayout.Execute(&html, m); err != nil {
		return models.Notification{}, fmt.Errorf("render html: %w", err)
	}
	if err := textLayout.Execute(&text, m); err != nil {
		return models.Notification{}, fmt.Errorf("render text: %w", err)
	}
	return models.Notification{To: to, Subject: subject, HTMLBody: html.String(), TextBody: text.String()}, nil
}

func when(t time.Time, hours float64) string {
	if hours > 0 {
		return fmt.Sprintf("%s (%s h)", t.UTC().Format("Mon 02 Jan 2006 15:04 MST"), trimFloat(hours))
	}
	return t.UTC().Format("Mon 02 Jan 2006 15:04 MST")
}

func trimFloat(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
}

// bookingNotification builds the email for a booking transition, or ok=false when the
// transition has no recipient.
func bookingNotification(eventType string, p events.BookingEventPayload, baseURL string) (n models.Notification, ok bool, err error) {
	slot := when(p.EventDate, p.Hours)
	link := strings.TrimRight(baseURL, "/")
	if link != "" {
		link = fmt.Sprintf("%s/bookings/%d", link, p.BookingID)
	}

	var (
		to, subject string
		m           message
	)
	switch eventType {
	case events.EventBookingRequested:
		to = p.ArtistEmail
		subject = "New booking request from " + p.VenueName
		m = message{Greeting: "Hi " + p.ArtistName + ",", Lines: []string{
			p.VenueName + " would like to book you for " + slot + ".",
		}}
		if p.Note != "" {
			m.Lines = append(m.Lines, "Note: "+p.Note)
		}
	case events.EventBookingAccepted:
		to = p.VenueEmail
		subject = p.ArtistName + " accepted your booking"
		m = message{Greeting: "Hi " + p.VenueName + ",", Lines: []string{
			p.ArtistName + " accepted the booking for " + slot + ".",
		}}
		if p.EventSlug != "" {
			m.Lines = append(m.Lines, "The event page is live: "+p.EventSlug)
		}
	case events.EventBookingDeclined:
		to = p.VenueEmail
		subject = p.ArtistName + " declined your booking"
		m = message{Greeting: "Hi " + p.VenueName + ",", Lines: []string{
			p.ArtistName + " declined the booking for " + slot + ".",
		}}
	case events.EventBookingCancelled:
		to = p.ArtistEmail
		subject = p.VenueName + " cancelled a booking"
		m = message{Greeting: "Hi " + p.ArtistName + ",", Lines: []string{
			p.VenueName + " cancelled the booking for " + slot + ".",
		}}
	default:
		return models.Notification{}, false, nil
	}
	if to == "" {
		return models.Notification{}, false, nil
	}

	m.Link = link
	n, err = render(to, subject, m)
	return n, err == nil, err
}

// eventNotification builds the email for a venue event transition.
func eventNotification(eventType string, p events.EventEventPayload, baseURL string) (n models.Notification, ok bool, err error) {
	link := strings.TrimRight(baseURL, "/")
	if link != "" {
		link = fmt.Sprintf("%s/events/%s", link, p.Slug)
	}
	slot := when(p.StartAt, 0)

	var (
		to, subject string
		m           message
	)
	switch eventType {
	case events.EventEventRequested:
		to = p.VenueEmail
		subject = "Event request: " + p.Title
		m = message{Greeting: "Hi " + p.VenueName + ",", Lines: []string{
			p.ArtistName + " asked to play \"" + p.Title + "\" on " + slot + ".",
		}}
	case events.EventEventPublished:
		to = p.ArtistEmail
		subject = "Event confirmed: " + p.Title
		m = message{Greeting: "Hi " + p.ArtistName + ",", Lines: []string{
			p.VenueName + " published \"" + p.Title + "\" on " + slot + ".",
		}}
	case events.EventEventDeclined:
		to = p.ArtistEmail
		subject = "Event request declined: " + p.Title
		m = message{Greeting: "Hi " + p.ArtistName + ",", Lines: []string{
			p.VenueName + " declined \"" + p.Title + "\".",
		}}
		link = ""
	case events.EventEventCancelled:
		to = p.ArtistEmail
		subject = "Event cancelled: " + p.Title
		m = message{Greeting: "Hi " + p.ArtistName + ",", Lines: []string{
			"\"" + p.Title + "\" at " + p.VenueName + " on " + slot + " was cancelled.",
		}}
	default:
		return models.Notification{}, false, nil
	}
	if to == "" {
		return models.Notification{}, false, nil
	}

	m.Link = link
	n, err = render(to, subject, m)
	return n, err == nil, err
}
