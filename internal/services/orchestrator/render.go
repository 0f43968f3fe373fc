package orchestrator

import (
	"html"
	"strings"

	"github.com/NordCoder/Lessonbell/internal/domain/notification"
)

type Content struct {
	Subject   string
	Text      string
	HTML      string
	SMS       string
	PushTitle string
	PushBody  string
	URL       string
	Language  string
}

// Renderer turns a notification into channel bodies. Template lookup and
// variable substitution live behind this interface.
type Renderer interface {
	Render(n *notification.Notification, language string) Content
}

const maxSMSLen = 1600

type PlainRenderer struct{}

func (PlainRenderer) Render(n *notification.Notification, language string) Content {
	subject := n.Title
	if n.Urgent() {
		subject = "[URGENT] " + subject
	}

	label := n.ActionLabel
	if label == "" {
		label = "Open"
	}

	var text strings.Builder
	text.WriteString(n.Message)
	if n.ActionURL != "" {
		text.WriteString("\n\n")
		text.WriteString(label)
		text.WriteString(": ")
		text.WriteString(n.ActionURL)
	}

	var body strings.Builder
	body.WriteString("<p>")
	body.WriteString(strings.ReplaceAll(html.EscapeString(n.Message), "\n", "<br>"))
	body.WriteString("</p>")
	if n.ActionURL != "" {
		body.WriteString(`<p><a href="`)
		body.WriteString(html.EscapeString(n.ActionURL))
		body.WriteString(`">`)
		body.WriteString(html.EscapeString(label))
		body.WriteString("</a></p>")
	}

	sms := n.Title + ": " + n.Message
	if n.ActionURL != "" {
		sms += " " + n.ActionURL
	}
	if r := []rune(sms); len(r) > maxSMSLen {
		sms = string(r[:maxSMSLen-1]) + "…"
	}

	return Content{
		Subject:   subject,
		Text:      text.String(),
		HTML:      body.String(),
		SMS:       sms,
		PushTitle: n.Title,
		PushBody:  n.Message,
		URL:       n.ActionURL,
		Language:  language,
	}
}
