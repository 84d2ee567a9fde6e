package notify

import (
	"strings"

	"github.com/parcelhub/parcelhub-backend/pkg/enums"
)

// Template is a message skeleton with {{placeholder}} markers.
type Template struct {
	Subject string
	Body    string
}

// TemplateContext supplies placeholder values for rendering.
type TemplateContext map[string]string

// RenderTemplate substitutes {{key}} markers with the matching context value.
// Unknown keys render as the empty string, never as the raw marker.
func RenderTemplate(tpl string, tctx TemplateContext) string {
	var b strings.Builder
	rest := tpl
	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			b.WriteString(rest)
			return b.String()
		}
		end := strings.Index(rest[start:], "}}")
		if end < 0 {
			b.WriteString(rest)
			return b.String()
		}
		b.WriteString(rest[:start])
		key := strings.TrimSpace(rest[start+2 : start+end])
		b.WriteString(tctx[key])
		rest = rest[start+end+2:]
	}
}

var templateCatalogue = map[enums.NotificationEvent]map[enums.Channel]Template{
	enums.NotificationEventArrived: {
		enums.ChannelEmail: {
			Subject: "Your package {{tracking_code}} has arrived",
			Body:    "Hi {{customer_name}},\n\nYour package {{tracking_code}} arrived at {{location}} and is ready for pickup.\n\nThank you.",
		},
		enums.ChannelChat: {
			Body: "Hi {{customer_name}}, your package {{tracking_code}} arrived at {{location}} and is ready for pickup.",
		},
	},
	enums.NotificationEventPickedUp: {
		enums.ChannelEmail: {
			Subject: "Package {{tracking_code}} picked up",
			Body:    "Hi {{customer_name}},\n\nYour package {{tracking_code}} was picked up. Thank you for using our service.",
		},
		enums.ChannelChat: {
			Body: "Hi {{customer_name}}, your package {{tracking_code}} was picked up. Thank you.",
		},
	},
	enums.NotificationEventStorageWarning: {
		enums.ChannelEmail: {
			Subject: "Package {{tracking_code}} will expire soon",
			Body:    "Hi {{customer_name}},\n\nYour package {{tracking_code}} has been in storage at {{location}} for {{days_stored}} days and will expire soon. Please pick it up.",
		},
		enums.ChannelChat: {
			Body: "Hi {{customer_name}}, your package {{tracking_code}} has been stored for {{days_stored}} days and will expire soon. Please pick it up at {{location}}.",
		},
	},
	enums.NotificationEventStorageExpired: {
		enums.ChannelEmail: {
			Subject: "Package {{tracking_code}} storage expired",
			Body:    "Hi {{customer_name}},\n\nStorage for your package {{tracking_code}} at {{location}} has expired. Please contact us to arrange a pickup.",
		},
		enums.ChannelChat: {
			Body: "Hi {{customer_name}}, storage for your package {{tracking_code}} has expired. Please contact us to arrange a pickup.",
		},
	},
	enums.NotificationEventOTPGenerated: {
		enums.ChannelEmail: {
			Subject: "Pickup code for package {{tracking_code}}",
			Body:    "Hi {{customer_name}},\n\nYour pickup code for package {{tracking_code}} is {{code}}. It expires at {{expires_at}}.",
		},
		enums.ChannelChat: {
			Body: "Hi {{customer_name}}, your pickup code for package {{tracking_code}} is {{code}}. It expires at {{expires_at}}.",
		},
	},
}

// TemplateFor returns the catalogue template for the event and channel.
func TemplateFor(event enums.NotificationEvent, channel enums.Channel) (Template, bool) {
	byChannel, ok := templateCatalogue[event]
	if !ok {
		return Template{}, false
	}
	tpl, ok := byChannel[channel]
	return tpl, ok
}
