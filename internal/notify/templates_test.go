package notify

import (
	"strings"
	"testing"

	"github.com/parcelhub/parcelhub-backend/pkg/enums"
)

func TestRenderTemplate(t *testing.T) {
	tctx := TemplateContext{
		"customer_name": "Ana",
		"tracking_code": "PH-123",
	}

	got := RenderTemplate("Hi {{customer_name}}, package {{tracking_code}} is ready.", tctx)
	want := "Hi Ana, package PH-123 is ready."
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRenderTemplateMissingKey(t *testing.T) {
	got := RenderTemplate("Hello {{name}}, code {{code}}.", TemplateContext{"name": "Ana"})
	if got != "Hello Ana, code ." {
		t.Fatalf("missing key should render empty, got %q", got)
	}
	if strings.Contains(got, "{{") {
		t.Fatalf("raw marker leaked into %q", got)
	}
}

func TestRenderTemplateUnterminatedMarker(t *testing.T) {
	got := RenderTemplate("broken {{name", TemplateContext{"name": "Ana"})
	if got != "broken {{name" {
		t.Fatalf("unterminated marker should pass through, got %q", got)
	}
}

func TestTemplateCatalogueCoversAllEventsAndChannels(t *testing.T) {
	events := []enums.NotificationEvent{
		enums.NotificationEventArrived,
		enums.NotificationEventPickedUp,
		enums.NotificationEventStorageWarning,
		enums.NotificationEventStorageExpired,
		enums.NotificationEventOTPGenerated,
	}
	for _, event := range events {
		for _, channel := range enums.DefaultChannels() {
			tpl, ok := TemplateFor(event, channel)
			if !ok {
				t.Fatalf("no template for %s on %s", event, channel)
			}
			if tpl.Body == "" {
				t.Fatalf("empty body for %s on %s", event, channel)
			}
			if channel == enums.ChannelEmail && tpl.Subject == "" {
				t.Fatalf("empty subject for %s email", event)
			}
		}
	}
}
