package enums

import "testing"

func TestParsePackageStatus(t *testing.T) {
	for _, status := range PackageStatuses() {
		parsed, err := ParsePackageStatus(string(status))
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", status, err)
		}
		if parsed != status {
			t.Fatalf("expected %q, got %q", status, parsed)
		}
	}
	if _, err := ParsePackageStatus("returned"); err == nil {
		t.Fatal("expected error for unknown status")
	}
	if PackageStatus("INCOMING").IsValid() {
		t.Fatal("status values are case-sensitive")
	}
}

func TestPackageStatusIsTerminal(t *testing.T) {
	if !PackageStatusPickedUp.IsTerminal() {
		t.Fatal("picked_up is the terminal state")
	}
	if PackageStatusStorageExpired.IsTerminal() {
		t.Fatal("storage_expired is still editable, not terminal")
	}
}

func TestParseNotificationEvent(t *testing.T) {
	if _, err := ParseNotificationEvent("storage_warning"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseNotificationEvent("unknown"); err == nil {
		t.Fatal("expected error for unknown event")
	}
}

func TestParseChannel(t *testing.T) {
	if _, err := ParseChannel("chat"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseChannel("sms"); err == nil {
		t.Fatal("expected error for unknown channel")
	}
	channels := DefaultChannels()
	if len(channels) != 2 || channels[0] != ChannelEmail || channels[1] != ChannelChat {
		t.Fatalf("unexpected default channels %v", channels)
	}
}

func TestParseDeliveryOutcome(t *testing.T) {
	for _, outcome := range []string{"sent", "failed", "manual", "skipped"} {
		if _, err := ParseDeliveryOutcome(outcome); err != nil {
			t.Fatalf("unexpected error for %q: %v", outcome, err)
		}
	}
	if _, err := ParseDeliveryOutcome("deferred"); err == nil {
		t.Fatal("expected error for unknown outcome")
	}
}

func TestParseEventType(t *testing.T) {
	if _, err := ParseEventType("otp_confirmed"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseEventType("deleted"); err == nil {
		t.Fatal("expected error for unknown event type")
	}
}
