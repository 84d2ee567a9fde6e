package chat

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestClientSendRequest(t *testing.T) {
	const expectedURL = "http://chat.test/v2/messages"

	var capturedURL string
	var capturedHeaders http.Header

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedHeaders = req.Header.Clone()

		bodyBytes, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		var payload map[string]any
		if err := json.Unmarshal(bodyBytes, &payload); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}
		if payload["to"] != "+15550001111" {
			t.Fatalf("unexpected recipient %q", payload["to"])
		}
		if payload["from"] != "+15559998888" {
			t.Fatalf("unexpected sender %q", payload["from"])
		}

		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"id":"wamid.1"}`)),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient("test-key",
		WithBaseURL("http://chat.test/v2"),
		WithHTTPClient(&http.Client{Transport: rt}),
		WithSenderPhone("+15559998888"),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if err := client.Send(context.Background(), "+15550001111", "Your code is 123456"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if capturedURL != expectedURL {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if capturedHeaders.Get("Authorization") != "Bearer test-key" {
		t.Fatalf("authorization header missing")
	}
}

func TestClientSendWithoutSenderPhone(t *testing.T) {
	client, err := NewClient("test-key")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client.Configured() {
		t.Fatal("client without sender phone should not report configured")
	}
	if err := client.Send(context.Background(), "+15550001111", "hi"); err == nil {
		t.Fatal("expected error without sender phone")
	}
}

func TestDeepLink(t *testing.T) {
	link := DeepLink("+1 (555) 000-1111", "Your package PH-123 is ready")
	if !strings.HasPrefix(link, "https://wa.me/15550001111?text=") {
		t.Fatalf("unexpected link %q", link)
	}
	if !strings.Contains(link, "PH-123") {
		t.Fatalf("message not embedded in %q", link)
	}
	if strings.Contains(link, " ") {
		t.Fatalf("link not escaped %q", link)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
