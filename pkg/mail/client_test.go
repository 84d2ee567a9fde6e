package mail

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestClientSendRequest(t *testing.T) {
	const expectedURL = "http://mail.test/v1/messages"

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
		if payload["to"] != "ana@example.com" {
			t.Fatalf("unexpected recipient %q", payload["to"])
		}
		if payload["from"] != "pickup@parcelhub.test" {
			t.Fatalf("unexpected sender %q", payload["from"])
		}
		if payload["subject"] != "Package delivered" {
			t.Fatalf("unexpected subject %q", payload["subject"])
		}

		return &http.Response{
			StatusCode: http.StatusAccepted,
			Body:       io.NopCloser(strings.NewReader(`{"id":"msg_1"}`)),
			Header:     http.Header{},
		}, nil
	})

	httpClient := &http.Client{Transport: rt}
	client, err := NewClient("test-key",
		WithBaseURL("http://mail.test/v1"),
		WithHTTPClient(httpClient),
		WithFrom("pickup@parcelhub.test"),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	err = client.Send(context.Background(), Message{
		To:      "ana@example.com",
		Subject: "Package delivered",
		Body:    "Your package PH-123 arrived.",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if capturedURL != expectedURL {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if capturedHeaders.Get("Authorization") != "Bearer test-key" {
		t.Fatalf("authorization header missing")
	}
}

func TestClientSendProviderError(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusBadGateway,
			Body:       io.NopCloser(strings.NewReader("upstream down")),
			Header:     http.Header{},
		}, nil
	})

	client, err := NewClient("test-key", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	err = client.Send(context.Background(), Message{To: "ana@example.com"})
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
	if !strings.Contains(err.Error(), "status 502") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient("  "); err == nil {
		t.Fatal("expected error for empty api key")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
