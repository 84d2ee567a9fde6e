package qr

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestClientEncodeRequest(t *testing.T) {
	var capturedURL string

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader("\x89PNG fake image bytes")),
			Header:     http.Header{},
		}, nil
	})

	client := NewClient(
		WithBaseURL("http://qr.test/v1"),
		WithHTTPClient(&http.Client{Transport: rt}),
		WithImageSize(250),
	)

	image, err := client.Encode(context.Background(), "parcelhub://pickup/PH-123")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(image) == 0 {
		t.Fatal("expected image bytes")
	}
	if !strings.HasPrefix(capturedURL, "http://qr.test/v1/create-qr-code/?") {
		t.Fatalf("unexpected URL %q", capturedURL)
	}
	if !strings.Contains(capturedURL, "size=250x250") {
		t.Fatalf("size not applied in %q", capturedURL)
	}
	if !strings.Contains(capturedURL, "data=parcelhub%3A%2F%2Fpickup%2FPH-123") {
		t.Fatalf("payload not escaped in %q", capturedURL)
	}
}

func TestClientEncodeEmptyPayload(t *testing.T) {
	client := NewClient()
	if _, err := client.Encode(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
