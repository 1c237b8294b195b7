package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/worldtek/canteen-backend/pkg/config"
)

func TestWhatsAppSendText(t *testing.T) {
	var gotUser, gotPass string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewWhatsAppClient(config.WhatsAppConfig{
		BaseURL:    srv.URL,
		Username:   "canteen",
		Password:   "secret",
		SourceAddr: "917000000000",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if err := client.SendText(context.Background(), "919876543210", "Your order is ready"); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if gotUser != "canteen" || gotPass != "secret" {
		t.Fatalf("expected basic auth, got %q/%q", gotUser, gotPass)
	}
	if gotBody["to"] != "919876543210" || gotBody["from"] != "917000000000" {
		t.Fatalf("unexpected addressing %v", gotBody)
	}
	if gotBody["sessionId"] == "" {
		t.Fatal("expected a session id")
	}
}

func TestWhatsAppSendTextFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, err := NewWhatsAppClient(config.WhatsAppConfig{BaseURL: srv.URL, Username: "u", Password: "p"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.SendText(context.Background(), "919876543210", "hi"); err == nil {
		t.Fatal("expected non-2xx to error")
	}
}

func TestWhatsAppClientValidation(t *testing.T) {
	if _, err := NewWhatsAppClient(config.WhatsAppConfig{}); err == nil {
		t.Fatal("expected missing config to error")
	}
}

func TestSMSSend(t *testing.T) {
	var gotQuery map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewSMSClient(config.SMSConfig{BaseURL: srv.URL, APIKey: "key", SenderID: "CANTEEN"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if err := client.Send(context.Background(), "919876543210", "Your OTP is 123456", "tmpl-1"); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if gotQuery["mobile"][0] != "919876543210" {
		t.Fatalf("unexpected mobile %v", gotQuery["mobile"])
	}
	if gotQuery["apikey"][0] != "key" || gotQuery["templateid"][0] != "tmpl-1" {
		t.Fatalf("unexpected query %v", gotQuery)
	}
}

func TestSMSClientValidation(t *testing.T) {
	if _, err := NewSMSClient(config.SMSConfig{}); err == nil {
		t.Fatal("expected missing config to error")
	}
	client, err := NewSMSClient(config.SMSConfig{BaseURL: "https://x", APIKey: "k"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.Send(context.Background(), "", "msg", ""); err == nil {
		t.Fatal("expected missing mobile to error")
	}
}
