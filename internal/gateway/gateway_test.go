package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSMMClient_SubmitsFormAndReadsOrderID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("action") != "add" || r.PostForm.Get("key") != "k" ||
			r.PostForm.Get("service") != "42" || r.PostForm.Get("link") != "player-1" || r.PostForm.Get("quantity") != "3" {
			t.Errorf("unexpected form %v", r.PostForm)
		}
		_, _ = w.Write([]byte(`{"order": 23501}`))
	}))
	defer srv.Close()

	c := NewSMMClient(srv.URL, "k", NewHTTPClient(0))
	res, err := c.Submit(context.Background(), Submission{ServiceRef: "42", Recipient: "player-1", Quantity: 3})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.ProviderOrderID != "23501" || res.Provider != "smm" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestSMMClient_ErrorBodyIsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": "Incorrect service ID"}`))
	}))
	defer srv.Close()

	c := NewSMMClient(srv.URL, "k", srv.Client())
	_, err := c.Submit(context.Background(), Submission{ServiceRef: "1", Recipient: "x", Quantity: 1})
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
}

func TestDocsClient_SendsBearerJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders" || r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("unexpected request %s %q", r.URL.Path, r.Header.Get("Authorization"))
		}
		var s Submission
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil || s.ServiceRef != "curp" {
			t.Errorf("unexpected body %+v err=%v", s, err)
		}
		_, _ = w.Write([]byte(`{"id":"d-1","status":"queued"}`))
	}))
	defer srv.Close()

	c := NewDocsClient(srv.URL, "secret", srv.Client())
	res, err := c.Submit(context.Background(), Submission{ServiceRef: "curp", Recipient: "ABC123", Quantity: 1})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.ProviderOrderID != "d-1" || res.Status != "queued" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestClients_NotConfigured(t *testing.T) {
	for _, s := range []Submitter{NewSMMClient("", "", nil), NewDocsClient("", "", nil)} {
		if _, err := s.Submit(context.Background(), Submission{}); !errors.Is(err, ErrNotConfigured) {
			t.Fatalf("%s: expected ErrNotConfigured, got %v", s.Name(), err)
		}
	}
}
