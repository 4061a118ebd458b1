package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

func testAuth() *Auth {
	return &Auth{Secret: []byte("test-secret"), Issuer: "folio-test"}
}

func TestTokenRoundTrip(t *testing.T) {
	a := testAuth()
	token, err := a.IssueToken(42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, err := a.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected user 42, got %d", id)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := testAuth().IssueToken(1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	other := &Auth{Secret: []byte("different"), Issuer: "folio-test"}
	if _, err := other.ParseToken(token); err == nil {
		t.Fatal("expected verification failure with wrong secret")
	}
}

func TestTokenWrongIssuer(t *testing.T) {
	token, err := testAuth().IssueToken(1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	other := &Auth{Secret: []byte("test-secret"), Issuer: "someone-else"}
	if _, err := other.ParseToken(token); err == nil {
		t.Fatal("expected issuer mismatch failure")
	}
}

func TestAuthWrap(t *testing.T) {
	a := testAuth()
	handler := a.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserID(r.Context())
		if !ok {
			t.Fatal("user id missing from context")
		}
		w.Write([]byte(strconv.FormatInt(id, 10)))
	}))

	token, err := a.IssueToken(7)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/books", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "7" {
		t.Fatalf("expected 200/7, got %d/%q", rec.Code, rec.Body.String())
	}
}

func TestAuthWrapRejectsMissingToken(t *testing.T) {
	a := testAuth()
	handler := a.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without token")
	}))

	for _, header := range []string{"", "Bearer ", "Basic abc", "Bearer not.a.token"} {
		req := httptest.NewRequest("GET", "/api/books", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
		var msg Message
		if err := json.Unmarshal(rec.Body.Bytes(), &msg); err != nil || msg.Type != "error" {
			t.Fatalf("header %q: expected error envelope, got %q", header, rec.Body.String())
		}
	}
}
