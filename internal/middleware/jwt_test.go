package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/riponahmed2201/taskmgr/internal/auth"
)

func TestJWT_MissingHeader(t *testing.T) {
	secret := []byte("test-secret")
	handler := JWT(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/tasks", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
}

func TestJWT_ValidToken(t *testing.T) {
	secret := []byte("test-secret")

	tok, err := auth.IssueToken(7, secret, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	var gotID int
	handler := JWT(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetUserID(r.Context())
		if !ok {
			t.Fatal("user id missing from context")
		}
		gotID = id
	}))

	req := httptest.NewRequest("GET", "/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if gotID != 7 {
		t.Errorf("user id: got %d, want 7", gotID)
	}
}

func TestJWT_ExpiredToken(t *testing.T) {
	secret := []byte("test-secret")

	tok, err := auth.IssueToken(7, secret, -time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	handler := JWT(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
}

func TestJWT_WrongSecret(t *testing.T) {
	tok, err := auth.IssueToken(7, []byte("other-secret"), time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	handler := JWT([]byte("test-secret"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
}
