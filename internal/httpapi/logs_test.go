package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandleLogsRejectsInvalidNamespace(t *testing.T) {
	s := newTestServer(fakeStatus{})
	req := httptest.NewRequest(http.MethodGet, "/api/deployments/Bad_NS/app1/logs", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleLogsRejectsInvalidAppName(t *testing.T) {
	s := newTestServer(fakeStatus{})
	req := httptest.NewRequest(http.MethodGet, "/api/deployments/ns1/Bad_App_Name!/logs", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
