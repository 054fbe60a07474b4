package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func runMiddleware(t *testing.T, headers map[string]string) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	handler := ExtractTenant()(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	return rec, c, reached
}

func TestExtractTenant_BindsScope(t *testing.T) {
	rec, c, reached := runMiddleware(t, map[string]string{
		"X-Tenant-ID": "tenant-9",
	})

	if !reached {
		t.Fatalf("request rejected: %d %s", rec.Code, rec.Body.String())
	}

	scope, ok := GetScope(c)
	if !ok {
		t.Fatal("expected a bound scope in context")
	}
	if scope.TenantID() != "tenant-9" {
		t.Fatalf("TenantID = %q", scope.TenantID())
	}
}

func TestExtractTenant_RejectsMissingHeader(t *testing.T) {
	rec, _, reached := runMiddleware(t, nil)

	if reached {
		t.Fatal("handler must not run without identity")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestExtractTenant_RejectsExpiredToken(t *testing.T) {
	expired := time.Now().Add(-time.Minute).Unix()

	rec, _, reached := runMiddleware(t, map[string]string{
		"X-Tenant-ID":    "tenant-9",
		"X-Token-Expiry": strconv.FormatInt(expired, 10),
	})

	if reached {
		t.Fatal("handler must not run with an expired token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestExtractTenant_AcceptsFutureExpiry(t *testing.T) {
	future := time.Now().Add(time.Hour).Unix()

	rec, _, reached := runMiddleware(t, map[string]string{
		"X-Tenant-ID":    "tenant-9",
		"X-Token-Expiry": fmt.Sprintf("%d", future),
	})

	if !reached {
		t.Fatalf("request rejected: %d %s", rec.Code, rec.Body.String())
	}
}

func TestExtractTenant_RejectsGarbageExpiry(t *testing.T) {
	rec, _, reached := runMiddleware(t, map[string]string{
		"X-Tenant-ID":    "tenant-9",
		"X-Token-Expiry": "soon",
	})

	if reached {
		t.Fatal("handler must not run with an unparseable expiry")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestGetScope_EmptyContext(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	if _, ok := GetScope(c); ok {
		t.Fatal("expected no scope on an untouched context")
	}
}
