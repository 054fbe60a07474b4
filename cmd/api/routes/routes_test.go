package routes

import (
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/clipvault/clipvault/cmd/api/container"
	"github.com/clipvault/clipvault/cmd/api/service"
	"github.com/clipvault/clipvault/common/bootstrap"
	"github.com/clipvault/clipvault/common/config"
	"github.com/clipvault/clipvault/common/logger"
)

func testContainer() *container.Container {
	log := logger.New("error", "json")
	return &container.Container{
		Components: &bootstrap.Components{
			Config: &config.Config{},
			Logger: log,
		},
		JobService: service.NewJobService(nil, log),
	}
}

// Job rows are system-owned: the tenant surface may read status but never
// mutate a job. Cancellation belongs on the internal surface only.
func TestJobCancelStaysOffTenantSurface(t *testing.T) {
	e := echo.New()
	c := testContainer()

	RegisterClipRoutes(e, c)
	RegisterAdminRoutes(e, c)

	var internalCancel bool
	for _, route := range e.Routes() {
		if strings.HasPrefix(route.Path, "/api/") && strings.Contains(route.Path, "cancel") {
			t.Fatalf("job cancellation exposed on tenant surface: %s %s", route.Method, route.Path)
		}
		if route.Method == http.MethodPost && route.Path == "/internal/jobs/:id/cancel" {
			internalCancel = true
		}
	}

	if !internalCancel {
		t.Fatal("expected POST /internal/jobs/:id/cancel to be registered")
	}
}

func TestClipRoutesAreTenantScoped(t *testing.T) {
	e := echo.New()
	c := testContainer()

	RegisterClipRoutes(e, c)

	want := map[string]string{
		"/api/v1/clips":          http.MethodPost,
		"/api/v1/clips/:id":      http.MethodGet,
		"/api/v1/clips/:id/jobs": http.MethodGet,
	}

	registered := make(map[string]bool)
	for _, route := range e.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	for path, method := range want {
		if !registered[method+" "+path] {
			t.Errorf("missing route %s %s", method, path)
		}
	}
}
