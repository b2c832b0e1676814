package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-core-fx/fiberfx/handler"
	"github.com/gofiber/fiber/v2"
)

type staticHandler struct {
	path string
}

// Register implements handler.Handler.
func (h staticHandler) Register(r fiber.Router) {
	r.Get(h.path, func(c *fiber.Ctx) error {
		return c.SendString(h.path)
	})
}

func TestRegisterRoutes(t *testing.T) {
	app := fiber.New()
	registerRoutes(
		[]handler.Handler{staticHandler{"/repositories"}, staticHandler{"/daemon"}},
		staticHandler{"/health"},
		app,
	)

	tests := []struct {
		target string
		want   int
	}{
		{"/health", http.StatusOK},
		{"/api/v1/repositories", http.StatusOK},
		{"/api/v1/daemon", http.StatusOK},
		{"/repositories", http.StatusNotFound},
		{"/api/v1/health", http.StatusNotFound},
	}

	for _, tt := range tests {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.target, nil), -1)
		if err != nil {
			t.Fatal(err)
		}
		_ = resp.Body.Close()

		if resp.StatusCode != tt.want {
			t.Errorf("GET %s = %d, want %d", tt.target, resp.StatusCode, tt.want)
		}
	}
}
