package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"newsdesk/internal/featureflags"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanizeParam(t *testing.T) {
	tests := map[string]string{
		"id":        "ID",
		"articleId": "article ID",
		"commentId": "comment ID",
		"blockId":   "block ID",
		"slug":      "slug",
	}
	for in, want := range tests {
		assert.Equal(t, want, humanizeParam(in), in)
	}
}

func TestParsePagination(t *testing.T) {
	app := fiber.New()
	var got Pagination
	app.Get("/", func(c *fiber.Ctx) error {
		got = parsePagination(c, defaultPageSize)
		return nil
	})

	tests := []struct {
		query string
		want  Pagination
	}{
		{"", Pagination{Limit: defaultPageSize}},
		{"?limit=5&offset=10", Pagination{Limit: 5, Offset: 10}},
		{"?limit=-1&offset=-3", Pagination{Limit: defaultPageSize}},
		{"?limit=1000", Pagination{Limit: maxPaginationLimit}},
	}
	for _, tt := range tests {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/"+tt.query, nil))
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, tt.want, got, tt.query)
	}
}

func TestWantsHTML(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		if wantsHTML(c) {
			return c.SendString("html")
		}
		return c.SendString("json")
	})

	tests := []struct {
		accept string
		want   string
	}{
		{"", "json"},
		{"application/json", "json"},
		{"*/*", "json"},
		{"text/html,application/xhtml+xml,*/*;q=0.8", "html"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.accept != "" {
			req.Header.Set("Accept", tt.accept)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(body), tt.accept)
	}
}

func TestHealthChecks(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, jsonRequest(http.MethodGet, "/health/live", "", ""))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, jsonRequest(http.MethodGet, "/health/ready", "", ""))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["database"])
	assert.Equal(t, "unavailable", checks["redis"])
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, jsonRequest(http.MethodGet, "/nope", "", ""))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestArticleFeedRequiresUpgrade(t *testing.T) {
	env := newTestEnv(t)
	article := env.seedArticle(t, "Live", true)

	resp := env.do(t, jsonRequest(http.MethodGet, idPath("/ws/articles/", article.ID, ""), "", ""))
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}

func TestArticleFeedDisabledByFlag(t *testing.T) {
	env := newTestEnv(t)
	article := env.seedArticle(t, "Live", true)

	flags, err := featureflags.Parse("live_feed=off")
	require.NoError(t, err)
	env.srv.flags = flags
	env.app = env.srv.NewApp()

	resp := env.do(t, jsonRequest(http.MethodGet, idPath("/ws/articles/", article.ID, ""), "", ""))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetFeatureFlags(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, jsonRequest(http.MethodGet, "/features", "", ""))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[struct {
		Raw       map[string]string `json:"raw"`
		Evaluated map[string]bool   `json:"evaluated"`
	}](t, resp)
	assert.Equal(t, "on", body.Raw[featureflags.LiveFeed])
	assert.True(t, body.Evaluated[featureflags.LiveFeed])
}
