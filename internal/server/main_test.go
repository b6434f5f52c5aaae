package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"newsdesk/internal/config"
	"newsdesk/internal/database"
	"newsdesk/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testSecret   = "test-secret"
	testIssuer   = "identity-test"
	testAudience = "newsdesk"
	adminID      = uint(99)
)

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
	srv *Server
}

func testConfig() *config.Config {
	return &config.Config{
		Env:               "test",
		JWTSecret:         testSecret,
		JWTIssuer:         testIssuer,
		JWTAudience:       testAudience,
		LoginURL:          "/login",
		ReactionRateLimit: 30,
		CommentRateLimit:  10,
		FeatureFlags:      "live_feed=on",
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithRedis(t, nil)
}

func newTestEnvWithRedis(t *testing.T, rdb *redis.Client) *testEnv {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	require.NoError(t, db.Create(&models.User{ID: adminID, Username: "editor", IsAdmin: true}).Error)

	srv, err := NewServerWithDeps(testConfig(), db, rdb)
	require.NoError(t, err)
	return &testEnv{app: srv.NewApp(), db: db, srv: srv}
}

func (e *testEnv) seedArticle(t *testing.T, title string, published bool) *models.Article {
	t.Helper()
	a := &models.Article{Title: title, PublishedAt: time.Now().Add(-time.Hour), IsPublished: published}
	require.NoError(t, e.db.Create(a).Error)
	return a
}

func (e *testEnv) seedComment(t *testing.T, articleID, userID uint, content string) *models.Comment {
	t.Helper()
	require.NoError(t, e.db.FirstOrCreate(&models.User{ID: userID, Username: "user-" + strconv.Itoa(int(userID))}).Error)
	c := &models.Comment{
		Content:     content,
		UserID:      userID,
		ArticleID:   articleID,
		PublishedAt: time.Now().Add(-time.Minute),
		IsPublished: true,
	}
	require.NoError(t, e.db.Omit("User").Create(c).Error)
	return c
}

func signToken(t *testing.T, userID uint, mutate func(jwt.MapClaims)) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"iss":      testIssuer,
		"aud":      testAudience,
		"exp":      time.Now().Add(time.Hour).Unix(),
		"username": "user-" + strconv.FormatUint(uint64(userID), 10),
	}
	if mutate != nil {
		mutate(claims)
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func jsonRequest(method, target, token, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	req.Header.Set("Accept", fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func formRequest(method, target, token, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: authCookieName, Value: token})
	}
	return req
}

func (e *testEnv) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func idPath(prefix string, id uint, suffix string) string {
	return prefix + strconv.FormatUint(uint64(id), 10) + suffix
}
