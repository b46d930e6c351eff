package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/smartagricare-api/config"
	"github.com/oksasatya/smartagricare-api/internal/container"
	"github.com/oksasatya/smartagricare-api/internal/infrastructure/sqlite"
	"github.com/oksasatya/smartagricare-api/pkg/helpers"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
	Details map[string]any  `json:"details"`
}

type testAPI struct {
	t      *testing.T
	engine *gin.Engine
	c      *container.Container
}

func testConfig(weatherURL string) *config.Config {
	return &config.Config{
		AppName:            "smartagricare-test",
		Env:                "test",
		JWTSecret:          "test-secret",
		TokenTTL:           time.Hour,
		BcryptCost:         4,
		MinNameLength:      2,
		MinPasswordLength:  8,
		ResetOTPTTL:        15 * time.Minute,
		ResetOTPExpose:     true,
		CookieDomain:       "localhost",
		CORSAllowedOrigins: "http://localhost:8080",
		RateLimitEnabled:   true,
		WeatherBaseURL:     weatherURL,
		WeatherCacheTTL:    time.Minute,
		MetricsEnabled:     true,
	}
}

func newTestAPI(t *testing.T, cfg *config.Config, rdb *redis.Client) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "api.db"), nil)
	require.NoError(t, err)
	c := container.Build(cfg, helpers.NewNopLogger(), store, rdb, nil)
	t.Cleanup(c.Close)
	return &testAPI{t: t, engine: NewEngine(c), c: c}
}

func (a *testAPI) do(method, path string, body any, token string) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.10:4000"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

type authData struct {
	User struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
	Token string `json:"token"`
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t, testConfig("http://127.0.0.1:1"), nil)
	w, _ := api.do(http.MethodGet, "/api/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","service":"SmartAgriCare Backend"}`, w.Body.String())
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	w, _ = api.do(http.MethodGet, "/api/ready", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAccountFlowOverHTTP(t *testing.T) {
	api := newTestAPI(t, testConfig("http://127.0.0.1:1"), nil)

	w, env := api.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Asha Rao", "email": "asha@example.com", "password": "password123",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reg := decode[authData](t, env.Data)
	assert.Equal(t, "Asha Rao", reg.User.Name)
	assert.NotEmpty(t, reg.Token)
	assert.NotContains(t, w.Body.String(), "password")

	w, env = api.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Asha Again", "email": "asha@example.com", "password": "password123",
	}, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "email already registered", env.Error)

	w, env = api.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "asha@example.com", "password": "password123",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	login := decode[authData](t, env.Data)
	uid, err := api.c.Accounts.Authenticate(login.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, uid)

	w, env = api.do(http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": "asha@example.com"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	forgot := decode[struct {
		Message string `json:"message"`
		OTP     string `json:"otp"`
	}](t, env.Data)
	require.Len(t, forgot.OTP, 6)

	w, _ = api.do(http.MethodPost, "/api/auth/reset-password", map[string]string{
		"email": "asha@example.com", "otp": forgot.OTP, "newPassword": "newpass123",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = api.do(http.MethodPost, "/api/auth/reset-password", map[string]string{
		"email": "asha@example.com", "otp": forgot.OTP, "newPassword": "again1234",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = api.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "asha@example.com", "password": "password123"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = api.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "asha@example.com", "password": "newpass123"}, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginFailuresLookAlike(t *testing.T) {
	api := newTestAPI(t, testConfig("http://127.0.0.1:1"), nil)
	api.do(http.MethodPost, "/api/auth/register", map[string]string{"name": "Asha Rao", "email": "asha@example.com", "password": "password123"}, "")

	w1, e1 := api.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "asha@example.com", "password": "wrongpass1"}, "")
	w2, e2 := api.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "ghost@example.com", "password": "wrongpass1"}, "")
	assert.Equal(t, http.StatusUnauthorized, w1.Code)
	assert.Equal(t, w1.Code, w2.Code)
	assert.Equal(t, e1.Error, e2.Error)
	assert.Equal(t, e1.Message, e2.Message)

	w, env := api.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "asha@example.com"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Details, "password")
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.ResetOTPExpose = false
	api := newTestAPI(t, cfg, nil)
	api.do(http.MethodPost, "/api/auth/register", map[string]string{"name": "Asha Rao", "email": "asha@example.com", "password": "password123"}, "")

	w1, e1 := api.do(http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": "asha@example.com"}, "")
	w2, e2 := api.do(http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": "ghost@example.com"}, "")
	assert.Equal(t, http.StatusOK, w1.Code)
	assert.Equal(t, http.StatusOK, w2.Code)
	assert.JSONEq(t, string(e1.Data), string(e2.Data))
}

func TestForgotPasswordUnreadableBody(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.ResetOTPExpose = false
	api := newTestAPI(t, cfg, nil)
	_, known := api.do(http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": "ghost@example.com"}, "")

	for _, body := range []string{"", "not json", `{"email":5}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/forgot-password", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		api.engine.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, body)
		var env envelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		assert.True(t, env.Success, body)
		assert.JSONEq(t, string(known.Data), string(env.Data), body)
	}
}

func TestRegisterValidation(t *testing.T) {
	api := newTestAPI(t, testConfig("http://127.0.0.1:1"), nil)

	w, env := api.do(http.MethodPost, "/api/auth/register", map[string]string{"name": "A", "email": "a@example.com", "password": "short"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Details, "name")
	assert.Contains(t, env.Details, "password")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString("{bad json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	api.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t, testConfig("http://127.0.0.1:1"), nil)
	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/api/auth/profile"},
		{http.MethodPut, "/api/auth/profile"},
		{http.MethodPost, "/api/disease/report"},
		{http.MethodGet, "/api/disease/reports"},
	} {
		w, env := api.do(r.method, r.path, map[string]string{}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, r.path)
		assert.False(t, env.Success)

		w, _ = api.do(r.method, r.path, map[string]string{}, "not-a-token")
		assert.Equal(t, http.StatusUnauthorized, w.Code, r.path)
	}
}

func TestProfileAndReportsOverHTTP(t *testing.T) {
	api := newTestAPI(t, testConfig("http://127.0.0.1:1"), nil)
	_, env := api.do(http.MethodPost, "/api/auth/register", map[string]string{"name": "Asha Rao", "email": "asha@example.com", "password": "password123"}, "")
	tok := decode[authData](t, env.Data).Token

	w, env := api.do(http.MethodPut, "/api/auth/profile", map[string]any{"location": "Mysuru", "role": "admin"}, tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	profile := decode[struct {
		Updated bool `json:"updated"`
		User    struct {
			Name     string `json:"name"`
			Location string `json:"location"`
		} `json:"user"`
	}](t, env.Data)
	assert.True(t, profile.Updated)
	assert.Equal(t, "Mysuru", profile.User.Location)

	w, env = api.do(http.MethodPut, "/api/auth/profile", map[string]any{"unknownField": "x"}, tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"updated":false`)

	w, _ = api.do(http.MethodGet, "/api/auth/profile", nil, tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"location":"Mysuru"`)

	w, env = api.do(http.MethodPost, "/api/disease/report", map[string]any{
		"userId":     999,
		"disease":    "Tomato Late Blight",
		"confidence": 91.2,
		"treatment":  []string{"Remove leaves", "Copper spray"},
		"stores":     []string{"Green Agro"},
	}, tok)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	saved := decode[struct {
		ID int64 `json:"id"`
	}](t, env.Data)
	assert.Positive(t, saved.ID)

	w, env = api.do(http.MethodGet, "/api/disease/reports", nil, tok)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Reports []struct {
			ID        int64    `json:"id"`
			UserID    int64    `json:"userId"`
			Treatment []string `json:"treatment"`
			Stores    []string `json:"stores"`
		} `json:"reports"`
	}](t, env.Data)
	require.Len(t, list.Reports, 1)
	assert.NotEqual(t, int64(999), list.Reports[0].UserID)
	assert.Equal(t, []string{"Remove leaves", "Copper spray"}, list.Reports[0].Treatment)
	assert.Equal(t, []string{"Green Agro"}, list.Reports[0].Stores)

	w, _ = api.do(http.MethodPost, "/api/disease/report", map[string]any{"confidence": 20}, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWeatherOverHTTP(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"current":{"time":"2026-03-01T09:00","temperature_2m":24.5,"relative_humidity_2m":70,"weather_code":61,"wind_speed_10m":3.2}}`))
	}))
	defer upstream.Close()
	api := newTestAPI(t, testConfig(upstream.URL), nil)

	w, env := api.do(http.MethodGet, "/api/weather?lat=12.31&lng=76.64", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decode[struct {
		Weather struct {
			Temperature float64 `json:"temperature"`
			Humidity    float64 `json:"humidity"`
			Condition   string  `json:"condition"`
		} `json:"weather"`
	}](t, env.Data)
	assert.Equal(t, 24.5, data.Weather.Temperature)
	assert.Equal(t, 70.0, data.Weather.Humidity)
	assert.Equal(t, "Rain", data.Weather.Condition)

	for _, q := range []string{"", "?lat=12", "?lat=abc&lng=1", "?lat=95&lng=10"} {
		w, _ = api.do(http.MethodGet, "/api/weather"+q, nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestWeatherUpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer upstream.Close()
	api := newTestAPI(t, testConfig(upstream.URL), nil)

	w, env := api.do(http.MethodGet, "/api/weather?lat=0&lng=0", nil, "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.False(t, env.Success)
}

func TestRateLimitedLogin(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := helpers.NewRedisClient(mr.Addr(), "", 0)
	api := newTestAPI(t, testConfig("http://127.0.0.1:1"), rdb)

	body := map[string]string{"email": "ghost@example.com", "password": "password123"}
	for i := 0; i < 10; i++ {
		w, _ := api.do(http.MethodPost, "/api/auth/login", body, "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w, _ := api.do(http.MethodPost, "/api/auth/login", body, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestMetricsRestrictedToPrivateNetworks(t *testing.T) {
	api := newTestAPI(t, testConfig("http://127.0.0.1:1"), nil)
	api.do(http.MethodGet, "/api/health", nil, "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.RemoteAddr = "127.0.0.1:9000"
	w := httptest.NewRecorder()
	api.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "smartagricare_http_requests_total")

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.RemoteAddr = "203.0.113.7:9000"
	w = httptest.NewRecorder()
	api.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCookieSessionAndLogout(t *testing.T) {
	api := newTestAPI(t, testConfig("http://127.0.0.1:1"), nil)

	w, _ := api.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Asha Rao", "email": "asha@example.com", "password": "password123",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	var session *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == helpers.AccessTokenCookie {
			session = ck
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	assert.Greater(t, session.MaxAge, 0)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	req.AddCookie(&http.Cookie{Name: session.Name, Value: session.Value})
	w = httptest.NewRecorder()
	api.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = api.do(http.MethodPost, "/api/auth/logout", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var cleared *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == helpers.AccessTokenCookie {
			cleared = ck
		}
	}
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)
}
