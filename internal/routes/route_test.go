package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshua-takyi/studenthub/internal/config"
	"github.com/joshua-takyi/studenthub/internal/container"
	"github.com/joshua-takyi/studenthub/internal/helpers"
	"github.com/joshua-takyi/studenthub/internal/models"
	"github.com/joshua-takyi/studenthub/internal/models/memstore"
	"github.com/joshua-takyi/studenthub/internal/realtime"
)

func init() {
	gin.SetMode(gin.TestMode)
	helpers.Argon2Params = &argon2id.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

type mailbox struct {
	mu   sync.Mutex
	sent []string
}

func (m *mailbox) Send(ctx context.Context, toEmail, subject, text, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, toEmail)
	return nil
}

// lodgingWriter deletes straight from the in-memory store.
type lodgingWriter struct {
	store *memstore.Store
}

func (w lodgingWriter) CreateLodging(ctx context.Context, l *models.Lodging, urls []string) (int64, error) {
	var rows []models.Lodging
	if err := w.store.Insert(ctx, models.LodgingTable, l, &rows); err != nil {
		return 0, err
	}
	return rows[0].ID, nil
}

func (w lodgingWriter) DeleteLodging(ctx context.Context, id int64) ([]string, error) {
	n, err := w.store.Delete(ctx, models.LodgingTable, models.Eq("id", id))
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, models.ErrNotFound
	}
	return nil, nil
}

type testServer struct {
	router *gin.Engine
	store  *memstore.Store
	mail   *mailbox
	redis  *miniredis.Miniredis
}

func testConfig() *config.Config {
	return &config.Config{
		Environment:       "test",
		JWTSecret:         "route-test-secret",
		JWTKeyID:          "route",
		SessionTTL:        time.Hour,
		MailTokenTTL:      time.Hour,
		CookieName:        "session",
		CookieMaxAge:      time.Hour,
		FrontendURL:       "http://localhost:3000",
		CORSOrigins:       []string{"http://localhost:3000"},
		BodyLimit:         1 << 20,
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := memstore.New().
		WithSerial(models.AppUserTable, "user_id").
		WithSerial(models.UniversityTable, "university_id")
	seed(t, store)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	mail := &mailbox{}
	c, err := container.NewContainer(logger, cfg, container.Backends{
		Store:     store,
		Lodgings:  lodgingWriter{store: store},
		Mailer:    mail,
		Publisher: realtime.NewLogPublisher(logger),
		Redis:     rdb,
	})
	require.NoError(t, err)

	return &testServer{router: SetupRoutes(c), store: store, mail: mail, redis: mr}
}

func seed(t *testing.T, store *memstore.Store) {
	t.Helper()
	hash, err := helpers.HashPassword("secret123")
	require.NoError(t, err)

	store.Seed(models.UniversityTable,
		models.University{UniversityID: 1, Name: "UM", Domain: "@um.edu.uy", Latitud: ptr(-34.9), Longitud: ptr(-56.1)},
		models.University{UniversityID: 2, Name: "ORT", Domain: "@ort.edu.uy"},
	)
	store.Seed(models.AppUserTable,
		models.AppUser{UserID: 1, Username: "ana", PasswordHash: hash},
		models.AppUser{UserID: 2, Username: "beto", PasswordHash: hash},
		models.AppUser{UserID: 3, Username: "pending", PasswordHash: hash},
	)
	store.Seed(models.MailTable,
		models.Mail{Mail: "ana@um.edu.uy", UniversityID: 1, UserID: 1, IsPrimary: true, IsVerified: true},
		models.Mail{Mail: "beto@um.edu.uy", UniversityID: 1, UserID: 2, IsPrimary: true, IsVerified: true},
		models.Mail{Mail: "pending@um.edu.uy", UniversityID: 1, UserID: 3, IsPrimary: true},
	)
	store.Seed(models.LodgingTable,
		models.Lodging{ID: 1, Name: "Room", BriefDescription: "near UM", Latitud: -34.9, Longitud: -56.1, UserID: 1},
	)
	store.Seed(models.ChatParticipantTable,
		models.ChatParticipant{ChatID: 5, UserID: 1},
		models.ChatParticipant{ChatID: 5, UserID: 2},
	)
}

func ptr[T any](v T) *T {
	return &v
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	return s.doWithHeaders(t, method, path, body, token, nil)
}

func (s *testServer) doWithHeaders(t *testing.T, method, path string, body any, token string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T, username string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/users/validate_login", gin.H{"username": username, "password": "secret123"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
	return body.Token
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthRoutes(t *testing.T) {
	s := newTestServer(t, testConfig())

	w := s.do(t, http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "StudentHub API working", w.Body.String())

	w = s.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", decodeBody(t, w)["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestLoginSetsSessionCookie(t *testing.T) {
	s := newTestServer(t, testConfig())

	w := s.do(t, http.MethodPost, "/users/validate_login", gin.H{"username": "ana", "password": "secret123"}, "")
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, "session", cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
	assert.Equal(t, 3600, cookie.MaxAge)

	// the cookie alone authenticates
	req := httptest.NewRequest(http.MethodPost, "/users/validate_ongoing_login", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: cookie.Value})
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["isAvailable"])

	w = s.do(t, http.MethodPost, "/users/logout", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, w.Result().Cookies(), 1)
	assert.Equal(t, "", w.Result().Cookies()[0].Value)
}

func TestSessionCookieSecureOutsideProduction(t *testing.T) {
	for _, env := range []string{"development", "staging"} {
		t.Run(env, func(t *testing.T) {
			cfg := testConfig()
			cfg.Environment = env
			s := newTestServer(t, cfg)

			w := s.do(t, http.MethodPost, "/users/validate_login", gin.H{"username": "ana", "password": "secret123"}, "")
			require.Equal(t, http.StatusOK, w.Code)
			require.Len(t, w.Result().Cookies(), 1)
			assert.True(t, w.Result().Cookies()[0].Secure)
			assert.Equal(t, http.SameSiteNoneMode, w.Result().Cookies()[0].SameSite)
		})
	}
}

func TestLoginFailures(t *testing.T) {
	s := newTestServer(t, testConfig())

	tests := []struct {
		name   string
		body   any
		status int
		msg    string
	}{
		{"unknown user", gin.H{"username": "nobody", "password": "secret123"}, http.StatusBadRequest, "Incorrect username"},
		{"wrong password", gin.H{"username": "ana", "password": "nope"}, http.StatusBadRequest, "Incorrect password"},
		{"unverified", gin.H{"username": "pending", "password": "secret123"}, http.StatusBadRequest, "Email not yet verified"},
		{"missing fields", gin.H{"username": "ana"}, http.StatusBadRequest, "Username and password are required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/users/validate_login", tt.body, "")
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.msg, decodeBody(t, w)["message"])
			assert.Empty(t, w.Result().Cookies())
		})
	}
}

func TestValidateOngoingLogin(t *testing.T) {
	s := newTestServer(t, testConfig())

	w := s.do(t, http.MethodPost, "/users/validate_ongoing_login", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["isAvailable"])

	w = s.do(t, http.MethodPost, "/users/validate_ongoing_login", nil, "garbage")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid token", decodeBody(t, w)["message"])
}

func TestRegisterSendsVerification(t *testing.T) {
	s := newTestServer(t, testConfig())

	w := s.do(t, http.MethodPost, "/users/register", gin.H{"username": "caro", "password": "pw", "fullMail": "caro@ort.edu.uy"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"caro@ort.edu.uy"}, s.mail.sent)

	w = s.do(t, http.MethodGet, "/users/check-username/caro", nil, "")
	assert.Equal(t, true, decodeBody(t, w)["isTaken"])

	w = s.do(t, http.MethodPost, "/users/register", gin.H{"username": "dani", "password": "pw", "fullMail": "dani@gmail.com"}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t, testConfig())

	for _, path := range []string{"/user/admin", "/user/user_id", "/messages/getChats", "/lodging/store_lodge"} {
		w := s.do(t, http.MethodPost, path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.Equal(t, "Unauthorized", decodeBody(t, w)["message"], path)
	}
}

func TestProfileRoutes(t *testing.T) {
	s := newTestServer(t, testConfig())
	token := s.login(t, "ana")

	w := s.do(t, http.MethodPost, "/user/user_id", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["userId"])

	w = s.do(t, http.MethodPost, "/user/admin", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["isAdmin"])

	w = s.do(t, http.MethodPost, "/user/username", gin.H{"user_id": 2}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"beto"`)

	w = s.do(t, http.MethodGet, "/user/get_user_info/1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "ana", data[0].(map[string]any)["username"])

	w = s.do(t, http.MethodGet, "/user/get_user_info/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid userId", decodeBody(t, w)["message"])

	w = s.do(t, http.MethodGet, "/user/get_user_universities", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"UM"`)
}

func TestUniversityRoutes(t *testing.T) {
	s := newTestServer(t, testConfig())

	w := s.do(t, http.MethodGet, "/universities/domains", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["@um.edu.uy","@ort.edu.uy"]`, w.Body.String())

	w = s.do(t, http.MethodGet, "/universities/get_university/ort.edu.uy", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decodeBody(t, w)["university_id"])

	w = s.do(t, http.MethodGet, "/contacts/1/1/contactsByUniversity", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "beto@um.edu.uy")
	assert.NotContains(t, w.Body.String(), "ana@um.edu.uy")

	w = s.do(t, http.MethodGet, "/contacts/2/1/contactsByUniversity", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Contacts not found", decodeBody(t, w)["message"])
}

func TestLodgingRoutes(t *testing.T) {
	s := newTestServer(t, testConfig())
	owner := s.login(t, "ana")
	other := s.login(t, "beto")

	w := s.do(t, http.MethodGet, "/lodging/lodging_post/-34.9/-56.1/2", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"ana"`)

	w = s.do(t, http.MethodGet, "/lodging/lodging_post/x/-56.1/2", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "latitud, longitud and radius is required", decodeBody(t, w)["message"])

	w = s.do(t, http.MethodGet, "/lodging/get_lodge/1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Lodge description fetched successfully", decodeBody(t, w)["message"])

	w = s.do(t, http.MethodGet, "/lodging/stats", nil, owner)
	assert.Equal(t, http.StatusNotFound, w.Code, "no view store configured")

	w = s.do(t, http.MethodGet, "/lodging/delete_lodge/1", nil, other)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodDelete, "/lodging/1", nil, owner)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["data"])
	assert.Equal(t, "Lodge deleted successfully", body["message"])

	w = s.do(t, http.MethodGet, "/lodging/get_lodge/1", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStoreLodgeRoute(t *testing.T) {
	s := newTestServer(t, testConfig())
	token := s.login(t, "beto")

	w := s.do(t, http.MethodPost, "/lodging/store_lodge", gin.H{
		"title":            "Flat",
		"briefDescription": "two rooms",
		"value":            "long",
		"latitude":         -34.91,
		"longitude":        -56.15,
		"fileList":         []gin.H{{"url": "https://x.supabase.co/storage/v1/object/public/lodgment_images/f.jpg"}},
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(2), decodeBody(t, w)["data"].(map[string]any)["id"])

	w = s.do(t, http.MethodPost, "/lodging/store_lodge", gin.H{"title": "Flat"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Some field is missing!", decodeBody(t, w)["message"])
}

func TestChatRoutes(t *testing.T) {
	s := newTestServer(t, testConfig())
	ana := s.login(t, "ana")
	beto := s.login(t, "beto")

	w := s.do(t, http.MethodPost, "/messages/chat", gin.H{"chatId": 5, "message": "hola"}, ana)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Message sent", w.Body.String())

	w = s.do(t, http.MethodPost, "/messages/getChats", nil, beto)
	require.Equal(t, http.StatusOK, w.Code)
	var chats []models.ChatSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &chats))
	require.Len(t, chats, 1)
	assert.Equal(t, "hola", chats[0].LatestMessage)
	assert.Equal(t, int64(1), chats[0].UnreadCount)

	w = s.do(t, http.MethodPost, "/messages/read", gin.H{"chatId": 5, "userId": 1}, beto)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Messages read", w.Body.String())

	w = s.do(t, http.MethodPost, "/messages/getMessages", gin.H{"chatId": 5}, ana)
	require.Equal(t, http.StatusOK, w.Code)
	var messages []models.Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &messages))
	require.Len(t, messages, 1)
	assert.True(t, messages[0].Read)

	w = s.do(t, http.MethodPost, "/messages/getMessages", gin.H{"chatId": 9}, ana)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "You are not a participant of this chat", decodeBody(t, w)["message"])
}

func TestMissingFieldsStopBeforeStore(t *testing.T) {
	s := newTestServer(t, testConfig())
	token := s.login(t, "ana")

	tests := []struct {
		path    string
		body    any
		message string
	}{
		{"/users/register", gin.H{}, "Username, password and email are required"},
		{"/users/register", gin.H{"username": "new", "password": "pw"}, "Username, password and email are required"},
		{"/users/validate_login", gin.H{}, "Username and password are required"},
		{"/users/validate_login", gin.H{"username": "ana"}, "Username and password are required"},
		{"/users/change_password", gin.H{"password": "newpass"}, "Password and token are required"},
		{"/universities/mail", gin.H{}, "Mail and university_id are required"},
		{"/messages/chat", gin.H{"chatId": 5}, "message and chatId are required"},
		{"/messages/chat", gin.H{"message": "hola"}, "message and chatId are required"},
		{"/messages/read", gin.H{"chatId": 5}, "chatId and userId are required"},
		{"/messages/getMessages", gin.H{}, "chatId is required"},
		{"/lodging/store_lodge", gin.H{}, "Some field is missing!"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			before := len(s.store.Calls())
			w := s.do(t, http.MethodPost, tt.path, tt.body, token)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, tt.message, decodeBody(t, w)["message"])
			assert.Len(t, s.store.Calls(), before, "no store call after a rejected request")
		})
	}
	assert.Empty(t, s.mail.sent)
}

func TestBenefitRoutesNotFound(t *testing.T) {
	s := newTestServer(t, testConfig())

	w := s.do(t, http.MethodGet, "/benefits/1/benefit", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Benefits not found", decodeBody(t, w)["message"])

	w = s.do(t, http.MethodGet, "/benefits/1/Food", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Category not found", decodeBody(t, w)["message"])
}

func TestRateLimitedRoutes(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRequests = 2
	s := newTestServer(t, cfg)

	body := gin.H{"username": "ana", "password": "wrong"}
	for i := 0; i < 2; i++ {
		w := s.do(t, http.MethodPost, "/users/validate_login", body, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	w := s.do(t, http.MethodPost, "/users/validate_login", body, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// other routes keep their own budget
	w = s.do(t, http.MethodPost, "/users/reset_password", gin.H{"fullMail": "ana@um.edu.uy"}, "")
	assert.NotEqual(t, http.StatusTooManyRequests, w.Code)

	s.redis.FastForward(time.Minute + time.Second)
	w = s.do(t, http.MethodPost, "/users/validate_login", body, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimitIgnoresForwardedFor(t *testing.T) {
	tests := []struct {
		name    string
		proxies []string
		limited int
	}{
		// httptest requests come from 192.0.2.1
		{name: "untrusted peer", proxies: nil, limited: 4},
		{name: "trusted peer", proxies: []string{"192.0.2.0/24"}, limited: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.RateLimitRequests = 2
			cfg.TrustedProxies = tt.proxies
			s := newTestServer(t, cfg)

			body := gin.H{"username": "ana", "password": "wrong"}
			limited := 0
			for i := 0; i < 6; i++ {
				w := s.doWithHeaders(t, http.MethodPost, "/users/validate_login", body, "",
					map[string]string{"X-Forwarded-For": fmt.Sprintf("203.0.113.%d", i+1)})
				if w.Code == http.StatusTooManyRequests {
					limited++
				}
			}
			assert.Equal(t, tt.limited, limited)
		})
	}
}

func TestBodyLimit(t *testing.T) {
	cfg := testConfig()
	cfg.BodyLimit = 64
	s := newTestServer(t, cfg)

	big := strings.Repeat("a", 200)
	w := s.do(t, http.MethodPost, "/users/validate_login", gin.H{"username": big, "password": big}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
