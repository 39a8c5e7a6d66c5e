package stubserver

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type part struct {
	field, name string
	data        []byte
}

func multipartRequest(t *testing.T, path string, fields map[string]string, files ...part) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = fw.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func register(t *testing.T, s *Server, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return do(s, req)
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out["detail"]
}

func TestRegister(t *testing.T) {
	s := New("secret")

	rec := register(t, s, "User@Example.com", "pw")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id"`)
	assert.NotEmpty(t, rec.Header().Get(headerRequestID))

	rec = register(t, s, "user@example.com", "other")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "user_exists", detail(t, rec))

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, do(s, req).Code)
}

func TestEnrollVoice(t *testing.T) {
	s := New("secret")
	register(t, s, "user@example.com", "pw")

	rec := do(s, multipartRequest(t, "/enroll/voice",
		map[string]string{"email": "USER@example.com"},
		part{"file", "voice.webm", make([]byte, 45)}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"profile_id"`)

	rec = do(s, multipartRequest(t, "/enroll/voice",
		map[string]string{"email": "ghost@example.com"},
		part{"file", "voice.webm", []byte{1}}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no_user", detail(t, rec))

	rec = do(s, multipartRequest(t, "/enroll/voice", map[string]string{"email": "user@example.com"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(s, multipartRequest(t, "/enroll/voice",
		map[string]string{"email": "user@example.com"},
		part{"file", "voice.webm", nil}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "empty_file", detail(t, rec))
}

func TestLoginPolicy(t *testing.T) {
	s := New("secret")
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return now }
	register(t, s, "user@example.com", "pw")

	voice := part{"voice", "voice.webm", []byte{1, 2, 3}}
	creds := map[string]string{"email": "user@example.com", "password": "pw"}

	rec := do(s, multipartRequest(t, "/login", creds, voice))
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "voice not enrolled yet")
	assert.Equal(t, map[string]any{"face_score": 0.0, "voice_ok": false}, detail(t, rec))

	do(s, multipartRequest(t, "/enroll/voice",
		map[string]string{"email": "user@example.com"},
		part{"file", "voice.webm", []byte{9}}))

	rec = do(s, multipartRequest(t, "/login",
		map[string]string{"email": "user@example.com", "password": "wrong"}, voice))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "bad_password", detail(t, rec))

	rec = do(s, multipartRequest(t, "/login", creds))
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "no factor presented")

	rec = do(s, multipartRequest(t, "/login", creds, voice))
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Token   string `json:"token"`
		VoiceOK bool   `json:"voice_ok"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.VoiceOK)

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(out.Token, &claims, func(*jwt.Token) (any, error) {
		return []byte("secret"), nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))
	require.NoError(t, err)
	assert.Equal(t, now.Add(tokenTTL).Unix(), claims.ExpiresAt.Unix())

	u, _ := s.users.get("user@example.com")
	assert.Equal(t, u.ID, claims.Subject)
}

func TestLoginUnknownUser(t *testing.T) {
	s := New("secret")
	rec := do(s, multipartRequest(t, "/login", map[string]string{"email": "x@y.z", "password": "pw"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthEchoesRequestID(t *testing.T) {
	s := New("secret")
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(headerRequestID, "abc")
	rec := do(s, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", rec.Header().Get(headerRequestID))
}
