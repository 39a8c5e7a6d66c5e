// Package stubserver is an in-memory stand-in for the recognition backend,
// for local runs and tests. Enrolled factors are accepted on presentation;
// no biometric matching happens here.
package stubserver

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logging.L("stubserver")

const (
	tokenTTL = 30 * time.Minute

	// faceThreshold is the minimum face score that satisfies login.
	faceThreshold = 0.7

	maxUploadBytes = 32 << 20
)

// Server serves the backend contract from memory.
type Server struct {
	secret []byte
	users  *userStore
	engine *gin.Engine
	now    func() time.Time
}

func New(jwtSecret string) *Server {
	s := &Server{
		secret: []byte(jwtSecret),
		users:  newUserStore(),
		now:    time.Now,
	}

	sugar := log.Sugar()
	r := gin.New()
	r.MaxMultipartMemory = maxUploadBytes
	r.Use(requestID(), requestLogging(sugar), recovery(sugar))

	r.POST("/register", s.register)
	r.POST("/enroll/face", s.enrollFace)
	r.POST("/enroll/voice", s.enrollVoice)
	r.POST("/login", s.login)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	s.engine = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("stub server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("stub server stopped")
	return nil
}

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "bad_request"})
		return
	}

	u, created, err := s.users.create(req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "hash_failed"})
		return
	}
	if !created {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "user_exists"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user_id": u.ID})
}

func (s *Server) enrollFace(c *gin.Context) {
	s.enroll(c, "person_id", func(u *user, id string) { u.FaceID = id })
}

func (s *Server) enrollVoice(c *gin.Context) {
	s.enroll(c, "profile_id", func(u *user, id string) { u.VoiceID = id })
}

func (s *Server) enroll(c *gin.Context, idField string, apply func(*user, string)) {
	email, ok := c.GetPostForm("email")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "missing_email"})
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "missing_file"})
		return
	}
	if n, err := sampleSize(fh); err != nil || n == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "empty_file"})
		return
	}

	id := uuid.NewString()
	if !s.users.update(email, func(u *user) { apply(u, id) }) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "no_user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, idField: id})
}

func (s *Server) login(c *gin.Context) {
	email := c.PostForm("email")
	password, ok := c.GetPostForm("password")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "missing_password"})
		return
	}

	u, found := s.users.get(email)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"detail": "no_user"})
		return
	}

	faceScore := 0.0
	if u.FaceID != "" && presented(c, "face") {
		faceScore = 1.0
	}
	voiceOK := u.VoiceID != "" && presented(c, "voice")

	if !u.passwordMatches(password) {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "bad_password"})
		return
	}
	if faceScore < faceThreshold && !voiceOK {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": gin.H{"face_score": faceScore, "voice_ok": voiceOK}})
		return
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   u.ID,
		ExpiresAt: jwt.NewNumericDate(s.now().Add(tokenTTL)),
	}).SignedString(s.secret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "token_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "face_score": faceScore, "voice_ok": voiceOK})
}

// presented reports whether a non-empty file was sent in field.
func presented(c *gin.Context, field string) bool {
	fh, err := c.FormFile(field)
	if err != nil {
		return false
	}
	n, err := sampleSize(fh)
	return err == nil && n > 0
}

func sampleSize(fh *multipart.FileHeader) (int64, error) {
	f, err := fh.Open()
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return io.Copy(io.Discard, f)
}
