package enroll

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/capture"
	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/logging"
	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logging.L("enroll")

// Backend paths and multipart field names.
const (
	PathRegister    = "/register"
	PathEnrollVoice = "/enroll/voice"
	PathEnrollFace  = "/enroll/face"
	PathLogin       = "/login"
	PathHealth      = "/health"

	FieldEmail    = "email"
	FieldFile     = "file"
	FieldPassword = "password"
	FieldFace     = "face"
	FieldVoice    = "voice"

	VoiceFileName = "voice.webm"

	HeaderRequestID = "X-Request-ID"

	fallbackContentType = "application/octet-stream"
)

// Options configures a Client.
type Options struct {
	ServerURL          string
	InsecureSkipVerify bool

	// Timeout bounds each request. Zero leaves it to the transport.
	Timeout time.Duration

	Version string
}

// Client talks to the recognition backend. Requests are sent once; there
// is no retry.
type Client struct {
	http *resty.Client
}

func New(opts Options) *Client {
	version := opts.Version
	if version == "" {
		version = "dev"
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(opts.ServerURL, "/")).
		SetHeader("User-Agent", UserAgent(version)).
		SetLogger(log.Sugar())
	if opts.InsecureSkipVerify {
		rc.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}

	rc.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		if r.Header.Get(HeaderRequestID) == "" {
			r.SetHeader(HeaderRequestID, uuid.NewString())
		}
		return nil
	})
	rc.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logging.FromContext(resp.Request.Context()).Named("enroll").Debug("backend replied",
			zap.String("method", resp.Request.Method),
			zap.String("path", resp.Request.URL),
			zap.Int("status", resp.StatusCode()),
			zap.String(logging.KeyRequestID, resp.Request.Header.Get(HeaderRequestID)),
			zap.Int64(logging.KeyDurationMs, resp.Time().Milliseconds()),
		)
		return nil
	})

	return &Client{http: rc}
}

// Reply is the raw outcome of an upload: status and body text, unparsed
// and untrimmed.
type Reply struct {
	Status int
	Body   string
}

// OK reports a 2xx status.
func (r *Reply) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// EnrollVoice uploads clip for email as multipart fields email and file
// (named voice.webm). Non-success statuses are returned as a Reply, not an
// error; only transport failures produce an error wrapping ErrNetwork.
func (c *Client) EnrollVoice(ctx context.Context, email string, clip capture.Clip) (*Reply, error) {
	return c.upload(ctx, PathEnrollVoice, email, VoiceFileName, clip)
}

// EnrollFace uploads a face image for email.
func (c *Client) EnrollFace(ctx context.Context, email string, image capture.Clip) (*Reply, error) {
	return c.upload(ctx, PathEnrollFace, email, "face"+image.Extension(), image)
}

func (c *Client) upload(ctx context.Context, path, email, fileName string, clip capture.Clip) (*Reply, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{FieldEmail: email}).
		SetMultipartField(FieldFile, fileName, contentType(clip), clip.Reader()).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("%w: POST %s: %w", ErrNetwork, path, err)
	}

	reply := &Reply{Status: resp.StatusCode(), Body: string(resp.Body())}
	if !reply.OK() {
		log.Warn("upload rejected",
			zap.String("path", path),
			zap.Int("status", reply.Status))
	}
	return reply, nil
}

// Health calls the backend liveness endpoint.
func (c *Client) Health(ctx context.Context) (*Reply, error) {
	resp, err := c.http.R().SetContext(ctx).Get(PathHealth)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", ErrNetwork, PathHealth, err)
	}
	return &Reply{Status: resp.StatusCode(), Body: string(resp.Body())}, nil
}

// RegisterResult is the backend's reply to a new account.
type RegisterResult struct {
	OK     bool   `json:"ok"`
	UserID string `json:"user_id"`
}

// Register creates an account with a password.
func (c *Client) Register(ctx context.Context, email, password string) (*RegisterResult, error) {
	var result RegisterResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{FieldEmail: email, FieldPassword: password}).
		SetResult(&result).
		Post(PathRegister)
	if err != nil {
		return nil, fmt.Errorf("%w: POST %s: %w", ErrNetwork, PathRegister, err)
	}
	if resp.IsError() {
		return nil, newAPIError(resp.StatusCode(), resp.Body())
	}
	return &result, nil
}

// LoginRequest carries the password and whichever factors the user presents.
type LoginRequest struct {
	Email    string
	Password string
	Face     *capture.Clip
	Voice    *capture.Clip
}

// LoginResult is a granted session.
type LoginResult struct {
	Token     string  `json:"token"`
	FaceScore float64 `json:"face_score"`
	VoiceOK   bool    `json:"voice_ok"`
}

// Login authenticates with password plus face and/or voice.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	var result LoginResult
	r := c.http.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{
			FieldEmail:    req.Email,
			FieldPassword: req.Password,
		}).
		SetResult(&result)
	if req.Face != nil {
		r.SetMultipartField(FieldFace, "face"+req.Face.Extension(), contentType(*req.Face), req.Face.Reader())
	}
	if req.Voice != nil {
		r.SetMultipartField(FieldVoice, VoiceFileName, contentType(*req.Voice), req.Voice.Reader())
	}

	resp, err := r.Post(PathLogin)
	if err != nil {
		return nil, fmt.Errorf("%w: POST %s: %w", ErrNetwork, PathLogin, err)
	}
	if resp.IsError() {
		return nil, newAPIError(resp.StatusCode(), resp.Body())
	}
	if resp.StatusCode() != http.StatusOK || result.Token == "" {
		return nil, &APIError{Status: resp.StatusCode(), Code: ErrCodeUnknownReply, Message: resp.String()}
	}
	return &result, nil
}

// TokenClaims is the readable part of a session token.
type TokenClaims struct {
	Subject   string
	ExpiresAt time.Time
}

// ParseToken decodes a session token's claims without verifying the
// signature; the client never holds the signing key.
func ParseToken(token string) (*TokenClaims, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	tc := &TokenClaims{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		tc.ExpiresAt = claims.ExpiresAt.Time
	}
	return tc, nil
}

func contentType(clip capture.Clip) string {
	if clip.MIMEType == "" {
		return fallbackContentType
	}
	return clip.MIMEType
}
