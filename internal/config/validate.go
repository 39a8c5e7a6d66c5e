package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

var validate = validator.New()

// ValidationResult separates problems that must stop the command from ones
// that were corrected in place.
type ValidationResult struct {
	Fatals   []error
	Warnings []error
}

func (r ValidationResult) HasFatals() bool {
	return len(r.Fatals) > 0
}

// AllErrors returns fatals followed by warnings.
func (r ValidationResult) AllErrors() []error {
	all := make([]error, 0, len(r.Fatals)+len(r.Warnings))
	all = append(all, r.Fatals...)
	return append(all, r.Warnings...)
}

// Err joins the fatal errors, or returns nil.
func (r ValidationResult) Err() error {
	return errors.Join(r.Fatals...)
}

// ValidateTiered checks the config. Out-of-range numbers are clamped and
// reported as warnings; anything that would make a command misbehave is fatal.
func (c *Config) ValidateTiered() ValidationResult {
	var r ValidationResult
	fatal := func(format string, args ...any) { r.Fatals = append(r.Fatals, fmt.Errorf(format, args...)) }
	warn := func(format string, args ...any) { r.Warnings = append(r.Warnings, fmt.Errorf(format, args...)) }

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fatal("%s: value %q fails %q", fe.Namespace(), fmt.Sprint(fe.Value()), fe.Tag())
			}
		} else {
			fatal("config: %v", err)
		}
	}

	if c.ServerURL != "" {
		u, err := url.Parse(c.ServerURL)
		if err != nil {
			fatal("server_url %q is not a valid URL: %w", c.ServerURL, err)
		} else if u.Scheme != "http" && u.Scheme != "https" {
			fatal("server_url scheme must be http or https, got %q", u.Scheme)
		} else if u.Host == "" {
			fatal("server_url %q has no host", c.ServerURL)
		}
	}

	for name, secret := range map[string]string{
		"stub.jwt_secret":            c.Stub.JWTSecret,
		"archive.connection_string":  c.Archive.ConnectionString,
		"archive.secret_access_key":  c.Archive.SecretAccessKey,
		"archive.b2_application_key": c.Archive.B2ApplicationKey,
	} {
		if hasControlChars(secret) {
			fatal("%s contains control characters", name)
		}
	}

	if c.Capture.Source == "command" && len(c.Capture.Command) == 0 {
		fatal("capture.command is required when capture.source is command")
	}

	switch c.Archive.Provider {
	case "local":
		if c.Archive.Path == "" {
			fatal("archive.path is required for the local provider")
		}
	case "s3":
		if c.Archive.Bucket == "" || c.Archive.Region == "" {
			fatal("archive.bucket and archive.region are required for the s3 provider")
		}
	case "azure":
		if c.Archive.Container == "" {
			fatal("archive.container is required for the azure provider")
		}
		if c.Archive.AccountURL == "" && c.Archive.ConnectionString == "" {
			fatal("archive.account_url or archive.connection_string is required for the azure provider")
		}
	case "gcs":
		if c.Archive.Bucket == "" {
			fatal("archive.bucket is required for the gcs provider")
		}
	case "b2":
		if c.Archive.Bucket == "" || c.Archive.B2AccountID == "" || c.Archive.B2ApplicationKey == "" {
			fatal("archive.bucket, archive.b2_account_id and archive.b2_application_key are required for the b2 provider")
		}
	}

	if c.Capture.DurationSeconds < 1 {
		warn("capture.duration_seconds %d is below minimum 1, using 4", c.Capture.DurationSeconds)
		c.Capture.DurationSeconds = 4
	} else if c.Capture.DurationSeconds > 60 {
		warn("capture.duration_seconds %d exceeds maximum 60, clamping", c.Capture.DurationSeconds)
		c.Capture.DurationSeconds = 60
	}

	if c.Capture.ChunkBytes < 512 {
		warn("capture.chunk_bytes %d is below minimum 512, clamping", c.Capture.ChunkBytes)
		c.Capture.ChunkBytes = 512
	} else if c.Capture.ChunkBytes > 1<<20 {
		warn("capture.chunk_bytes %d exceeds maximum 1048576, clamping", c.Capture.ChunkBytes)
		c.Capture.ChunkBytes = 1 << 20
	}

	if c.Capture.OpenTimeoutSeconds < 1 {
		warn("capture.open_timeout_seconds %d is below minimum 1, clamping", c.Capture.OpenTimeoutSeconds)
		c.Capture.OpenTimeoutSeconds = 1
	} else if c.Capture.OpenTimeoutSeconds > 30 {
		warn("capture.open_timeout_seconds %d exceeds maximum 30, clamping", c.Capture.OpenTimeoutSeconds)
		c.Capture.OpenTimeoutSeconds = 30
	}

	if c.RequestTimeoutSeconds < 0 {
		warn("request_timeout_seconds %d is negative, using the transport default", c.RequestTimeoutSeconds)
		c.RequestTimeoutSeconds = 0
	}

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		warn("log_level %q is not valid (use debug, info, warn, error)", c.LogLevel)
	}
	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		warn("log_format %q is not valid (use text or json)", c.LogFormat)
	}

	return r
}

func hasControlChars(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}
