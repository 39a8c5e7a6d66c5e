package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/capture"
	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/config"
	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/enroll"
	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	version   = "0.1.0"
	cfgFile   string
	serverURL string
	logLevel  string

	cfg     *config.Config
	logFile *lumberjack.Logger
)

var log = logging.L("main")

var rootCmd = &cobra.Command{
	Use:           "voice-enroll",
	Short:         "Voice enrollment client",
	Long:          `voice-enroll records a short voice sample and submits it to the recognition backend for enrollment.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		teardown()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("voice-enroll v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/voice-enroll/voice-enroll.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "recognition backend URL")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	// A missing .env is normal.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if msg, ok := exitMessage(err); ok {
			fmt.Fprintln(os.Stderr, "Error:", msg)
		}
		teardown()
		os.Exit(1)
	}
}

// setup loads and validates configuration and initializes logging. Fatal
// validation problems abort the command; the rest are logged and clamped.
func setup() error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if serverURL != "" {
		c.ServerURL = serverURL
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}

	result := c.ValidateTiered()

	output := os.Stderr
	if c.LogFile != "" {
		logFile = logging.NewFileSink(c.LogFile, 0, 0)
		logging.InitWithFile(c.LogFormat, c.LogLevel, output, logFile)
	} else {
		logging.Init(c.LogFormat, c.LogLevel, output)
	}

	for _, w := range result.Warnings {
		log.Warn("config adjusted", zap.Error(w))
	}
	if result.HasFatals() {
		return fmt.Errorf("invalid configuration: %w", result.Err())
	}

	cfg = c
	return nil
}

func teardown() {
	logging.Sync()
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

func newClient() *enroll.Client {
	return enroll.New(enroll.Options{
		ServerURL:          cfg.ServerURL,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		Timeout:            cfg.RequestTimeout(),
		Version:            version,
	})
}

// newSource returns the configured audio source, or a file replay when
// fromFile is set.
func newSource(fromFile string) capture.Source {
	if fromFile == "" && cfg.Capture.Source == "file" {
		fromFile = cfg.Capture.File
	}
	if fromFile != "" {
		return &capture.FileSource{
			Path:       fromFile,
			ChunkBytes: cfg.Capture.ChunkBytes,
		}
	}
	return &capture.CommandSource{
		Command:     cfg.Capture.Command,
		MIMEType:    cfg.Capture.MIMEType,
		ChunkBytes:  cfg.Capture.ChunkBytes,
		OpenTimeout: cfg.Capture.OpenTimeout(),
	}
}

func captureDuration(overrideSeconds int) time.Duration {
	if overrideSeconds > 0 {
		return time.Duration(overrideSeconds) * time.Second
	}
	return cfg.Capture.Duration()
}

// resolveEmail falls back to the configured email when the flag is unset.
// An empty result is sent as-is.
func resolveEmail(cmd *cobra.Command, flag string) string {
	if cmd.Flags().Changed("email") {
		return flag
	}
	return cfg.Email
}

// describeError turns the well-known failures into a user-facing line.
func describeError(err error) string {
	var apiErr *enroll.APIError
	switch {
	case errors.Is(err, capture.ErrPermissionDenied):
		return "Microphone unavailable or permission denied."
	case errors.Is(err, capture.ErrEmptyCapture):
		return "No audio was recorded. Check the microphone and try again."
	case errors.As(err, &apiErr):
		return fmt.Sprintf("Server refused the request: %s", apiErr.Code)
	default:
		return err.Error()
	}
}

// reportedError marks a failure the command already showed the user.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// exitMessage returns the line to print for a failed command, or false when
// the command already reported it.
func exitMessage(err error) (string, bool) {
	var reported *reportedError
	if errors.As(err, &reported) {
		return "", false
	}
	return describeError(err), true
}
