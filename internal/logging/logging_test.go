package logging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestPreInitLoggerUsesConfiguredCore(t *testing.T) {
	logger := L("capture")

	var buf bytes.Buffer
	Init("text", "info", &buf)
	t.Cleanup(func() { Init("text", "info", nil) })

	logger.Info("stream opened", zap.String("source", "arecord"))

	out := buf.String()
	if !strings.Contains(out, "stream opened") {
		t.Fatalf("expected message in output, got: %s", out)
	}
	if !strings.Contains(out, "capture") {
		t.Fatalf("expected logger name in output, got: %s", out)
	}
	if !strings.Contains(out, "arecord") {
		t.Fatalf("expected source field, got: %s", out)
	}
}

func TestPreInitLoggerRespectsConfiguredLevel(t *testing.T) {
	logger := L("enroll")

	var buf bytes.Buffer
	Init("text", "warn", &buf)
	t.Cleanup(func() { Init("text", "info", nil) })

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info log should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("warn log should be emitted: %s", out)
	}
}

func TestChildFieldsSurviveReinit(t *testing.T) {
	logger := WithCycle(L("session"), "cycle-1")

	var buf bytes.Buffer
	Init("json", "debug", &buf)
	t.Cleanup(func() { Init("text", "info", nil) })

	logger.Debug("submitting")

	out := buf.String()
	if !strings.Contains(out, `"cycleId":"cycle-1"`) {
		t.Fatalf("expected cycleId field in json output, got: %s", out)
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext() returned nil logger")
	}

	l := L("ctx")
	ctx := NewContext(context.Background(), l)
	if got := FromContext(ctx); got != l {
		t.Fatalf("FromContext() = %p, want %p", got, l)
	}
}

func TestInitWithFileWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voice-enroll.log")
	sink := NewFileSink(path, 0, 0)
	t.Cleanup(func() { sink.Close() })

	var terminal bytes.Buffer
	InitWithFile("text", "info", &terminal, sink)
	t.Cleanup(func() { Init("text", "info", nil) })

	WithCycle(L("session"), "cycle-7").Info("enrollment cycle done")
	WithCycle(L("session"), "cycle-7").Debug("filtered")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"cycleId":"cycle-7"`) {
		t.Fatalf("expected json cycleId in log file, got: %s", data)
	}
	if strings.Contains(string(data), "filtered") {
		t.Fatalf("debug entry written at info level: %s", data)
	}
	if !strings.Contains(terminal.String(), "enrollment cycle done") {
		t.Fatalf("expected terminal output, got: %s", terminal.String())
	}
}

func TestFileSinkRotatesPastMaxSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "voice-enroll.log")
	sink := NewFileSink(path, 1, 2)
	t.Cleanup(func() { sink.Close() })

	line := bytes.Repeat([]byte("x"), 700*1024)
	for i := 0; i < 2; i++ {
		if _, err := sink.Write(line); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("log files = %d, want current plus one backup", len(entries))
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat current log: %v", err)
	}
	if info.Size() != int64(len(line)) {
		t.Fatalf("current log size = %d, want %d", info.Size(), len(line))
	}
}
