package mcp

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/a3tai/pdf-field-extractor/internal/config"
)

func TestServer_Run_InvalidMode(t *testing.T) {
	server := newTestServer(t, t.TempDir())
	server.config.Mode = "invalid"

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := server.Run(ctx)
	if err == nil || !strings.Contains(err.Error(), "unsupported mode") {
		t.Errorf("Run() error = %v, expected unsupported mode", err)
	}
}

func TestServer_Run_ServerModeStopsOnCancel(t *testing.T) {
	server := newTestServer(t, t.TempDir())
	server.config.Mode = config.ModeServer
	server.config.Host = "127.0.0.1"
	server.config.Port = 0
	server.logger = zap.NewNop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, expected clean shutdown", err)
		}
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("Run() did not return after cancellation")
	}
}
