package serve

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/wtconv/internal/cmd/cmdutil"
)

// syncBuffer guards the log buffer shared with the server goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRunServe(t *testing.T) {
	t.Setenv("WTC_LOG_LEVEL", "")
	logs := &syncBuffer{}
	addrCh := make(chan string, 1)
	opts := &serveOptions{
		GlobalOptions: cmdutil.GlobalOptions{ConfigPath: filepath.Join(t.TempDir(), "config.yml"), LogLevel: "info"},
		addr:          "127.0.0.1:0",
		noFetch:       true,
		logOut:        logs,
		onListen:      func(addr string) { addrCh <- addr },
		shutdownIn:    time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServe(ctx, opts) }()

	var addr string
	select {
	case addr = <-addrCh:
	case err := <-done:
		t.Fatalf("server exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Post("http://"+addr+"/transform/wikitext/to/html", "application/json",
		strings.NewReader(`{"wikitext":"[[Foo]] {{Missing}}"}`))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `href="./Foo"`)
	assert.Contains(t, string(body), "Template:Missing")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	assert.Contains(t, logs.String(), `"msg":"starting wtc server"`)
	assert.Contains(t, logs.String(), `"path":"/transform/wikitext/to/html"`)
	assert.Contains(t, logs.String(), `"msg":"shutting down..."`)
}

func TestRunServe_BadAddress(t *testing.T) {
	opts := &serveOptions{
		GlobalOptions: cmdutil.GlobalOptions{ConfigPath: filepath.Join(t.TempDir(), "config.yml")},
		addr:          "not-an-address",
		noFetch:       true,
		logOut:        io.Discard,
		shutdownIn:    time.Second,
	}

	err := runServe(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}

func TestNewCmdServe(t *testing.T) {
	cmd := NewCmdServe()
	assert.Equal(t, "serve", cmd.Use)
	flag := cmd.Flags().Lookup("addr")
	require.NotNil(t, flag)
	assert.Equal(t, ":8080", flag.DefValue)
}
