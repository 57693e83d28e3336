package hpshare

import (
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostpulse/hostpulse/share/logger"
)

var testLog = logger.NewLogger("http-server-test", logger.LogOutput{File: os.Stdout}, logger.LogLevelDebug)

func TestNewHTTPServer(t *testing.T) {
	s := NewHTTPServer(123, testLog)

	assert.Equal(t, 123, s.MaxHeaderBytes)
	assert.Equal(t, "", s.certFile)
	assert.Equal(t, "", s.keyFile)
}

func TestNewHTTPServerWithTLS(t *testing.T) {
	s := NewHTTPServer(123, testLog, WithTLS("test.crt", "test.key", nil))

	assert.Equal(t, 123, s.MaxHeaderBytes)
	assert.Equal(t, "test.crt", s.certFile)
	assert.Equal(t, "test.key", s.keyFile)
}

func TestGoListenAndServe(t *testing.T) {
	s := NewHTTPServer(1 << 20, testLog)
	err := s.GoListenAndServe("127.0.0.1:0", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	}))
	require.NoError(t, err)
	defer s.Close()

	resp, err := http.Get("http://" + s.listener.Addr().String() + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(body))
}
