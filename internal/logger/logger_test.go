package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileHook_RoutesByLevel(t *testing.T) {
	var errBuf, infoBuf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&bytes.Buffer{})
	l.AddHook(&FileHook{ErrorWriter: &errBuf, InfoWriter: &infoBuf})

	l.Info("hello")
	l.Error("boom")

	assert.Contains(t, infoBuf.String(), "hello")
	assert.NotContains(t, infoBuf.String(), "boom")
	assert.Contains(t, errBuf.String(), "boom")
}

func TestNew_CreatesDirAndParsesLevel(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	l, err := New("debug", dir)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())

	st, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, st.IsDir())

	l2, err := New("nonsense", "")
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, l2.GetLevel())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "مرح…", Truncate("مرحبا", 3))
}
