package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds a JSON logger that writes to stdout and mirrors entries into
// rotating files under dir: errors go to error.log, everything at info and
// below to info.log. An empty dir keeps console output only.
func New(level, dir string) (*logrus.Logger, error) {
	l := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})
	l.SetOutput(os.Stdout)

	if dir == "" {
		return l, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	l.AddHook(&FileHook{
		ErrorWriter: rotating(filepath.Join(dir, "error.log")),
		InfoWriter:  rotating(filepath.Join(dir, "info.log")),
	})
	return l, nil
}

func rotating(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
}

// FileHook routes entries to a writer by level.
type FileHook struct {
	ErrorWriter io.Writer
	InfoWriter  io.Writer
}

func (h *FileHook) Fire(entry *logrus.Entry) error {
	line, err := entry.String()
	if err != nil {
		return err
	}
	switch entry.Level {
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		_, err = h.ErrorWriter.Write([]byte(line))
	default:
		_, err = h.InfoWriter.Write([]byte(line))
	}
	return err
}

func (h *FileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Truncate shortens user text before it goes into a log line.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
