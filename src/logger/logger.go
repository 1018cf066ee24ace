package logger

import (
	"io"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

const (
	LogLevelEnv = "LOG_LEVEL"
	LogFileEnv  = "LOG_FILE"
)

// Setup configures the global logrus logger from LOG_LEVEL and LOG_FILE.
// When LOG_FILE is set, entries are also written as JSON to a rotating file.
func Setup() io.Closer {
	level, err := log.ParseLevel(strings.ToLower(os.Getenv(LogLevelEnv)))
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if isTerminal(os.Stderr) {
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	} else {
		log.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	}

	path := os.Getenv(LogFileEnv)
	if path == "" {
		log.SetOutput(os.Stderr)
		return io.NopCloser(nil)
	}

	rotating := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	}

	log.SetOutput(os.Stderr)
	log.AddHook(&fileHook{
		writer:    rotating,
		formatter: &log.JSONFormatter{TimestampFormat: time.RFC3339Nano},
	})

	return rotating
}

type fileHook struct {
	writer    io.Writer
	formatter log.Formatter
}

func (h *fileHook) Levels() []log.Level {
	return log.AllLevels
}

func (h *fileHook) Fire(entry *log.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}

	_, err = h.writer.Write(line)
	return err
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeCharDevice != 0
}
