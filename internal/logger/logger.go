package logger

import (
	"io"
	"os"
	"strings"

	"delivery-fee-service/internal/config"

	"github.com/sirupsen/logrus"
)

// Logger оборачивает logrus и используется во всех слоях сервиса
type Logger struct {
	*logrus.Logger
}

// New создает логгер по конфигурации: уровень, формат (json|text) и файл вывода
func New(cfg *config.LoggerConfig) *Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if strings.ToLower(cfg.Format) == "text" {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	}

	log.SetOutput(openOutput(cfg.File, log))

	return &Logger{Logger: log}
}

// openOutput открывает файл для логов, при ошибке пишет в stdout
func openOutput(path string, log *logrus.Logger) io.Writer {
	if path == "" {
		return os.Stdout
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.WithError(err).WithField("file", path).Warn("Failed to open log file, using stdout")
		return os.Stdout
	}
	return file
}
