package utils

import (
	"io"
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/sirupsen/logrus"
)

// InitLogger sets up logrus to write to stdout and a daily rotated file kept for 7 days
func InitLogger(logDir, logLevel string) error {
	if logDir == "" {
		logDir = "logs"
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}

	logFile := filepath.Join(logDir, "bot_%Y%m%d.log")
	writer, err := rotatelogs.New(
		logFile,
		rotatelogs.WithMaxAge(7*24*time.Hour),
		rotatelogs.WithRotationTime(24*time.Hour),
		rotatelogs.WithLinkName(filepath.Join(logDir, "bot_latest.log")),
	)
	if err != nil {
		return err
	}

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		PadLevelText:    true,
	})
	logrus.SetOutput(io.MultiWriter(os.Stdout, writer))

	// LOG_LEVEL wins over the config file
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		logLevel = env
	}
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	logrus.WithFields(logrus.Fields{
		"log_dir":        logDir,
		"retention_days": 7,
		"level":          level.String(),
	}).Info("✅ logger initialized")

	return nil
}
