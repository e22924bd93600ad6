package logger

import (
	"io"
	"os"
	"path/filepath"

	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger configures the global zerolog logger and returns the fiber
// request-log middleware config. Both write to stdout and a rotated file.
func NewLogger(logDir string, debug bool) (*fiberLogger.Config, error) {
	if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
		return nil, err
	}

	logFile := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "app.log"),
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}

	multiWriter := io.MultiWriter(os.Stdout, logFile)

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(multiWriter).Level(level).With().Timestamp().Logger()

	config := &fiberLogger.Config{
		Output:     multiWriter,
		Format:     "${time} | ${status} | ${latency} | ${method} | ${path} | ${error}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}

	return config, nil
}
