// Package logging настраивает глобальный zerolog-логгер сервиса.
//
// Компоненты получают свой логгер через
//
//	log.With().Str("component", "selection").Logger()
//
// поэтому Init должен вызываться до создания сервисов.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config: настройки логирования
type Config struct {
	// Level: trace, debug, info, warn, error. По умолчанию info.
	Level string `mapstructure:"level"`
	// Format: json или console. По умолчанию json.
	Format string `mapstructure:"format"`
	// Output: куда писать, по умолчанию os.Stderr
	Output io.Writer `mapstructure:"-"`
}

// Init настраивает глобальный логгер zerolog/log
func Init(cfg Config) {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	output := cfg.Output
	if strings.EqualFold(cfg.Format, "console") {
		output = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05"}
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// ParseLevel переводит строку в zerolog.Level; неизвестное значение — info
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
