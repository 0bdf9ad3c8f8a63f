package logutil

import (
	"codemailer/config"
	"context"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
	"io"
	"os"
	"strings"
)

func InitZeroLog(ctx context.Context, level string) context.Context {
	return InitZeroLogWithFile(ctx, level, config.Log{})
}

// InitZeroLogWithFile also writes to a rotated log file when cfg.File is set.
func InitZeroLogWithFile(ctx context.Context, level string, cfg config.Log) context.Context {
	// use unix time
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	zerolog.SetGlobalLevel(ParseLevel(level))

	// show caller: github.com/rs/zerolog#add-file-and-line-number-to-log
	zerolog.CallerMarshalFunc = func(_ uintptr, file string, line int) string {
		short := file
		for i := len(file) - 1; i > 0; i-- {
			if file[i] == '/' {
				short = file[i+1:]
				break
			}
		}
		return fmt.Sprintf("%s:%d", short, line)
	}

	var w io.Writer = os.Stderr
	if cfg.File != "" {
		w = zerolog.MultiLevelWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
	}
	log.Logger = zerolog.New(w).With().Timestamp().Caller().Logger()

	return log.Logger.WithContext(ctx)
}

func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case zerolog.LevelDebugValue:
		return zerolog.DebugLevel
	case zerolog.LevelInfoValue:
		return zerolog.InfoLevel
	case zerolog.LevelWarnValue:
		return zerolog.WarnLevel
	case zerolog.LevelErrorValue:
		return zerolog.ErrorLevel
	case zerolog.LevelFatalValue:
		return zerolog.FatalLevel
	default:
		return zerolog.TraceLevel
	}
}
