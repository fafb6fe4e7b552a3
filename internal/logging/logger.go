package logging

import (
	"fmt"
	"io"
	"log/syslog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"firmware-manager/internal/config"
)

const (
	syslogTag      = "firmware-manager"
	syslogPriority = syslog.LOG_INFO | syslog.LOG_DAEMON
)

// Setup replaces the global logger with one built from cfg.
func Setup(cfg config.Config) error {
	writer, err := NewWriter(cfg)
	if err != nil {
		return err
	}

	log.Logger = zerolog.New(writer).With().
		Timestamp().
		Str("service", syslogTag).
		Caller().
		Logger()

	log.Info().
		Str("level", zerolog.GlobalLevel().String()).
		Str("format", cfg.Logging.Format).
		Str("output", cfg.Logging.Output).
		Msg("Logger initialized")

	return nil
}

// NewWriter sets the global level and builds the configured log writer.
//
// Outputs: stdout, file (rotated by lumberjack), syslog, or multi which
// always writes stdout and adds file and syslog when they are configured.
func NewWriter(cfg config.Config) (io.Writer, error) {
	level, err := parseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	switch strings.ToLower(cfg.Logging.Output) {
	case "stdout", "":
		return stdoutWriter(cfg), nil
	case "file":
		return fileWriter(cfg)
	case "syslog":
		return syslogWriter(cfg)
	case "multi":
		return multiWriter(cfg)
	default:
		return nil, fmt.Errorf("invalid log output %q", cfg.Logging.Output)
	}
}

func parseLevel(level string) (zerolog.Level, error) {
	switch l := strings.ToLower(strings.TrimSpace(level)); l {
	case "":
		return zerolog.InfoLevel, nil
	case "warning":
		return zerolog.WarnLevel, nil
	default:
		return zerolog.ParseLevel(l)
	}
}

func stdoutWriter(cfg config.Config) io.Writer {
	if strings.ToLower(cfg.Logging.Format) == "console" {
		return zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "2006-01-02 15:04:05"}
	}
	return os.Stdout
}

func fileWriter(cfg config.Config) (io.Writer, error) {
	if cfg.Logging.FilePath == "" {
		return nil, fmt.Errorf("file output needs logging.file_path")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Logging.FilePath), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return &lumberjack.Logger{
		Filename:   cfg.Logging.FilePath,
		MaxSize:    cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
		LocalTime:  true,
	}, nil
}

// syslogWriter maps zerolog levels onto syslog severities.
func syslogWriter(cfg config.Config) (io.Writer, error) {
	var (
		w   *syslog.Writer
		err error
	)
	if cfg.Logging.SyslogAddr == "" {
		w, err = syslog.New(syslogPriority, syslogTag)
	} else {
		network := cfg.Logging.SyslogNet
		if network == "" {
			network = "udp"
		}
		w, err = syslog.Dial(network, cfg.Logging.SyslogAddr, syslogPriority, syslogTag)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to syslog: %w", err)
	}
	return zerolog.SyslogLevelWriter(w), nil
}

func multiWriter(cfg config.Config) (io.Writer, error) {
	writers := []io.Writer{stdoutWriter(cfg)}

	if cfg.Logging.FilePath != "" {
		w, err := fileWriter(cfg)
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}

	// A missing syslog daemon must not keep the service from starting.
	if cfg.Logging.SyslogAddr != "" {
		w, err := syslogWriter(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: syslog output disabled: %v\n", err)
		} else {
			writers = append(writers, w)
		}
	}

	return zerolog.MultiLevelWriter(writers...), nil
}
