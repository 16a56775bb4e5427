package diagnostic

import (
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Service owns the root logger and hands out per-service diagnostic handlers.
type Service struct {
	c      Config
	stdout io.Writer
	stderr io.Writer

	level  zap.AtomicLevel
	closer io.Closer

	Logger *zap.Logger
}

func NewService(c Config, stdout, stderr io.Writer) *Service {
	return &Service{
		c:      c,
		stdout: stdout,
		stderr: stderr,
		level:  zap.NewAtomicLevel(),
		Logger: zap.NewNop(),
	}
}

// NewServiceWithLogger wraps an existing logger, for tests and embedding.
// Open must not be called on the returned Service.
func NewServiceWithLogger(l *zap.Logger) *Service {
	return &Service{
		level:  zap.NewAtomicLevelAt(zapcore.DebugLevel),
		Logger: l,
	}
}

func (s *Service) Open() error {
	var output io.Writer
	switch s.c.File {
	case "STDERR":
		output = s.stderr
	case "STDOUT":
		output = s.stdout
	default:
		dir := path.Dir(s.c.File)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
		}

		f, err := os.OpenFile(s.c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
		if err != nil {
			return err
		}
		output = f
		s.closer = f
	}

	if err := s.SetLevel(s.c.Level); err != nil {
		return err
	}

	encConfig := zap.NewProductionEncoderConfig()
	encConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	var encoder zapcore.Encoder
	switch strings.ToLower(s.c.Encoding) {
	case "json":
		encoder = zapcore.NewJSONEncoder(encConfig)
	case "console", "":
		encConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encConfig)
	default:
		return fmt.Errorf("unknown log encoding %s", s.c.Encoding)
	}

	s.Logger = zap.New(zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(output)), s.level))
	return nil
}

func (s *Service) Close() error {
	_ = s.Logger.Sync()
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// SetLevel changes the level of the root logger and every handler derived from it.
func (s *Service) SetLevel(level string) error {
	l, err := parseLevel(level)
	if err != nil {
		return err
	}
	s.level.SetLevel(l)
	return nil
}

func parseLevel(level string) (zapcore.Level, error) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zapcore.DebugLevel, nil
	case "INFO":
		return zapcore.InfoLevel, nil
	case "WARN":
		return zapcore.WarnLevel, nil
	case "ERROR":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown logging level %s", level)
	}
}

func (s *Service) with(service string) *zap.Logger {
	return s.Logger.With(zap.String("service", service))
}

func (s *Service) NewCmdHandler() *CmdHandler {
	return &CmdHandler{l: s.with("run")}
}

func (s *Service) NewServerHandler() *ServerHandler {
	return &ServerHandler{l: s.with("server")}
}

func (s *Service) NewStorageHandler() *StorageHandler {
	return &StorageHandler{l: s.with("storage")}
}

func (s *Service) NewAuthorityHandler() *AuthorityHandler {
	return &AuthorityHandler{l: s.with("authority")}
}

func (s *Service) NewDispatchHandler() *DispatchHandler {
	return &DispatchHandler{l: s.with("dispatch")}
}

func (s *Service) NewSMTPHandler() *SMTPHandler {
	return &SMTPHandler{l: s.with("smtp")}
}

func (s *Service) NewHTTPDHandler() *HTTPDHandler {
	return &HTTPDHandler{l: s.with("http")}
}

func (s *Service) NewTelemetryHandler() *TelemetryHandler {
	return &TelemetryHandler{l: s.with("telemetry")}
}

func (s *Service) NewAlertsHandler() *AlertsHandler {
	return &AlertsHandler{l: s.with("alerts")}
}

func (s *Service) NewRealtimeHandler() *RealtimeHandler {
	return &RealtimeHandler{l: s.with("realtime")}
}
