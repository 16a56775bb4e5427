package diagnostic

import (
	"log"
	"runtime"
	"time"

	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/keyvalue"
	"go.uber.org/zap"
)

func fields(ctx []keyvalue.T) []zap.Field {
	f := make([]zap.Field, len(ctx))
	for i, kv := range ctx {
		f[i] = zap.String(kv.Key, kv.Value)
	}
	return f
}

// Cmd handler

type CmdHandler struct {
	l *zap.Logger
}

func (h *CmdHandler) Error(msg string, err error) {
	h.l.Error(msg, zap.Error(err))
}

func (h *CmdHandler) Starting(version, commit string) {
	h.l.Info("hydrolake starting", zap.String("version", version), zap.String("commit", commit))
}

func (h *CmdHandler) GoVersion() {
	h.l.Info("go version", zap.String("version", runtime.Version()))
}

func (h *CmdHandler) Info(msg string) {
	h.l.Info(msg)
}

// Server handler

type ServerHandler struct {
	l *zap.Logger
}

func (h *ServerHandler) Error(msg string, err error, ctx ...keyvalue.T) {
	h.l.Error(msg, append(fields(ctx), zap.Error(err))...)
}

func (h *ServerHandler) Info(msg string, ctx ...keyvalue.T) {
	h.l.Info(msg, fields(ctx)...)
}

func (h *ServerHandler) Debug(msg string, ctx ...keyvalue.T) {
	h.l.Debug(msg, fields(ctx)...)
}

// Storage handler

type StorageHandler struct {
	l *zap.Logger
}

func (h *StorageHandler) Opened(backend, location string) {
	h.l.Info("opened storage", zap.String("backend", backend), zap.String("location", location))
}

func (h *StorageHandler) Error(msg string, err error) {
	h.l.Error(msg, zap.Error(err))
}

// Authority handler

type AuthorityHandler struct {
	l *zap.Logger
}

func (h *AuthorityHandler) Saved(count int) {
	h.l.Info("saved authority list", zap.Int("count", count))
}

func (h *AuthorityHandler) Error(msg string, err error) {
	h.l.Error(msg, zap.Error(err))
}

// Dispatch handler

type DispatchHandler struct {
	l *zap.Logger
}

func (h *DispatchHandler) Delivered(url string, status int, elapsed time.Duration) {
	h.l.Info("alert delivered",
		zap.String("url", url),
		zap.Int("status", status),
		zap.Duration("duration", elapsed),
	)
}

func (h *DispatchHandler) Declined(url string, status int, reason string) {
	h.l.Warn("alert declined by endpoint",
		zap.String("url", url),
		zap.Int("status", status),
		zap.String("reason", reason),
	)
}

func (h *DispatchHandler) TransportError(url string, err error) {
	h.l.Warn("alert endpoint unreachable, falling back to mail client", zap.String("url", url), zap.Error(err))
}

func (h *DispatchHandler) FallbackOpened(recipients int) {
	h.l.Info("opened mail client", zap.Int("recipients", recipients))
}

func (h *DispatchHandler) FallbackUnavailable(err error) {
	h.l.Error("fallback unavailable", zap.Error(err))
}

// SMTP handler

type SMTPHandler struct {
	l *zap.Logger
}

func (h *SMTPHandler) Error(msg string, err error) {
	h.l.Error(msg, zap.Error(err))
}

func (h *SMTPHandler) Sent(to []string) {
	h.l.Debug("sent email", zap.Strings("to", to))
}

// HTTPD handler

type HTTPDHandler struct {
	l *zap.Logger
}

func (h *HTTPDHandler) NewHTTPServerErrorLogger() *log.Logger {
	l, err := zap.NewStdLogAt(h.l.With(zap.String("service", "httpd_server_errors")), zap.ErrorLevel)
	if err != nil {
		return zap.NewStdLog(h.l)
	}
	return l
}

func (h *HTTPDHandler) StartingService() {
	h.l.Info("starting HTTP service")
}

func (h *HTTPDHandler) StoppedService() {
	h.l.Info("closed HTTP service")
}

func (h *HTTPDHandler) ShutdownTimeout() {
	h.l.Error("shutdown timedout, forcefully closing all remaining connections")
}

func (h *HTTPDHandler) ListeningOn(addr string, proto string) {
	h.l.Info("listening on", zap.String("addr", addr), zap.String("protocol", proto))
}

func (h *HTTPDHandler) HTTP(
	host string,
	start time.Time,
	method string,
	uri string,
	proto string,
	status int,
	referer string,
	userAgent string,
	reqID string,
	duration time.Duration,
) {
	h.l.Info("http request",
		zap.String("host", host),
		zap.Time("start", start),
		zap.String("method", method),
		zap.String("uri", uri),
		zap.String("protocol", proto),
		zap.Int("status", status),
		zap.String("referer", referer),
		zap.String("user-agent", userAgent),
		zap.String("request-id", reqID),
		zap.Duration("duration", duration),
	)
}

func (h *HTTPDHandler) RecoveryError(
	msg string,
	err string,
	method string,
	uri string,
	reqID string,
) {
	h.l.Error(
		msg,
		zap.String("err", err),
		zap.String("method", method),
		zap.String("uri", uri),
		zap.String("request-id", reqID),
	)
}

func (h *HTTPDHandler) Error(msg string, err error) {
	h.l.Error(msg, zap.Error(err))
}

// Telemetry handler

type TelemetryHandler struct {
	l *zap.Logger
}

func (h *TelemetryHandler) Error(msg string, err error) {
	h.l.Error(msg, zap.Error(err))
}

func (h *TelemetryHandler) Generated(kind string, critical int) {
	h.l.Debug("generated telemetry", zap.String("kind", kind), zap.Int("critical", critical))
}

// Alerts handler

type AlertsHandler struct {
	l *zap.Logger
}

func (h *AlertsHandler) Error(msg string, err error) {
	h.l.Error(msg, zap.Error(err))
}

func (h *AlertsHandler) AlertCreated(id, level string) {
	h.l.Info("alert created", zap.String("id", id), zap.String("level", level))
}

func (h *AlertsHandler) AlertSent(recipients int, subject string) {
	h.l.Info("alert sent", zap.Int("recipients", recipients), zap.String("subject", subject))
}

func (h *AlertsHandler) Escalated(id string, recipients int, result string) {
	h.l.Info("alert escalated", zap.String("id", id), zap.Int("recipients", recipients), zap.String("result", result))
}

// Realtime handler

type RealtimeHandler struct {
	l *zap.Logger
}

func (h *RealtimeHandler) Error(msg string, err error) {
	h.l.Error(msg, zap.Error(err))
}

func (h *RealtimeHandler) ClientConnected(remote string, clients int) {
	h.l.Debug("websocket client connected", zap.String("remote", remote), zap.Int("clients", clients))
}

func (h *RealtimeHandler) ClientDisconnected(remote string, clients int) {
	h.l.Debug("websocket client disconnected", zap.String("remote", remote), zap.Int("clients", clients))
}

func (h *RealtimeHandler) SlowClient(remote string) {
	h.l.Warn("dropping slow websocket client", zap.String("remote", remote))
}

func (h *RealtimeHandler) Connected(url string) {
	h.l.Info("connected to realtime server", zap.String("url", url))
}

func (h *RealtimeHandler) Disconnected(url string) {
	h.l.Info("disconnected from realtime server", zap.String("url", url))
}
