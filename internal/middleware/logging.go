// internal/middleware/logging.go

package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// roundTripperFunc adapts a function to http.RoundTripper.
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// LogTransport wraps next so every outgoing REST call is logged with its
// method, path, status and duration. A nil next uses http.DefaultTransport.
func LogTransport(logger logrus.FieldLogger, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		start := time.Now()
		resp, err := next.RoundTrip(r)

		fields := logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start),
		}
		if err != nil {
			fields["error"] = err
			logger.WithFields(fields).Warn("HTTP Request failed")
			return nil, err
		}
		fields["status"] = resp.StatusCode
		logger.WithFields(fields).Info("HTTP Request")
		return resp, nil
	})
}

// LogWebSocketConnect logs a game socket being opened.
func LogWebSocketConnect(logger logrus.FieldLogger, game string, mode string) {
	logger.WithFields(logrus.Fields{
		"game": game,
		"mode": mode,
	}).Info("WebSocket connected")
}

// LogWebSocketDisconnect logs a game socket being closed, with the cause if any.
func LogWebSocketDisconnect(logger logrus.FieldLogger, game string, roomID int64, err error) {
	fields := logrus.Fields{
		"game": game,
		"room": roomID,
	}
	if err != nil {
		fields["error"] = err
	}
	logger.WithFields(fields).Info("WebSocket disconnected")
}
