package webhooks

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/trackly/trackly-home/internal/httputil"
	"github.com/trackly/trackly-home/internal/notification"
	"github.com/trackly/trackly-home/pkg/auth"
	"github.com/trackly/trackly-home/pkg/domain"
)

const (
	// SignatureHeader carries base64url(HMAC-SHA256(key, timestamp + "." + body)).
	SignatureHeader = "X-Trackly-Signature"
	// TimestampHeader carries the Unix time the relay signed the request.
	TimestampHeader = "X-Trackly-Timestamp"

	// KeyInfo binds the derived MAC key to this webhook.
	KeyInfo = "trackly-home email-events v1"

	maxClockSkew = 5 * time.Minute
)

// EventRecorder counts received delivery events.
type EventRecorder interface {
	EmailEvent(eventType string)
}

type Handler struct {
	logger   *slog.Logger
	key      []byte
	recorder EventRecorder
	now      func() time.Time
}

// NewHandler creates the webhook handler. key is the derived MAC key.
func NewHandler(logger *slog.Logger, key []byte, recorder EventRecorder) *Handler {
	return &Handler{logger: logger, key: key, recorder: recorder, now: time.Now}
}

// RegisterRoutes registers the delivery webhook.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/email-events", h.EmailEvents)
}

// Sign returns the signature header value for body at ts.
func Sign(key []byte, ts time.Time, body []byte) string {
	return auth.SignToken(key, strconv.FormatInt(ts.Unix(), 10)+"."+string(body))
}

// EmailEvents receives delivery events from the mail relay.
// POST /email-events
func (h *Handler) EmailEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httputil.Error(w, domain.CodeInvalidRequest, "Request body too large")
			return
		}
		httputil.Error(w, domain.CodeInvalidRequest, "Invalid request body")
		return
	}

	tsHeader := r.Header.Get(TimestampHeader)
	sig := r.Header.Get(SignatureHeader)
	ts, err := strconv.ParseInt(tsHeader, 10, 64)
	if err != nil || sig == "" {
		httputil.Error(w, domain.CodeUnauthorized, "Missing or invalid signature")
		return
	}
	if skew := h.now().Sub(time.Unix(ts, 0)); skew > maxClockSkew || skew < -maxClockSkew {
		httputil.Error(w, domain.CodeUnauthorized, "Signature timestamp out of range")
		return
	}
	if !auth.VerifySignature(h.key, tsHeader+"."+string(body), sig) {
		h.logger.Warn("email webhook signature mismatch", "ip", r.RemoteAddr)
		httputil.Error(w, domain.CodeUnauthorized, "Missing or invalid signature")
		return
	}

	event, err := notification.ParseDeliveryEvent(body)
	if err != nil {
		httputil.Error(w, domain.CodeInvalidRequest, "Invalid email event")
		return
	}

	eventType := event.Type
	if !event.Known() {
		eventType = "other"
	}
	if h.recorder != nil {
		h.recorder.EmailEvent(eventType)
	}

	if event.Failed() {
		h.logger.Warn("invite email not delivered", "type", event.Type, "email_id", event.Data.EmailID)
	} else {
		h.logger.Debug("email event", "type", event.Type, "email_id", event.Data.EmailID)
	}

	httputil.JSON(w, http.StatusOK, map[string]bool{"received": true})
}
