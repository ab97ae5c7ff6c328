package http

import (
	"encoding/json"
	"html/template"
	"net/http"
)

// HTMXResponseBuilder assembles a response for an htmx request: status,
// HX-* headers, HX-Trigger events and an HTML fragment.
type HTMXResponseBuilder struct {
	status   int
	headers  http.Header
	triggers map[string]any
	body     []byte
}

// NewHTMXResponse starts a 200 response with no body.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		status:   http.StatusOK,
		headers:  http.Header{},
		triggers: map[string]any{},
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.status = code
	return b
}

func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.headers.Set(name, value)
	return b
}

// Trigger queues a client event. Later calls with the same name win.
func (b *HTMXResponseBuilder) Trigger(event string, detail any) *HTMXResponseBuilder {
	b.triggers[event] = detail
	return b
}

// TriggerDataReloaded fires data:reloaded. An empty source means every
// table was dropped.
func (b *HTMXResponseBuilder) TriggerDataReloaded(source string) *HTMXResponseBuilder {
	return b.Trigger("data:reloaded", map[string]string{"source": source})
}

// Redirect makes htmx navigate the whole page to location.
func (b *HTMXResponseBuilder) Redirect(location string) *HTMXResponseBuilder {
	return b.Header("HX-Redirect", location)
}

// NotificationType selects how a show-notification event is styled.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
)

var notificationDuration = map[NotificationType]int{
	NotificationSuccess: 3000,
	NotificationError:   5000,
}

// Notify fires show-notification with the default duration for kind.
func (b *HTMXResponseBuilder) Notify(kind NotificationType, message string) *HTMXResponseBuilder {
	return b.Trigger("show-notification", map[string]any{
		"type":     string(kind),
		"message":  message,
		"duration": notificationDuration[kind],
	})
}

// Text sets a plain body.
func (b *HTMXResponseBuilder) Text(content string) *HTMXResponseBuilder {
	b.body = []byte(content)
	return b
}

// BodyHTML sets an HTML body.
func (b *HTMXResponseBuilder) BodyHTML(html string) *HTMXResponseBuilder {
	b.headers.Set("Content-Type", "text/html; charset=utf-8")
	b.body = []byte(html)
	return b
}

// Write sends the response. Headers are set before the status line.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	h := w.Header()
	for name, values := range b.headers {
		h[name] = values
	}
	if len(b.triggers) > 0 {
		if events, err := json.Marshal(b.triggers); err == nil {
			h.Set("HX-Trigger", string(events))
		}
	}
	w.WriteHeader(b.status)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// fragment is a one-line notice; message is escaped.
func fragment(status int, class, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(status).
		BodyHTML(`<div class="` + class + `">` + template.HTMLEscapeString(message) + `</div>`)
}

// ErrorResponse is an error notice with the given status.
func ErrorResponse(status int, message string) *HTMXResponseBuilder {
	return fragment(status, "error", message).Notify(NotificationError, message)
}

// SuccessResponse is a 200 success notice.
func SuccessResponse(message string) *HTMXResponseBuilder {
	return fragment(http.StatusOK, "success", message).Notify(NotificationSuccess, message)
}

func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnauthorizedError also sends htmx back to the login page.
func UnauthorizedError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, message).Redirect("/")
}

func ForbiddenError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusForbidden, message)
}
