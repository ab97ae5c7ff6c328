package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTMXResponseBuilder_Text(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().Status(http.StatusAccepted).Text("hecho").Write(w)

	if w.Code != http.StatusAccepted {
		t.Errorf("status = %d, want %d", w.Code, http.StatusAccepted)
	}
	if w.Body.String() != "hecho" {
		t.Errorf("body = %q", w.Body.String())
	}
	if w.Header().Get("HX-Trigger") != "" {
		t.Error("unexpected HX-Trigger header")
	}
}

func TestHTMXResponseBuilder_TriggersAreJSON(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().
		TriggerDataReloaded("clientes.xlsx").
		Notify(NotificationSuccess, "Datos recargados").
		Write(w)

	var events map[string]map[string]any
	if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &events); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v", err)
	}
	if got := events["data:reloaded"]["source"]; got != "clientes.xlsx" {
		t.Errorf("data:reloaded source = %v", got)
	}
	note := events["show-notification"]
	if note["type"] != "success" || note["message"] != "Datos recargados" {
		t.Errorf("show-notification = %v", note)
	}
	if note["duration"] != float64(3000) {
		t.Errorf("duration = %v, want 3000", note["duration"])
	}
}

func TestHTMXResponseBuilder_HeadersAndRedirect(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().Header("X-Custom", "value").Redirect("/").Write(w)

	if w.Header().Get("X-Custom") != "value" {
		t.Error("custom header not set")
	}
	if w.Header().Get("HX-Redirect") != "/" {
		t.Errorf("HX-Redirect = %q", w.Header().Get("HX-Redirect"))
	}
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
}

func TestFragments(t *testing.T) {
	tests := []struct {
		name       string
		builder    *HTMXResponseBuilder
		wantStatus int
		wantBody   string
		wantType   string
	}{
		{"bad request", BadRequestError("Entrada no válida"), http.StatusBadRequest, `<div class="error">Entrada no válida</div>`, "error"},
		{"forbidden", ForbiddenError("Solo administradores"), http.StatusForbidden, `<div class="error">Solo administradores</div>`, "error"},
		{"server error", ErrorResponse(http.StatusInternalServerError, "Algo falló"), http.StatusInternalServerError, `<div class="error">Algo falló</div>`, "error"},
		{"success", SuccessResponse("Datos recargados"), http.StatusOK, `<div class="success">Datos recargados</div>`, "success"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
			if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
				t.Errorf("Content-Type = %q", ct)
			}
			if !strings.Contains(w.Header().Get("HX-Trigger"), `"type":"`+tt.wantType+`"`) {
				t.Errorf("HX-Trigger = %s", w.Header().Get("HX-Trigger"))
			}
		})
	}
}

func TestUnauthorizedError_Redirects(t *testing.T) {
	w := httptest.NewRecorder()
	UnauthorizedError("Sesión caducada").Write(w)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if got := w.Header().Get("HX-Redirect"); got != "/" {
		t.Errorf("HX-Redirect = %q, want /", got)
	}
}

func TestErrorResponse_EscapesHTML(t *testing.T) {
	w := httptest.NewRecorder()
	BadRequestError("<script>alert('xss')</script>").Write(w)

	body := w.Body.String()
	if strings.Contains(body, "<script>") {
		t.Error("error fragment did not escape HTML")
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Errorf("unexpected escaping: %s", body)
	}
}
