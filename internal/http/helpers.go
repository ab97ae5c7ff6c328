package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"ccpp/internal/core"
)

// formatEuros renders an amount the Spanish way: "1.234,50 €".
func formatEuros(m core.Money) string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	euros := strconv.FormatInt(cents/100, 10)
	var b strings.Builder
	for i, d := range euros {
		if i > 0 && (len(euros)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	rem := cents % 100
	b.WriteByte(',')
	if rem < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.FormatInt(rem, 10))
	b.WriteString(" €")
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// barWidth scales v against max as a rounded percentage, keeping non-zero
// values visible.
func barWidth(v, max int64) int {
	if max <= 0 || v <= 0 {
		return 0
	}
	width := int((v*100 + max/2) / max)
	if width < 2 {
		width = 2
	}
	if width > 100 {
		width = 100
	}
	return width
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// isHTMX reports whether the request was issued by htmx.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// errorStatus maps a service error to an HTTP status and a message safe to
// show to the user.
func errorStatus(err error) (int, string) {
	var missing *core.MissingColumnsError
	switch {
	case errors.Is(err, core.ErrAuthentication):
		return http.StatusUnauthorized, "Usuario o contraseña incorrectos"
	case errors.As(err, &missing):
		return http.StatusUnprocessableEntity,
			"Error de configuración: faltan columnas en " + missing.Source + ": " + strings.Join(missing.Missing, ", ")
	case errors.Is(err, core.ErrConfiguration):
		return http.StatusUnprocessableEntity, "Error de configuración de los datos"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "La carga de datos ha tardado demasiado"
	case errors.Is(err, core.ErrDataLoad):
		return http.StatusInternalServerError, "No se pudieron cargar los datos"
	default:
		return http.StatusInternalServerError, "Error interno"
	}
}
