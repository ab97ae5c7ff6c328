// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// dashboard filters, CUPS and month selections, and request bodies that may
// be form-encoded or JSON.

package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"ccpp/internal/core"
	"ccpp/internal/report"
)

// Query parameter names shared by the page, the partials and the export.
const (
	paramClient       = "client"
	paramContractType = "type"
	paramMonth        = "month"
	paramStatus       = "status"
	paramCUPS         = "cups"
	paramMonths       = "months"
)

// maxBodyBytes caps login and reload bodies.
const maxBodyBytes = 64 << 10

// ParseFilters reads the four dashboard filters. Missing values mean All.
func ParseFilters(query url.Values) report.Filters {
	return report.Filters{
		Client:       sanitizeInput(query.Get(paramClient)),
		ContractType: sanitizeInput(query.Get(paramContractType)),
		Month:        sanitizeInput(query.Get(paramMonth)),
		Status:       sanitizeInput(query.Get(paramStatus)),
	}.Normalize()
}

// FilterQuery encodes filters back into a query string, omitting All.
func FilterQuery(f report.Filters) string {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" && val != core.All {
			v.Set(k, val)
		}
	}
	set(paramClient, f.Client)
	set(paramContractType, f.ContractType)
	set(paramMonth, f.Month)
	set(paramStatus, f.Status)
	return v.Encode()
}

// ParseMulti returns the non-empty values of a repeated parameter, in order
// and without duplicates. Comma-separated values are split too.
func ParseMulti(query url.Values, key string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, raw := range query[key] {
		for _, v := range strings.Split(raw, ",") {
			v = sanitizeInput(v)
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// SelectionParams is the CUPS/month choice of the client detail panel.
type SelectionParams struct {
	CUPS   []string
	Months []string
}

// ParseSelection reads the CUPS and month multi-selects.
func ParseSelection(query url.Values) SelectionParams {
	return SelectionParams{
		CUPS:   ParseMulti(query, paramCUPS),
		Months: ParseMulti(query, paramMonths),
	}
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once, up to maxBodyBytes, and stores it for subsequent
// parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// GetRaw returns a value without sanitizing or trimming it. Passwords go
// through here.
func (p *RequestBodyParser) GetRaw(key string) string {
	if p.jsonData != nil {
		return stringValue(p.jsonData[key])
	}
	if p.formData != nil {
		return p.formData.Get(key)
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts an interface{} to string.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
