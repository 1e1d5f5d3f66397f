package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

var errUnsupportedMedia = errors.New("unsupported content type")

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

// writeError writes the JSON error envelope. details are merged into the
// top-level object.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details ...map[string]any) {
	payload := map[string]any{
		"error":   code,
		"message": message,
		"status":  status,
	}
	if id := middleware.GetReqID(r.Context()); id != "" {
		payload["request_id"] = id
	}
	for _, extra := range details {
		for k, v := range extra {
			payload[k] = v
		}
	}
	writeJSON(w, status, payload)
}

// readPayload decodes a JSON or form-encoded request body into a generic
// value suitable for schema validation. Form fields become strings. When
// intGroup is set, numeric form fields are collected as numbers under that
// key instead.
func readPayload(w http.ResponseWriter, r *http.Request, intGroup string) (map[string]any, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType := "application/json"
	if ct := r.Header.Get("Content-Type"); ct != "" {
		parsed, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", errUnsupportedMedia, ct)
		}
		mediaType = parsed
	}

	switch mediaType {
	case "application/json":
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		var payload map[string]any
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		if payload == nil {
			payload = map[string]any{}
		}
		return payload, nil
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("decode form: %w", err)
		}
		return formPayload(r.PostForm, intGroup), nil
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedMedia, mediaType)
	}
}

func formPayload(values url.Values, intGroup string) map[string]any {
	payload := make(map[string]any, len(values))
	var group map[string]any
	if intGroup != "" {
		group = map[string]any{}
	}
	for key, list := range values {
		if len(list) == 0 {
			continue
		}
		value := strings.TrimSpace(list[0])
		if group != nil {
			if n, err := strconv.Atoi(value); err == nil && key != "email" {
				group[key] = float64(n)
				continue
			}
		}
		if key == "consent" {
			payload[key] = value == "on" || value == "true" || value == "1"
			continue
		}
		payload[key] = value
	}
	if group != nil {
		payload[intGroup] = group
	}
	return payload
}

// decodeInto copies a validated payload into a typed struct.
func decodeInto(payload map[string]any, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
