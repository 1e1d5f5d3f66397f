package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kivisai/site/pkg/composer"
	"github.com/kivisai/site/pkg/pipeline"
)

var errUnknownOperation = errors.New("unknown compose operation")

// composeOperation is one step of a compose request:
//
//	{"op": "add", "section": {...}}
//	{"op": "remove", "id": "faq"}
//	{"op": "update", "id": "hero", "props": {...}}
//	{"op": "replace", "id": "hero", "section": {...}}
//	{"op": "responsive", "breakpoint": "mobile"}
type composeOperation struct {
	Op         string              `json:"op"`
	ID         string              `json:"id,omitempty"`
	Section    *composer.Section   `json:"section,omitempty"`
	Props      composer.Props      `json:"props,omitempty"`
	Breakpoint composer.Breakpoint `json:"breakpoint,omitempty"`
}

type composeRequest struct {
	Operations []composeOperation `json:"operations"`
}

type composeResponse struct {
	Validation composer.ValidationResult `json:"validation"`
	Page       composer.Template         `json:"page"`
}

func (s *Server) listTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"templates": s.pipeline.Templates().List(),
		"presets":   s.pipeline.Presets().Names(),
		"renderers": s.pipeline.Renderers().List(),
	})
}

func (s *Server) showTemplate(w http.ResponseWriter, r *http.Request) {
	result, err := s.pipeline.Build(r.Context(), pipeline.Request{TemplateID: chi.URLParam(r, "id")})
	if err != nil && !errors.Is(err, pipeline.ErrInvalidPage) {
		s.writeComposeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, composeResponse{Validation: result.Validation, Page: result.Page})
}

func (s *Server) composeTemplate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req composeRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", fmt.Sprintf("decode compose request: %v", err))
		return
	}

	result, err := s.pipeline.Build(r.Context(), pipeline.Request{
		TemplateID: chi.URLParam(r, "id"),
		Compose: func(b *composer.Builder) error {
			for idx, op := range req.Operations {
				if err := applyOperation(b, op); err != nil {
					return fmt.Errorf("operation %d (%s): %w", idx, op.Op, err)
				}
			}
			return nil
		},
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, composeResponse{Validation: result.Validation, Page: result.Page})
	case errors.Is(err, pipeline.ErrInvalidPage):
		writeJSON(w, http.StatusUnprocessableEntity, composeResponse{Validation: result.Validation, Page: result.Page})
	default:
		s.writeComposeError(w, r, err)
	}
}

func applyOperation(b *composer.Builder, op composeOperation) error {
	switch strings.ToLower(op.Op) {
	case "add":
		if op.Section == nil {
			return fmt.Errorf("%w: section is required", composer.ErrInvalidSection)
		}
		return b.AddSection(*op.Section)
	case "remove":
		return b.RemoveSection(op.ID)
	case "update":
		return b.UpdateSection(op.ID, op.Props)
	case "replace":
		if op.Section == nil {
			return fmt.Errorf("%w: section is required", composer.ErrInvalidSection)
		}
		return b.ReplaceSection(op.ID, *op.Section)
	case "responsive":
		switch op.Breakpoint {
		case composer.BreakpointMobile, composer.BreakpointTablet:
			b.ApplyResponsiveRules(op.Breakpoint)
			return nil
		case "":
			return fmt.Errorf("%w: breakpoint is required", errUnknownOperation)
		default:
			return fmt.Errorf("%w: breakpoint %q must be mobile or tablet", errUnknownOperation, op.Breakpoint)
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownOperation, op.Op)
	}
}

// writeComposeError maps composer failures to client errors.
func (s *Server) writeComposeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, composer.ErrTemplateNotFound), errors.Is(err, composer.ErrSectionNotFound):
		writeError(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, composer.ErrRequiredSection),
		errors.Is(err, composer.ErrLimitExceeded),
		errors.Is(err, composer.ErrIncompatibleComponent):
		writeError(w, r, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, composer.ErrInvalidSection), errors.Is(err, errUnknownOperation):
		writeError(w, r, http.StatusBadRequest, "bad_request", err.Error())
	default:
		s.writePipelineError(w, r, err)
	}
}
