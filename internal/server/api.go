package server

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kivisai/site/pkg/brevo"
	"github.com/kivisai/site/pkg/evalkit"
	"github.com/kivisai/site/pkg/forms"
)

type newsletterRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	Source    string `json:"source"`
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Message string `json:"message"`
}

type evalkitRequest struct {
	Answers map[string]int `json:"answers"`
	Email   string         `json:"email"`
}

// validated reads the body and checks it against the operation's schema. It
// writes the error response and returns false when the payload is rejected.
func (s *Server) validated(w http.ResponseWriter, r *http.Request, operation, intGroup string, out any) bool {
	payload, err := readPayload(w, r, intGroup)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errUnsupportedMedia) {
			status = http.StatusUnsupportedMediaType
		}
		writeError(w, r, status, "bad_request", err.Error())
		return false
	}

	if err := s.validator.Validate(r.Context(), operation, payload); err != nil {
		var verr *forms.ValidationError
		if errors.As(err, &verr) {
			writeError(w, r, http.StatusUnprocessableEntity, "invalid_payload", "payload failed validation",
				map[string]any{"fields": verr.Fields()})
			return false
		}
		s.logger.Error("validate payload", zap.String("operation", operation), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal_server_error", "payload could not be validated")
		return false
	}

	if err := decodeInto(payload, out); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return false
	}
	return true
}

func (s *Server) subscribeNewsletter(w http.ResponseWriter, r *http.Request) {
	var req newsletterRequest
	if !s.validated(w, r, forms.OperationNewsletter, "", &req) {
		return
	}
	if req.Source == "" {
		req.Source = "landing"
	}

	existing := false
	if s.mailer != nil {
		attrs := map[string]any{"SOURCE": req.Source}
		if req.FirstName != "" {
			attrs["FIRSTNAME"] = req.FirstName
		}
		result, err := s.mailer.Subscribe(r.Context(), req.Email, s.listIDs, attrs)
		if err != nil {
			s.deliveryFailed(w, r, "newsletter", err)
			return
		}
		existing = result.Existing
	} else {
		s.logger.Info("newsletter signup not forwarded", zap.String("source", req.Source))
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"status": "subscribed", "existing": existing})
}

func (s *Server) submitContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if !s.validated(w, r, forms.OperationContact, "", &req) {
		return
	}

	reference := ""
	if s.mailer != nil {
		ref, err := s.mailer.SubmitContact(r.Context(), brevo.ContactRequest{
			Name:    req.Name,
			Email:   req.Email,
			Company: req.Company,
			Message: req.Message,
		})
		if err != nil {
			s.deliveryFailed(w, r, "contact", err)
			return
		}
		reference = ref
	} else {
		s.logger.Info("contact request not forwarded", zap.Int("message_length", len(req.Message)))
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"status": "received", "reference": reference})
}

func (s *Server) evalkitQuestionList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"questions": s.kit.Questions(),
		"scale":     map[string]int{"min": evalkit.MinAnswer, "max": evalkit.MaxAnswer},
	})
}

func (s *Server) scoreEvalkit(w http.ResponseWriter, r *http.Request) {
	var req evalkitRequest
	if !s.validated(w, r, forms.OperationEvalkit, "answers", &req) {
		return
	}

	result, err := s.kit.Score(req.Answers)
	if err != nil {
		switch {
		case errors.Is(err, evalkit.ErrUnknownQuestion),
			errors.Is(err, evalkit.ErrAnswerOutOfRange),
			errors.Is(err, evalkit.ErrIncomplete):
			writeError(w, r, http.StatusUnprocessableEntity, "invalid_answers", err.Error())
		default:
			s.logger.Error("score evalkit", zap.Error(err))
			writeError(w, r, http.StatusInternalServerError, "internal_server_error", "answers could not be scored")
		}
		return
	}

	if req.Email != "" && s.mailer != nil {
		attrs := map[string]any{"SOURCE": "evalkit", "EVALKIT_LEVEL": string(result.Level)}
		if _, err := s.mailer.Subscribe(r.Context(), req.Email, s.listIDs, attrs); err != nil {
			s.logger.Warn("evalkit follow-up signup failed", zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) openAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(forms.Document())
}

func (s *Server) deliveryFailed(w http.ResponseWriter, r *http.Request, form string, err error) {
	fields := []zap.Field{zap.String("form", form), zap.Error(err)}
	var apiErr *brevo.APIError
	if errors.As(err, &apiErr) {
		fields = append(fields, zap.Int("provider_status", apiErr.Status), zap.String("provider_code", apiErr.Code))
	}
	s.logger.Error("form delivery failed", fields...)
	writeError(w, r, http.StatusBadGateway, "delivery_failed", "submission could not be delivered, please try again later")
}
