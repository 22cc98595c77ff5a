package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/xavierca1/ligue-growth/internal/checkout"
	"github.com/xavierca1/ligue-growth/internal/entity"
	"github.com/xavierca1/ligue-growth/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-growth/internal/usecase"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type ErrorResponse struct {
	Error   string             `json:"error"`
	Message string             `json:"message"`
	Fields  []FieldError       `json:"fields,omitempty"`
	State   *checkout.Snapshot `json:"checkout,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// decodeAndValidate reads a JSON body into dst and runs the struct tags.
func decodeAndValidate(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &usecase.DomainError{Code: "INVALID_JSON", Message: "JSON inválido"}
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			out := make(usecase.ValidationErrors, 0, len(verrs))
			for _, fe := range verrs {
				out = append(out, usecase.ValidationError{Field: fe.Field(), Message: describeTag(fe)})
			}
			return out
		}
		return err
	}
	return nil
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "oneof":
		return "must be one of " + fe.Param()
	case "gte", "min":
		return "must be at least " + fe.Param()
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}

// classify maps a use case error to its HTTP status and response body.
func classify(err error) (int, ErrorResponse) {
	var (
		verrs     usecase.ValidationErrors
		verr      usecase.ValidationError
		transErr  *usecase.TransitionError
		gwErr     *usecase.GatewayUnavailableError
		verifyErr *usecase.VerificationError
		netErr    *usecase.NetworkError
		nfErr     *usecase.NotFoundError
		domErr    *usecase.DomainError
		techErr   *usecase.TechnicalError
	)

	switch {
	case errors.As(err, &verrs):
		resp := ErrorResponse{Error: "VALIDATION_ERROR", Message: "Dados inválidos"}
		for _, e := range verrs {
			resp.Fields = append(resp.Fields, FieldError{Field: e.Field, Message: e.Message})
		}
		return http.StatusUnprocessableEntity, resp
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "VALIDATION_ERROR",
			Message: "Dados inválidos",
			Fields:  []FieldError{{Field: verr.Field, Message: verr.Message}},
		}
	case errors.As(err, &transErr):
		return http.StatusConflict, ErrorResponse{Error: "INVALID_TRANSITION", Message: transErr.Error()}
	case errors.Is(err, usecase.ErrCheckoutInProgress):
		return http.StatusConflict, ErrorResponse{Error: "CHECKOUT_IN_PROGRESS", Message: err.Error()}
	case errors.Is(err, checkout.ErrStaleCapture):
		return http.StatusConflict, ErrorResponse{Error: "STALE_CAPTURE", Message: err.Error()}
	case errors.Is(err, checkout.ErrNoPendingOrder):
		return http.StatusConflict, ErrorResponse{Error: "NO_PENDING_ORDER", Message: err.Error()}
	case errors.As(err, &gwErr):
		middleware.RecordIntegrationError("razorpay")
		return http.StatusServiceUnavailable, ErrorResponse{Error: "GATEWAY_UNAVAILABLE", Message: "Gateway de pagamento indisponível, tente novamente"}
	case errors.As(err, &verifyErr):
		return http.StatusPaymentRequired, ErrorResponse{Error: "VERIFICATION_FAILED", Message: verifyErr.Reason}
	case errors.As(err, &netErr):
		middleware.RecordIntegrationError(netErr.Op)
		log.Printf("❌ [NETWORK] %v", err)
		return http.StatusBadGateway, ErrorResponse{Error: "NETWORK_ERROR", Message: "Falha ao contatar serviço externo, tente novamente"}
	case errors.As(err, &nfErr):
		return http.StatusNotFound, ErrorResponse{Error: "NOT_FOUND", Message: nfErr.Error()}
	case errors.Is(err, entity.ErrNotFound), errors.Is(err, entity.ErrOrderNotFound),
		errors.Is(err, entity.ErrPlanNotFound), errors.Is(err, entity.ErrCouponNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "NOT_FOUND", Message: err.Error()}
	case errors.As(err, &domErr):
		return http.StatusBadRequest, ErrorResponse{Error: domErr.Code, Message: domErr.Message}
	case errors.As(err, &techErr):
		log.Printf("❌ [%s] %v", techErr.Code, err)
		return http.StatusInternalServerError, ErrorResponse{Error: techErr.Code, Message: techErr.Message}
	}

	log.Printf("❌ Erro inesperado: %v", err)
	return http.StatusInternalServerError, ErrorResponse{Error: "INTERNAL_ERROR", Message: "Erro interno"}
}

func writeError(w http.ResponseWriter, err error) {
	status, resp := classify(err)
	writeJSON(w, status, resp)
}
