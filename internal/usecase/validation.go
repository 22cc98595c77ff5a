package usecase

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/xavierca1/ligue-growth/internal/entity"
)

// DefaultPhoneRegion is used when a number arrives without a country code.
const DefaultPhoneRegion = "BR"

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NormalizePhone returns the E.164 form of raw. WhatsApp sends numbers
// without the leading plus, so a bare digit string is tried as international
// first.
func NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty phone")
	}

	candidates := []string{raw}
	if !strings.HasPrefix(raw, "+") {
		candidates = []string{"+" + raw, raw}
	}

	for _, c := range candidates {
		num, err := phonenumbers.Parse(c, DefaultPhoneRegion)
		if err != nil || !phonenumbers.IsValidNumber(num) {
			continue
		}
		return phonenumbers.Format(num, phonenumbers.E164), nil
	}
	return "", fmt.Errorf("invalid phone number %q", raw)
}

func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func ValidateCaptureLeadInput(input CaptureLeadInput) []ValidationError {
	var errors []ValidationError

	if !input.Source.Valid() {
		errors = append(errors, ValidationError{"source", "is invalid"})
	}

	email := strings.TrimSpace(input.Email)
	phone := strings.TrimSpace(input.Phone)
	if email == "" && phone == "" {
		errors = append(errors, ValidationError{"contact", "email or phone is required"})
	}
	if email != "" && !isValidEmail(strings.ToLower(email)) {
		errors = append(errors, ValidationError{"email", "is invalid"})
	}
	if phone != "" {
		if _, err := NormalizePhone(phone); err != nil {
			errors = append(errors, ValidationError{"phone", "must be a valid phone number"})
		}
	}
	if len(input.Name) > 200 {
		errors = append(errors, ValidationError{"name", "must not exceed 200 characters"})
	}

	if input.Source.Valid() {
		if err := input.Form.Validate(input.Source); err != nil {
			errors = append(errors, ValidationError{"form", err.Error()})
		}
	}

	return errors
}

// requiresEmailForQualification decides whether a chat session needs an
// e-mail before it can be qualified. Organic sessions follow the same rule
// as ad sessions.
func requiresEmailForQualification(source entity.LeadSource) bool {
	return source == entity.LeadSourceWhatsAppAd || source == entity.LeadSourceWhatsAppOrganic
}

func ValidateContactInfo(source entity.LeadSource, info ContactInfo) []ValidationError {
	var errors []ValidationError

	email := strings.TrimSpace(info.Email)
	if email == "" {
		if requiresEmailForQualification(source) {
			errors = append(errors, ValidationError{"email", "is required"})
		}
	} else if !isValidEmail(strings.ToLower(email)) {
		errors = append(errors, ValidationError{"email", "is invalid"})
	}

	if len(info.Name) > 200 {
		errors = append(errors, ValidationError{"name", "must not exceed 200 characters"})
	}
	return errors
}

func ValidateAmount(amount *float64) []ValidationError {
	if amount != nil && *amount < 0 {
		return []ValidationError{{"amount", "must not be negative"}}
	}
	return nil
}

func toError(errs []ValidationError) error {
	if len(errs) == 0 {
		return nil
	}
	return ValidationErrors(errs)
}
