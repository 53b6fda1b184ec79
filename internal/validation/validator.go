// Package validation checks form fields against the contest form's format
// policy before anything is stored.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// User-facing messages for each rejected field
const (
	msgInvalidName    = "Please enter a valid name (letters, spaces, hyphens, apostrophes only)"
	msgInvalidCompany = "Please enter a valid company name"
	msgInvalidEmail   = "Please enter a valid email address"
	msgInvalidPhone   = "Please enter a valid phone number"
)

// emailMaxLength is a hard cap, not configurable
const emailMaxLength = 254

var (
	namePattern    = regexp.MustCompile(`^[a-zA-Z\s\-'.]+$`)
	companyPattern = regexp.MustCompile(`^[a-zA-Z0-9\s\-'.&,]+$`)
	phonePattern   = regexp.MustCompile(`^[0-9\s\-().+]+$`)
	emailUnsafe    = regexp.MustCompile(`[<>\r\n]`)
)

// Error reports a rejected field with its user-facing message. It is always
// safe to show to the client.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// FormValidator validates the four submission fields with length limits
// taken from configuration.
type FormValidator struct {
	validate     *validator.Validate
	nameRules    string
	companyRules string
	emailRules   string
	phoneRules   string
}

// New builds a FormValidator with the given max field lengths
func New(maxNameLength, maxCompanyLength, maxPhoneLength int) (*FormValidator, error) {
	v := validator.New()

	custom := map[string]func(string) bool{
		"person_name":  namePattern.MatchString,
		"company_name": companyPattern.MatchString,
		"phone_chars":  phonePattern.MatchString,
		"clean_email":  func(s string) bool { return !emailUnsafe.MatchString(s) },
	}
	for tag, match := range custom {
		match := match
		err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return match(fl.Field().String())
		})
		if err != nil {
			return nil, fmt.Errorf("register validation %q: %w", tag, err)
		}
	}

	return &FormValidator{
		validate:     v,
		nameRules:    fmt.Sprintf("required,max=%d,person_name", maxNameLength),
		companyRules: fmt.Sprintf("required,max=%d,company_name", maxCompanyLength),
		emailRules:   fmt.Sprintf("required,max=%d,email,clean_email", emailMaxLength),
		phoneRules:   fmt.Sprintf("required,max=%d,phone_chars", maxPhoneLength),
	}, nil
}

// Validate checks all four fields in order and returns an *Error for the
// first one that fails. Fields are trimmed before matching; the stored
// values are produced separately by sanitization.
func (fv *FormValidator) Validate(name, company, email, phone string) error {
	if err := fv.validate.Var(strings.TrimSpace(name), fv.nameRules); err != nil {
		return &Error{Field: "name", Message: msgInvalidName}
	}
	if err := fv.validate.Var(strings.TrimSpace(company), fv.companyRules); err != nil {
		return &Error{Field: "company", Message: msgInvalidCompany}
	}
	if err := fv.validate.Var(strings.TrimSpace(email), fv.emailRules); err != nil {
		return &Error{Field: "email", Message: msgInvalidEmail}
	}
	if err := fv.validate.Var(strings.TrimSpace(phone), fv.phoneRules); err != nil {
		return &Error{Field: "phone", Message: msgInvalidPhone}
	}
	return nil
}
