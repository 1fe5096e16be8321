package application

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// LoginForm holds the login inputs.
type LoginForm struct {
	OfficeID string `form:"office_id" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// RegistrationForm holds the registration inputs. The location is captured
// separately through CaptureRegistrationLocation.
type RegistrationForm struct {
	OfficeID string `form:"office_id" validate:"required"`
	Password string `form:"password" validate:"required"`
	Email    string `form:"email" validate:"omitempty,email"`
}

// LateRequestForm holds the justification for a late check-in.
type LateRequestForm struct {
	Reason string `form:"reason" validate:"required"`
}

// RejectionForm holds the optional comment attached to a rejection.
type RejectionForm struct {
	Comment string `form:"comment" validate:"max=1000"`
}

var formMessages = map[string]string{
	"office_id.required": "Office ID is required",
	"password.required":  "Password is required",
	"email.email":        "Enter a valid email address",
	"reason.required":    "Please enter a reason",
	"comment.max":        "Comment is too long",
}

// validateForm runs struct validation and converts failures into a
// ValidationError keyed by form field name. It returns nil when form is valid.
func validateForm(form any) *ValidationError {
	err := formValidator.Struct(form)
	if err == nil {
		return nil
	}

	vErr := &ValidationError{}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		vErr.add("form", "Invalid input")
		return vErr
	}
	for _, fe := range fieldErrs {
		key := fe.Field() + "." + fe.Tag()
		message, ok := formMessages[key]
		if !ok {
			message = fmt.Sprintf("%s is invalid", fe.Field())
		}
		vErr.add(fe.Field(), message)
	}
	return vErr
}

func (f LoginForm) normalized() LoginForm {
	f.OfficeID = strings.TrimSpace(f.OfficeID)
	return f
}

func (f RegistrationForm) normalized() RegistrationForm {
	f.OfficeID = strings.TrimSpace(f.OfficeID)
	f.Email = strings.TrimSpace(f.Email)
	return f
}

func (f LateRequestForm) normalized() LateRequestForm {
	f.Reason = strings.TrimSpace(f.Reason)
	return f
}

func (f RejectionForm) normalized() RejectionForm {
	f.Comment = strings.TrimSpace(f.Comment)
	return f
}
