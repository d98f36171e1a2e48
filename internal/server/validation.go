package server

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	organizationdomain "github.com/smallbiznis/taskflow/internal/organization/domain"
)

const passwordSpecials = "@$!%*?&"

var (
	validatorsOnce sync.Once
	validatorsErr  error
)

// registerValidators installs the custom rules on gin's binding validator.
func registerValidators() error {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			validatorsErr = errors.New("unexpected binding validator engine")
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		if err := v.RegisterValidation("password_complexity", passwordComplexity); err != nil {
			validatorsErr = err
			return
		}
		if err := v.RegisterValidation("invite_role", inviteRole); err != nil {
			validatorsErr = err
			return
		}
		validatorsErr = v.RegisterValidation("hex_token", hexToken)
	})
	return validatorsErr
}

func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

// passwordComplexity is the registration password rule. Only ASCII letters
// and digits count.
func passwordComplexity(fl validator.FieldLevel) bool {
	var upper, digit, special bool
	for _, r := range fl.Field().String() {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	return upper && digit && special
}

// inviteRole accepts MEMBER or ADMIN in any case.
func inviteRole(fl validator.FieldLevel) bool {
	role, ok := organizationdomain.NormalizeRole(fl.Field().String())
	return ok && role != organizationdomain.RoleOwner
}

// hexToken accepts lowercase hex digits only, as produced by the token
// generator.
func hexToken(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	if raw == "" {
		return false
	}
	for _, r := range raw {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

// bindingError converts a binding failure into the public validation shape.
func bindingError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return invalidRequestError()
	}

	out := &ValidationErrors{Errors: make([]ValidationError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Errors = append(out.Errors, ValidationError{
			Field:   fe.Field(),
			Code:    fe.Tag(),
			Message: validationMessage(fe),
		})
	}
	return out
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "len":
		return fe.Field() + " must be exactly " + fe.Param() + " characters"
	case "hex_token":
		return fe.Field() + " must be lowercase hexadecimal"
	case "password_complexity":
		return "password must contain an uppercase letter, a digit and one of " + passwordSpecials
	case "invite_role":
		return "role must be one of " + invitationRoles()
	default:
		return "invalid value"
	}
}

func invitationRoles() string {
	return organizationdomain.RoleMember + ", " + organizationdomain.RoleAdmin
}
