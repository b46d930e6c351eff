package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Policy carries the tunable credential rules.
type Policy struct {
	MinNameLength     int
	MinPasswordLength int
}

// DefaultPolicy matches the product defaults: 2 character names, 8 character passwords.
var DefaultPolicy = Policy{MinNameLength: 2, MinPasswordLength: 8}

func (p Policy) normalized() Policy {
	if p.MinNameLength <= 0 {
		p.MinNameLength = DefaultPolicy.MinNameLength
	}
	if p.MinPasswordLength <= 0 {
		p.MinPasswordLength = DefaultPolicy.MinPasswordLength
	}
	return p
}

// New returns a validator with JSON field names and the policy aliases:
//   - name: trimmed display name, at least MinNameLength characters
//   - pwd:  password, at least MinPasswordLength characters
//   - otp:  exactly 6 digits
func New(p Policy) *validator.Validate {
	v := validator.New()
	configure(v, p.normalized())
	return v
}

// Init configures the global validator used by Gin's binding.
func Init(p Policy) {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		configure(v, p.normalized())
	}
}

func configure(v *validator.Validate, p Policy) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	v.RegisterAlias("name", "min="+strconv.Itoa(p.MinNameLength))
	v.RegisterAlias("pwd", "min="+strconv.Itoa(p.MinPasswordLength))
	v.RegisterAlias("otp", "len=6,number")
	v.RegisterAlias("phone", "max=32")
}

// ToDetails converts validation/binding errors into a map[field]message suitable for API error.details.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	// Invalid JSON payloads
	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	// Fallback
	return map[string]string{"payload": "invalid payload"}
}

func formatFieldError(fe validator.FieldError) string {
	param := fe.Param()

	// Aliases first; ActualTag holds the expanded rule that failed.
	switch fe.Tag() {
	case "name", "pwd":
		return "must be at least " + param + " characters long"
	case "otp":
		return "must be a 6-digit code"
	case "phone":
		return "must be at most " + param + " characters long"
	}

	switch fe.ActualTag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "len":
		if param != "" {
			return fmt.Sprintf("must be exactly %s characters long", param)
		}
		return "invalid length"
	case "min":
		if param != "" {
			if isNumberKind(fe.Kind()) {
				return "must be at least " + param
			}
			return "must be at least " + param + " characters long"
		}
		return "too small"
	case "max":
		if param != "" {
			if isNumberKind(fe.Kind()) {
				return "must be at most " + param
			}
			return "must be at most " + param + " characters long"
		}
		return "too large"
	case "lt":
		return "must be less than " + param
	case "lte":
		return "must be less than or equal to " + param
	case "gt":
		return "must be greater than " + param
	case "gte":
		return "must be greater than or equal to " + param
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	case "numeric":
		return "must be numeric"
	case "latitude":
		return "must be a valid latitude"
	case "longitude":
		return "must be a valid longitude"
	case "dive":
		return "contains an invalid item"
	default:
		if param != "" {
			return fmt.Sprintf("validation failed for '%s' with parameter '%s'", fe.Tag(), param)
		}
		return fmt.Sprintf("validation failed for '%s'", fe.Tag())
	}
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
