package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"recipebox/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Price bounds of the decimal(6,2) column.
const (
	priceMaxPlaces = 2
	priceMaxDigits = 6
)

var priceLimit = decimal.New(1, priceMaxDigits-priceMaxPlaces)

func init() {
	// Form bodies reach decimal fields through Fiber's schema decoder.
	fiber.SetParserDecoder(fiber.ParserConfig{
		IgnoreUnknownKeys: true,
		ZeroEmpty:         true,
		ParserType: []fiber.ParserType{{
			Customtype: decimal.Decimal{},
			Converter: func(value string) reflect.Value {
				d, err := decimal.NewFromString(value)
				if err != nil {
					return reflect.Value{}
				}
				return reflect.ValueOf(d)
			},
		}},
	})
}

// newValidator returns a validator reporting JSON field names and knowing the price rule.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	if err := v.RegisterValidation("price", validatePrice); err != nil {
		panic(err)
	}
	return v
}

// validatePrice accepts at most two decimal places and four integer digits.
func validatePrice(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	if !d.Equal(d.Truncate(priceMaxPlaces)) {
		return false
	}
	return d.Abs().LessThan(priceLimit)
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", e.Param())
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", e.Param())
	case "price":
		return fmt.Sprintf("Ensure that there are no more than %d digits in total and %d decimal places.", priceMaxDigits, priceMaxPlaces)
	default:
		return fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
}

// fieldErrors maps JSON field names to validation messages.
type fieldErrors map[string]string

func (f fieldErrors) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(f))
}

// bodyError reports a request body that could not be parsed.
type bodyError struct {
	err error
}

func (e *bodyError) Error() string {
	return e.err.Error()
}

// bind parses the request body into req and validates it.
func bind(c *fiber.Ctx, v *validator.Validate, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return &bodyError{err: err}
	}

	if err := v.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return err
		}
		errorMessages := make(fieldErrors, len(validationErrors))
		for _, e := range validationErrors {
			errorMessages[e.Field()] = validationMessage(e)
		}
		return errorMessages
	}
	return nil
}

func validationFailed(c *fiber.Ctx, errorMessages map[string]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}

// respondError maps a service error to its HTTP response.
func respondError(c *fiber.Ctx, err error) error {
	var (
		verr   *services.ValidationError
		fields fieldErrors
		berr   *bodyError
	)
	switch {
	case errors.As(err, &berr):
		logrus.WithFields(logrus.Fields{
			"path":  c.Path(),
			"error": berr.Error(),
		}).Debug("Error parsing request body")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   berr.Error(),
		})
	case errors.As(err, &fields):
		return validationFailed(c, fields)
	case errors.As(err, &verr):
		return validationFailed(c, map[string]string{verr.Field: verr.Message})
	case errors.Is(err, services.ErrEmailTaken):
		return validationFailed(c, map[string]string{"email": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		return validationFailed(c, map[string]string{"non_field_errors": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Not found."})
	}

	logrus.WithFields(logrus.Fields{
		"method": c.Method(),
		"path":   c.Path(),
		"error":  err.Error(),
	}).Error("Request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Internal server error",
	})
}

// ErrorHandler renders errors escaping the handlers as JSON.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	} else {
		logrus.WithFields(logrus.Fields{
			"method": c.Method(),
			"path":   c.Path(),
			"error":  err.Error(),
		}).Error("Unhandled error")
	}
	return c.Status(code).JSON(fiber.Map{"message": message})
}
