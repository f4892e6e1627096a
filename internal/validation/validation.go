// Package validation implements the per-field predicate checks applied before
// every catalog or user write. Failures are collected per field so a caller
// sees every violation at once.
package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	apperrors "catalog/internal/errors"
)

// Limits shared by handlers, services and tests.
const (
	ProductNameMin        = 3
	ProductNameMax        = 200
	ProductDescriptionMin = 10
	StockMax              = 999999
	PriceDecimalPlaces    = 2
	CategoryNameMax       = 100
	UsernameMin           = 3
	UsernameMax           = 150
	PersonNameMax         = 150
	EmailMax              = 254
)

// PriceMax is the highest accepted product price.
var PriceMax = decimal.RequireFromString("999999.99")

const msgRequired = "This field is required."

var validate = validator.New()

// Checker accumulates field errors.
type Checker struct {
	errs *apperrors.ValidationError
}

// New returns an empty Checker.
func New() *Checker {
	return &Checker{errs: apperrors.NewValidationError()}
}

// Fail records msg against field.
func (c *Checker) Fail(field, msg string) {
	c.errs.Add(field, msg)
}

// Failed reports whether field already has an error.
func (c *Checker) Failed(field string) bool {
	return c.errs.Has(field)
}

// Merge copies the failures of another ValidationError.
func (c *Checker) Merge(v *apperrors.ValidationError) {
	c.errs.Merge(v)
}

// Err returns the collected failures, or nil.
func (c *Checker) Err() error {
	return c.errs.OrNil()
}

// Required records a "required" failure.
func (c *Checker) Required(field string) {
	c.Fail(field, msgRequired)
}

// Var runs validator rules against value and records one message per failing rule.
func (c *Checker) Var(field string, value interface{}, rules string) {
	for _, rule := range strings.Split(rules, ",") {
		if err := validate.Var(value, rule); err != nil {
			verrs, ok := err.(validator.ValidationErrors)
			if !ok {
				c.Fail(field, "Invalid value.")
				continue
			}
			for _, fe := range verrs {
				c.Fail(field, message(fe))
			}
		}
	}
}

func message(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "min":
		if isString {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "lte":
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "gt":
		return fmt.Sprintf("Ensure this value is greater than %s.", fe.Param())
	case "email":
		return "Enter a valid email address."
	default:
		return fmt.Sprintf("Failed on the '%s' rule.", fe.Tag())
	}
}

// Price checks the exclusive lower bound, the upper bound and the scale.
func (c *Checker) Price(field string, price decimal.Decimal) {
	if price.LessThanOrEqual(decimal.Zero) {
		c.Fail(field, "Ensure this value is greater than 0.")
	}
	if price.GreaterThan(PriceMax) {
		c.Fail(field, "Ensure this value is less than or equal to "+PriceMax.StringFixed(2)+".")
	}
	if !price.Equal(price.Truncate(PriceDecimalPlaces)) {
		c.Fail(field, fmt.Sprintf("Ensure that there are no more than %d decimal places.", PriceDecimalPlaces))
	}
}
