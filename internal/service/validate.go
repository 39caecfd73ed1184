package service

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// validateDTO checks the same `binding` tags gin evaluates, so callers that do
// not come through gin get identical rules.
func validateDTO(dto interface{}) error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.SetTagName("binding")
	})
	if err := validate.Struct(dto); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	return nil
}

func parseID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, invalidf("invalid %s", field)
	}
	return id, nil
}

func parseAmount(raw, field string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, invalidf("invalid %s: %s", field, raw)
	}
	if d.IsNegative() {
		return decimal.Zero, invalidf("%s must not be negative", field)
	}
	return d, nil
}
