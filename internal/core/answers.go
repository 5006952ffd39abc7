package core

import (
	"errors"
	"fmt"
	"slices"

	"vyap-onboarding-go/internal/models"
)

// ErrFieldValue is returned when a value does not fit the shape of its field
// (a set for a single-valued field or the reverse).
var ErrFieldValue = errors.New("value does not match field type")

// FieldValue carries either a single text value or a set, depending on the field.
type FieldValue struct {
	Text string
	Set  []string
}

// TextValue wraps a single-valued answer.
func TextValue(s string) FieldValue { return FieldValue{Text: s} }

// SetValue wraps a multi-select answer.
func SetValue(values ...string) FieldValue { return FieldValue{Set: values} }

// ApplyField merges one field into a copy of a. It never validates the value; validity
// is a separate predicate.
func ApplyField(a models.OnboardingAnswers, field models.FieldKey, v FieldValue) (models.OnboardingAnswers, error) {
	out := a.Clone()
	if field.IsMultiSelect() {
		if v.Text != "" {
			return a, fmt.Errorf("%w: %s takes a set", ErrFieldValue, field)
		}
		out.SellingChannels = dedupe(v.Set)
		return out, nil
	}
	if len(v.Set) > 0 {
		return a, fmt.Errorf("%w: %s takes a single value", ErrFieldValue, field)
	}

	switch field {
	case models.FieldShopName:
		out.ShopName = v.Text
	case models.FieldBusinessType:
		out.BusinessType = v.Text
	case models.FieldLocationCity:
		out.LocationCity = v.Text
	case models.FieldInventorySize:
		out.InventorySize = v.Text
	case models.FieldPrimaryGoal:
		out.PrimaryGoal = v.Text
	default:
		return a, fmt.Errorf("%w: %s is not an answer field", ErrFieldValue, field)
	}
	return out, nil
}

// OnlyField returns answers holding just field's value from a, so a patch built from it
// names a single `onboarding.<field>` path.
func OnlyField(a models.OnboardingAnswers, field models.FieldKey) models.OnboardingAnswers {
	var out models.OnboardingAnswers
	switch field {
	case models.FieldShopName:
		out.ShopName = a.ShopName
	case models.FieldBusinessType:
		out.BusinessType = a.BusinessType
	case models.FieldLocationCity:
		out.LocationCity = a.LocationCity
	case models.FieldSellingChannels:
		out.SellingChannels = slices.Clone(a.SellingChannels)
	case models.FieldInventorySize:
		out.InventorySize = a.InventorySize
	case models.FieldPrimaryGoal:
		out.PrimaryGoal = a.PrimaryGoal
	}
	return out
}

// ToggleChannel adds v to set when absent and removes it when present. The input is
// not modified.
func ToggleChannel(set []string, v string) []string {
	if i := slices.Index(set, v); i >= 0 {
		return slices.Delete(slices.Clone(set), i, i+1)
	}
	return append(slices.Clone(set), v)
}

func dedupe(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
