package models

// AnswerFieldRequest is the body of POST /onboarding/wizard/answer.
// Value carries single-valued fields, Values the selling channel set.
type AnswerFieldRequest struct {
	Field  FieldKey `json:"field" binding:"required,onboarding_field"`
	Value  string   `json:"value,omitempty"`
	Values []string `json:"values,omitempty" binding:"omitempty,dive,selling_channel"`
}

// ToggleRequest toggles one selling channel in a pending selection.
type ToggleRequest struct {
	Value string `json:"value" binding:"required,selling_channel"`
}

// BeginEditRequest opens a single field for editing.
type BeginEditRequest struct {
	Field FieldKey `json:"field" binding:"required,onboarding_field"`
}

// SaveFieldRequest is the body of PUT /profile/fields/:field.
// Pointers distinguish "not provided" from an empty value; for sellingChannels a nil
// Values means "save the pending toggled selection".
type SaveFieldRequest struct {
	Value  *string  `json:"value,omitempty"`
	Values []string `json:"values,omitempty" binding:"omitempty,dive,selling_channel"`
}
