package core

import (
	"fmt"
	"slices"
	"strings"

	"vyap-onboarding-go/internal/models"
)

// StepID identifies a wizard step. Each step collects exactly one answer field and
// shares its name.
type StepID string

const (
	StepShopName        StepID = StepID(models.FieldShopName)
	StepBusinessType    StepID = StepID(models.FieldBusinessType)
	StepLocationCity    StepID = StepID(models.FieldLocationCity)
	StepSellingChannels StepID = StepID(models.FieldSellingChannels)
	StepInventorySize   StepID = StepID(models.FieldInventorySize)
	StepPrimaryGoal     StepID = StepID(models.FieldPrimaryGoal)
)

// StepKind tells the client which input to render.
type StepKind string

const (
	KindText        StepKind = "text"
	KindChoice      StepKind = "choice"
	KindMultiChoice StepKind = "multi_choice"
)

// StepDescriptor is the render description of a step served to the client.
type StepDescriptor struct {
	ID          StepID   `json:"id"`
	Kind        StepKind `json:"kind"`
	Title       string   `json:"title"`
	Placeholder string   `json:"placeholder,omitempty"`
	Options     []string `json:"options,omitempty"`
}

// Step is one of textStep, choiceStep or multiChoiceStep.
type Step interface {
	ID() StepID
	Field() models.FieldKey
	// Valid is the pure advance predicate for this step.
	Valid(a models.OnboardingAnswers) bool
	Descriptor() StepDescriptor
	isStep()
}

type textStep struct {
	id          StepID
	title       string
	placeholder string
	get         func(models.OnboardingAnswers) string
}

func (s textStep) ID() StepID             { return s.id }
func (s textStep) Field() models.FieldKey { return models.FieldKey(s.id) }
func (s textStep) isStep()                {}

func (s textStep) Valid(a models.OnboardingAnswers) bool {
	return strings.TrimSpace(s.get(a)) != ""
}

func (s textStep) Descriptor() StepDescriptor {
	return StepDescriptor{ID: s.id, Kind: KindText, Title: s.title, Placeholder: s.placeholder}
}

type choiceStep struct {
	id      StepID
	title   string
	options []string
	get     func(models.OnboardingAnswers) string
}

func (s choiceStep) ID() StepID             { return s.id }
func (s choiceStep) Field() models.FieldKey { return models.FieldKey(s.id) }
func (s choiceStep) isStep()                {}

func (s choiceStep) Valid(a models.OnboardingAnswers) bool {
	return slices.Contains(s.options, s.get(a))
}

func (s choiceStep) Descriptor() StepDescriptor {
	return StepDescriptor{ID: s.id, Kind: KindChoice, Title: s.title, Options: slices.Clone(s.options)}
}

type multiChoiceStep struct {
	id      StepID
	title   string
	options []string
	get     func(models.OnboardingAnswers) []string
}

func (s multiChoiceStep) ID() StepID             { return s.id }
func (s multiChoiceStep) Field() models.FieldKey { return models.FieldKey(s.id) }
func (s multiChoiceStep) isStep()                {}

func (s multiChoiceStep) Valid(a models.OnboardingAnswers) bool {
	values := s.get(a)
	if len(values) == 0 {
		return false
	}
	for _, v := range values {
		if !slices.Contains(s.options, v) {
			return false
		}
	}
	return true
}

func (s multiChoiceStep) Descriptor() StepDescriptor {
	return StepDescriptor{ID: s.id, Kind: KindMultiChoice, Title: s.title, Options: slices.Clone(s.options)}
}

var orderedSteps = []Step{
	textStep{
		id:          StepShopName,
		title:       "What is your shop called?",
		placeholder: "Shree Ganesh Kirana",
		get:         func(a models.OnboardingAnswers) string { return a.ShopName },
	},
	choiceStep{
		id:      StepBusinessType,
		title:   "What kind of business do you run?",
		options: models.BusinessTypes(),
		get:     func(a models.OnboardingAnswers) string { return a.BusinessType },
	},
	textStep{
		id:          StepLocationCity,
		title:       "Which city are you in?",
		placeholder: "Pune, Maharashtra",
		get:         func(a models.OnboardingAnswers) string { return a.LocationCity },
	},
	multiChoiceStep{
		id:      StepSellingChannels,
		title:   "Where do you sell today?",
		options: models.SellingChannels(),
		get:     func(a models.OnboardingAnswers) []string { return a.SellingChannels },
	},
	choiceStep{
		id:      StepInventorySize,
		title:   "How many products do you stock?",
		options: models.InventorySizes(),
		get:     func(a models.OnboardingAnswers) string { return a.InventorySize },
	},
	choiceStep{
		id:      StepPrimaryGoal,
		title:   "What should your app help with first?",
		options: models.PrimaryGoals(),
		get:     func(a models.OnboardingAnswers) string { return a.PrimaryGoal },
	},
}

// Steps returns the ordered wizard steps.
func Steps() []Step {
	return slices.Clone(orderedSteps)
}

// StepCount is the fixed number of wizard steps.
func StepCount() int { return len(orderedSteps) }

// Descriptors returns render descriptors for every step, in order.
func Descriptors() []StepDescriptor {
	out := make([]StepDescriptor, 0, len(orderedSteps))
	for _, s := range orderedSteps {
		out = append(out, s.Descriptor())
	}
	return out
}

func stepByID(id StepID) Step {
	for _, s := range orderedSteps {
		if s.ID() == id {
			return s
		}
	}
	panic(fmt.Sprintf("core: unknown step id %q", id))
}

// CanAdvance reports whether the answers satisfy the given step. Unknown step ids panic.
func CanAdvance(id StepID, a models.OnboardingAnswers) bool {
	return stepByID(id).Valid(a)
}

// ValidateField applies the validator of the step that owns field to a. displayName,
// which has no step, must be non-empty after trimming.
func ValidateField(field models.FieldKey, a models.OnboardingAnswers, displayName string) bool {
	if field == models.FieldDisplayName {
		return strings.TrimSpace(displayName) != ""
	}
	return CanAdvance(StepID(field), a)
}
