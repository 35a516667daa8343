package schedule

import "strings"

// Gender is the customer's gender as parsed from a free-text field.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// GenderPolicy is which customers an employee serves, or which customers a
// service is offered to.
type GenderPolicy string

const (
	PolicyMale   GenderPolicy = "male"
	PolicyFemale GenderPolicy = "female"
	PolicyBoth   GenderPolicy = "both"
)

// ParseGender normalizes a free-text gender field. Anything unrecognized,
// including the empty string, maps to other rather than erroring.
func ParseGender(raw string) Gender {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "male", "man", "m":
		return GenderMale
	case "female", "woman", "f":
		return GenderFemale
	default:
		return GenderOther
	}
}

// Serves reports whether an employee with this policy may take a customer of
// the given gender. Unrecognized policy values serve nobody, and a customer of
// other is only served under the both policy.
func (p GenderPolicy) Serves(g Gender) bool {
	switch p {
	case PolicyBoth:
		return true
	case PolicyMale:
		return g == GenderMale
	case PolicyFemale:
		return g == GenderFemale
	default:
		return false
	}
}
