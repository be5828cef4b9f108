package casbin

import "fmt"

type UnknownPolicyTypeError struct {
	Line       int
	PolicyType string
}

func (err UnknownPolicyTypeError) Error() string {
	return fmt.Sprintf("line %d: unknown policy type %q", err.Line, err.PolicyType)
}

type MalformedRuleError struct {
	Line int
	Type string
	Want int
	Got  int
}

func (err MalformedRuleError) Error() string {
	return fmt.Sprintf("line %d: %q rule needs %d non-empty values, got %d", err.Line, err.Type, err.Want, err.Got)
}
