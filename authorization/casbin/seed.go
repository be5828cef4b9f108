package casbin

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	RuleTypePolicy   = "p"
	RuleTypeGrouping = "g"
)

// Rule is one line of a policy file: "p, subject, domain, object, action" or
// "g, subject, group".
type Rule struct {
	Line   int
	Type   string
	Values []string
}

// ParsePolicy reads policy csv content. Blank lines and lines starting with #
// are skipped.
func ParsePolicy(content string) ([]Rule, error) {
	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.Comment = '#'
	reader.TrimLeadingSpace = true

	var rules []Rule

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("failed to read policy content: %w", err)
		}

		line, _ := reader.FieldPos(0)

		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}

		if len(record) == 0 || record[0] == "" {
			continue
		}

		rule := Rule{Line: line, Type: record[0], Values: record[1:]}

		err = validateRule(rule)
		if err != nil {
			return nil, err
		}

		rules = append(rules, rule)
	}

	return rules, nil
}

func validateRule(rule Rule) error {
	var want int

	switch rule.Type {
	case RuleTypePolicy:
		want = 4
	case RuleTypeGrouping:
		want = 2
	default:
		return &UnknownPolicyTypeError{Line: rule.Line, PolicyType: rule.Type}
	}

	if len(rule.Values) != want {
		return &MalformedRuleError{Line: rule.Line, Type: rule.Type, Want: want, Got: len(rule.Values)}
	}

	for _, value := range rule.Values {
		if value == "" {
			return &MalformedRuleError{Line: rule.Line, Type: rule.Type, Want: want, Got: len(rule.Values)}
		}
	}

	return nil
}

// Seed adds the rules of content that are not stored yet and returns how many
// were added. Running it on every start keeps the default policy present
// without duplicating it.
func (p *Provider) Seed(ctx context.Context, content string) (int, error) {
	rules, err := ParsePolicy(content)
	if err != nil {
		return 0, fmt.Errorf("failed to parse policy: %w", err)
	}

	added := 0

	for _, rule := range rules {
		ok, err := p.addRule(rule)
		if err != nil {
			return added, fmt.Errorf("failed to add rule on line %d: %w", rule.Line, err)
		}

		if ok {
			added++
		}
	}

	return added, nil
}

func (p *Provider) addRule(rule Rule) (bool, error) {
	args := make([]any, len(rule.Values))
	for i := range rule.Values {
		args[i] = rule.Values[i]
	}

	if rule.Type == RuleTypeGrouping {
		exists, err := p.enforcer.HasGroupingPolicy(args...)
		if err != nil || exists {
			return false, err //nolint:wrapcheck
		}

		return p.enforcer.AddGroupingPolicy(args...) //nolint:wrapcheck
	}

	exists, err := p.enforcer.HasPolicy(args...)
	if err != nil || exists {
		return false, err //nolint:wrapcheck
	}

	return p.enforcer.AddPolicy(args...) //nolint:wrapcheck
}
