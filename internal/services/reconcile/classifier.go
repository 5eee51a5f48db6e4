package reconcile

import (
	"strings"

	"github.com/credilift/callback-service/internal/domain"
)

// PrefixRule maps a literal identifier prefix to its payment domain.
type PrefixRule struct {
	Prefix         string
	Classification domain.Classification
}

// DefaultPrefixRules is the shipped four-entry taxonomy. New payment
// products add entries through configuration, not code.
func DefaultPrefixRules() []PrefixRule {
	return []PrefixRule{
		{Prefix: "CB-", Classification: domain.ClassificationSubscription},
		{Prefix: "MC-", Classification: domain.ClassificationMembershipCard},
		{Prefix: "PP-", Classification: domain.ClassificationPriorityProcessing},
	}
}

// Classifier maps an identifier's prefix to a Classification. It is total:
// classification never fails, and anything unrecognized (including empty
// and Generated ids) is Generic.
type Classifier struct {
	rules []PrefixRule
}

// NewClassifier creates a classifier from an ordered rule set; first match
// wins. A nil or empty rule set falls back to the defaults.
func NewClassifier(rules []PrefixRule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultPrefixRules()
	}
	return &Classifier{rules: rules}
}

// Classify returns the payment domain for id.
func (c *Classifier) Classify(id string) domain.Classification {
	for _, rule := range c.rules {
		if strings.HasPrefix(id, rule.Prefix) {
			return rule.Classification
		}
	}
	return domain.ClassificationGeneric
}

// Prefixes returns the literal prefixes in rule order, for components that
// need to recognize id-shaped values without classifying them.
func (c *Classifier) Prefixes() []string {
	prefixes := make([]string, 0, len(c.rules))
	for _, rule := range c.rules {
		prefixes = append(prefixes, rule.Prefix)
	}
	return prefixes
}
