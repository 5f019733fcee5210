package validate

import (
	"sync"

	"github.com/leapstack-labs/leapform/pkg/core"
)

// rule.go - the rule registry. Rules are data-driven definitions registered
// from init functions in this package; external packages may add their own
// before calling Validate.

// CheckFunc inspects the App and returns its violations. Checks are
// stateless and read-only.
type CheckFunc func(app *core.App, profile core.Profile) []Finding

// Rule is one validation rule definition.
type Rule struct {
	ID          string
	Description string
	// Severity is the default for findings this rule emits. Individual
	// findings may escalate (profile strictness).
	Severity core.Severity
	Check    CheckFunc
}

var globalRegistry = &registry{
	rules: make(map[string]Rule),
}

type registry struct {
	mu    sync.RWMutex
	rules map[string]Rule
	order []string
}

// Register adds a rule. Re-registering an id replaces the definition but
// keeps its original position.
func Register(rule Rule) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	if _, exists := globalRegistry.rules[rule.ID]; !exists {
		globalRegistry.order = append(globalRegistry.order, rule.ID)
	}
	globalRegistry.rules[rule.ID] = rule
}

// Rules returns all registered rules in registration order.
func Rules() []Rule {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	rules := make([]Rule, 0, len(globalRegistry.order))
	for _, id := range globalRegistry.order {
		rules = append(rules, globalRegistry.rules[id])
	}
	return rules
}

// Lookup returns a rule by id.
func Lookup(id string) (Rule, bool) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	rule, ok := globalRegistry.rules[id]
	return rule, ok
}

// RuleIDs returns the registered ids in registration order.
func RuleIDs() []string {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	ids := make([]string, len(globalRegistry.order))
	copy(ids, globalRegistry.order)
	return ids
}
