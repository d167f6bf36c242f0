// Package privacy provides mutation policies evaluated by the clone engine
// before every write.
package privacy

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/syssam/graphclone/clone"
)

// Policy decision sentinel errors.
//
// Rules return one of these, possibly wrapped, to steer evaluation:
//
//	if errors.Is(err, privacy.Deny) { ... }
var (
	// Allow terminates the evaluation with an allow decision.
	Allow = errors.New("graphclone/privacy: allow rule")

	// Deny terminates the evaluation with a deny decision.
	Deny = errors.New("graphclone/privacy: deny rule")

	// Skip continues the evaluation with the next rule.
	Skip = errors.New("graphclone/privacy: skip rule")
)

// Allowf returns a formatted wrapped Allow decision.
func Allowf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Allow)...)
}

// Denyf returns a formatted wrapped Deny decision.
func Denyf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Deny)...)
}

// Skipf returns a formatted wrapped Skip decision.
func Skipf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Skip)...)
}

type (
	// MutationRule decides whether a clone mutation is allowed. Rules may
	// also modify the mutation's record.
	MutationRule interface {
		EvalMutation(context.Context, *clone.Mutation) error
	}

	// MutationPolicy evaluates rules in order. It implements clone.Policy:
	// the first Allow yields nil, the first Deny (or any other error) is
	// returned, and a policy whose rules all skip allows the mutation.
	MutationPolicy []MutationRule
)

// MutationRuleFunc type is an adapter which allows the use of
// ordinary functions as mutation rules.
type MutationRuleFunc func(context.Context, *clone.Mutation) error

// EvalMutation returns f(ctx, m).
func (f MutationRuleFunc) EvalMutation(ctx context.Context, m *clone.Mutation) error {
	return f(ctx, m)
}

// AlwaysAllowRule returns a rule that always returns an Allow decision.
func AlwaysAllowRule() MutationRule {
	return fixedDecision{Allow}
}

// AlwaysDenyRule returns a rule that always returns a Deny decision.
func AlwaysDenyRule() MutationRule {
	return fixedDecision{Deny}
}

// ContextMutationRule creates a rule from a context evaluation function.
// Returning nil is equivalent to returning Skip.
func ContextMutationRule(eval func(context.Context) error) MutationRule {
	return MutationRuleFunc(func(ctx context.Context, _ *clone.Mutation) error {
		return eval(ctx)
	})
}

// OnOperation evaluates the given rule only on the given operations.
func OnOperation(rule MutationRule, op clone.Op) MutationRule {
	return MutationRuleFunc(func(ctx context.Context, m *clone.Mutation) error {
		if m.Op.Is(op) {
			return rule.EvalMutation(ctx, m)
		}
		return Skip
	})
}

// OnTypes evaluates the given rule only on mutations of the named types.
func OnTypes(rule MutationRule, types ...string) MutationRule {
	return MutationRuleFunc(func(ctx context.Context, m *clone.Mutation) error {
		if m.Type != nil && slices.Contains(types, m.Type.Name) {
			return rule.EvalMutation(ctx, m)
		}
		return Skip
	})
}

// DenyOperationRule returns a rule denying the given operations.
func DenyOperationRule(op clone.Op) MutationRule {
	rule := MutationRuleFunc(func(_ context.Context, m *clone.Mutation) error {
		return Denyf("graphclone/privacy: operation %s is not allowed", m.Op)
	})
	return OnOperation(rule, op)
}

// AllowOperationRule returns a rule allowing the given operations.
func AllowOperationRule(op clone.Op) MutationRule {
	return OnOperation(AlwaysAllowRule(), op)
}

// DenyTypeRule returns a rule denying every write to the named types, so
// a clone reaching them fails instead of copying them.
func DenyTypeRule(types ...string) MutationRule {
	rule := MutationRuleFunc(func(_ context.Context, m *clone.Mutation) error {
		return Denyf("graphclone/privacy: cloning %s is not allowed", m.Type.Name)
	})
	return OnTypes(rule, types...)
}

// EvalMutation evaluates a mutation against the policy.
func (policy MutationPolicy) EvalMutation(ctx context.Context, m *clone.Mutation) error {
	if decision, ok := DecisionFromContext(ctx); ok {
		return decision
	}
	for _, rule := range policy {
		switch decision := rule.EvalMutation(ctx, m); {
		case decision == nil || errors.Is(decision, Skip):
		case errors.Is(decision, Allow):
			return nil
		default:
			return decision
		}
	}
	return nil
}

// Policies combines multiple policies. Each policy is evaluated in turn;
// a policy allowing the mutation does not stop the next one from denying it.
type Policies []clone.Policy

// EvalMutation evaluates the policies in order and returns the first denial.
func (policies Policies) EvalMutation(ctx context.Context, m *clone.Mutation) error {
	if decision, ok := DecisionFromContext(ctx); ok {
		return decision
	}
	for _, policy := range policies {
		switch decision := policy.EvalMutation(ctx, m); {
		case decision == nil || errors.Is(decision, Skip) || errors.Is(decision, Allow):
		default:
			return decision
		}
	}
	return nil
}

type decisionCtxKey struct{}

// DecisionContext creates a new context from the given parent context with
// a policy decision attached to it. Policies evaluated under the returned
// context return the decision without running their rules.
func DecisionContext(parent context.Context, decision error) context.Context {
	if decision == nil || errors.Is(decision, Skip) {
		return parent
	}
	return context.WithValue(parent, decisionCtxKey{}, decision)
}

// DecisionFromContext retrieves the policy decision from the context.
// An Allow decision is reported as nil.
func DecisionFromContext(ctx context.Context) (error, bool) {
	decision, ok := ctx.Value(decisionCtxKey{}).(error)
	if ok && errors.Is(decision, Allow) {
		decision = nil
	}
	return decision, ok
}

type fixedDecision struct {
	decision error
}

func (f fixedDecision) EvalMutation(context.Context, *clone.Mutation) error {
	return f.decision
}

var (
	_ clone.Policy = MutationPolicy(nil)
	_ clone.Policy = Policies(nil)
	_ clone.Policy = MutationRuleFunc(nil)
)
