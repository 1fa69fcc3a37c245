package engine

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	"innovation-portal/backend/internal/account/domain"
)

const policyQuery = "data.portal.authz.allow"

// DefaultRegoPolicy admits a role iff it is listed in input.allowed_roles.
// Custom policies must define data.portal.authz.allow over the same input.
const DefaultRegoPolicy = `package portal.authz

default allow := false

allow if {
	input.role in input.allowed_roles
}
`

// OPAEvaluator evaluates role membership with an OPA Rego policy compiled and
// prepared once at construction.
type OPAEvaluator struct {
	query rego.PreparedEvalQuery
}

var _ Evaluator = (*OPAEvaluator)(nil)

// NewOPAEvaluator compiles policy, or DefaultRegoPolicy when policy is empty,
// and prepares the allow query.
func NewOPAEvaluator(ctx context.Context, policy string) (*OPAEvaluator, error) {
	if policy == "" {
		policy = DefaultRegoPolicy
	}
	compiler, err := ast.CompileModules(map[string]string{"authz.rego": policy})
	if err != nil {
		return nil, fmt.Errorf("compile authz policy: %w", err)
	}
	pq, err := rego.New(
		rego.Query(policyQuery),
		rego.Compiler(compiler),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare authz query: %w", err)
	}
	e := &OPAEvaluator{query: pq}
	if err := e.HealthCheck(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// Allowed evaluates the policy for role against allowed. An undefined result
// is a denial.
func (e *OPAEvaluator) Allowed(ctx context.Context, role domain.Role, allowed []domain.Role) (bool, error) {
	roles := make([]interface{}, 0, len(allowed))
	for _, r := range allowed {
		roles = append(roles, string(r))
	}
	input := map[string]interface{}{
		"role":          string(role),
		"allowed_roles": roles,
	}
	rs, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("eval authz policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, nil
	}
	v, ok := rs[0].Expressions[0].Value.(bool)
	return ok && v, nil
}

// HealthCheck verifies the prepared query evaluates to a boolean. Does not
// touch storage.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	rs, err := e.query.Eval(ctx, rego.EvalInput(map[string]interface{}{
		"role":          string(domain.RoleAdmin),
		"allowed_roles": []interface{}{string(domain.RoleAdmin)},
	}))
	if err != nil {
		return fmt.Errorf("eval authz policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return fmt.Errorf("authz policy query %s returned no result", policyQuery)
	}
	if _, ok := rs[0].Expressions[0].Value.(bool); !ok {
		return fmt.Errorf("authz policy query %s did not return a boolean", policyQuery)
	}
	return nil
}
