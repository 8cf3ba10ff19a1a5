package authz

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/rego"
)

// Query is the rule every policy module must define.
const Query = "data.authz.allow"

// Input is the document handed to the policy for a single request.
type Input struct {
	OperationID   string   `json:"operationId"`
	Path          string   `json:"path"`
	Verb          string   `json:"verb"`
	Subject       string   `json:"subject"`
	Roles         []string `json:"roles"`
	IsProtected   bool     `json:"isProtected"`
	RequiredRoles []string `json:"requiredRoles"`
}

// Policy is a compiled Rego module. Safe for concurrent use.
type Policy struct {
	query rego.PreparedEvalQuery
}

// NewPolicy compiles module and prepares data.authz.allow for evaluation.
func NewPolicy(ctx context.Context, module string) (*Policy, error) {
	pq, err := rego.New(
		rego.Query(Query),
		rego.Module("authz.rego", module),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile authz policy: %w", err)
	}
	return &Policy{query: pq}, nil
}

// LoadPolicyFile reads and compiles a Rego module from disk.
func LoadPolicyFile(ctx context.Context, path string) (*Policy, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewPolicy(ctx, string(b))
}

// Allow evaluates the policy. An undefined or non-boolean result denies.
func (p *Policy) Allow(ctx context.Context, in Input) (bool, error) {
	roles := in.Roles
	if roles == nil {
		roles = []string{}
	}
	required := in.RequiredRoles
	if required == nil {
		required = []string{}
	}
	rs, err := p.query.Eval(ctx, rego.EvalInput(map[string]any{
		"operationId":   in.OperationID,
		"path":          in.Path,
		"verb":          in.Verb,
		"subject":       in.Subject,
		"roles":         roles,
		"isProtected":   in.IsProtected,
		"requiredRoles": required,
	}))
	if err != nil {
		return false, err
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, nil
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	return ok && allowed, nil
}
