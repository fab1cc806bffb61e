package permissions

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"

	"bookery/shared/constant"
)

//go:embed policy.json
var policyData []byte

type Decision string

const (
	DecisionAllow Decision = "ALLOW"
	DecisionDeny  Decision = "DENY"
)

func (d Decision) Allowed() bool {
	return d == DecisionAllow
}

// ResourceKind identifies the class of entity an action is performed on.
type ResourceKind string

const (
	ResourceBooking      ResourceKind = "booking"
	ResourceService      ResourceKind = "service"
	ResourceAgentAccount ResourceKind = "agent_account"
	ResourceAuditLog     ResourceKind = "audit_log"
)

type Action string

const (
	ActionCreate        Action = "create"
	ActionRead          Action = "read"
	ActionUpdate        Action = "update"
	ActionDelete        Action = "delete"
	ActionTransition    Action = "transition"
	ActionCancel        Action = "cancel"
	ActionUpdatePayment Action = "update_payment"
	ActionManage        Action = "manage"
)

// Principal is the authenticated actor performing an operation.
type Principal struct {
	ID   string
	Role string
}

// Resource describes the target of a check: its kind, the id of the account
// that owns it, and (for account management) the role of that account.
type Resource struct {
	Kind      ResourceKind
	OwnerID   string
	OwnerRole string
}

type scope string

const (
	scopeAny   scope = "any"
	scopeOwned scope = "owned"
)

type rule struct {
	Role     string   `json:"role"`
	Resource string   `json:"resource"`
	Actions  []string `json:"actions"`
	Scope    scope    `json:"scope"`
}

type policy struct {
	Rules []rule `json:"rules"`
}

// Gate evaluates (principal, resource, action) against the static policy
// table. It performs no I/O and holds no mutable state, so a single instance
// is shared process-wide.
type Gate struct {
	rules []rule
}

// NewGate decodes the embedded policy table. A malformed table is a
// configuration error surfaced at startup, never a silent nil.
func NewGate() (*Gate, error) {
	var p policy

	if err := json.Unmarshal(policyData, &p); err != nil {
		return nil, fmt.Errorf("failed to decode embedded policy table: %w", err)
	}

	if len(p.Rules) == 0 {
		return nil, fmt.Errorf("embedded policy table has no rules")
	}

	return &Gate{rules: p.Rules}, nil
}

// Check resolves a decision for the given principal, resource and action.
// Every combination not explicitly allowed by the table denies.
func (g *Gate) Check(principal Principal, resource Resource, action Action) Decision {
	switch principal.Role {
	case constant.RoleSuperAdmin:
		return DecisionAllow
	case constant.RoleAdmin:
		// Admins may not manage accounts of super admins other than their own.
		if resource.Kind == ResourceAgentAccount &&
			resource.OwnerRole == constant.RoleSuperAdmin &&
			resource.OwnerID != principal.ID {
			return DecisionDeny
		}

		return DecisionAllow
	}

	for _, r := range g.rules {
		if r.Role != principal.Role {
			continue
		}

		if r.Resource != constant.Asterix && r.Resource != string(resource.Kind) {
			continue
		}

		if !slices.Contains(r.Actions, constant.Asterix) && !slices.Contains(r.Actions, string(action)) {
			continue
		}

		if r.Scope == scopeOwned && resource.OwnerID != principal.ID {
			continue
		}

		return DecisionAllow
	}

	return DecisionDeny
}
