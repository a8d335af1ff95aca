package capabilities

import (
	"fmt"

	"github.com/angelmondragon/influence-market/internal/accounts"
	"github.com/angelmondragon/influence-market/pkg/enums"
	pkgerrors "github.com/angelmondragon/influence-market/pkg/errors"
)

// Action names a gated operation.
type Action string

const (
	ActionCreateCampaign  Action = "create_campaign"
	ActionApplyToCampaign Action = "apply_to_campaign"
	ActionViewApplicants  Action = "view_applicants"
	ActionApproveCampaign Action = "approve_campaign"
	ActionDepositEscrow   Action = "deposit_escrow"
	ActionWithdrawEscrow  Action = "withdraw_escrow"
	ActionStake           Action = "stake"
	ActionVote            Action = "vote"
	ActionPropose         Action = "propose"
)

type rule struct {
	allowed func(*accounts.Account) bool
	// role is the only role allowed, or empty when any registered account is.
	role enums.Role
}

var rules = map[Action]rule{
	ActionCreateCampaign:  {allowed: CanCreateCampaign, role: enums.RoleBrand},
	ActionApplyToCampaign: {allowed: CanApplyToCampaign, role: enums.RoleInfluencer},
	ActionViewApplicants:  {allowed: CanViewApplicants, role: enums.RoleBrand},
	ActionApproveCampaign: {allowed: CanApproveCampaign, role: enums.RoleBrand},
	ActionDepositEscrow:   {allowed: CanDepositEscrow, role: enums.RoleBrand},
	ActionWithdrawEscrow:  {allowed: CanWithdrawEscrow, role: enums.RoleInfluencer},
	ActionStake:           {allowed: CanStake},
	ActionVote:            {allowed: CanVote},
	ActionPropose:         {allowed: CanPropose},
}

// Allowed reports whether account may perform action. Unknown actions are denied.
func Allowed(account *accounts.Account, action Action) bool {
	r, ok := rules[action]
	if !ok {
		return false
	}
	return r.allowed(account)
}

// Check returns nil when the action is allowed and otherwise the same typed error the
// backend would raise, naming the required role.
func Check(account *accounts.Account, action Action) error {
	r, ok := rules[action]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("unknown action %q", action))
	}
	if r.allowed(account) {
		return nil
	}
	if r.role == "" {
		return pkgerrors.New(pkgerrors.CodeInsufficientPermissions, "a registered account is required").
			WithDetails(map[string]any{"action": string(action)})
	}
	return pkgerrors.New(pkgerrors.CodeRoleRequired, fmt.Sprintf("%s role required", r.role.Label())).
		WithDetails(map[string]any{"action": string(action), "required_role": string(r.role)})
}
