package enums

import (
	"fmt"
	"strings"
)

// ProposalStatus mirrors the backend governance proposal lifecycle.
type ProposalStatus string

const (
	ProposalStatusOpen     ProposalStatus = "open"
	ProposalStatusPassed   ProposalStatus = "passed"
	ProposalStatusRejected ProposalStatus = "rejected"
	ProposalStatusExpired  ProposalStatus = "expired"
)

var validProposalStatuses = []ProposalStatus{
	ProposalStatusOpen,
	ProposalStatusPassed,
	ProposalStatusRejected,
	ProposalStatusExpired,
}

// String implements fmt.Stringer.
func (s ProposalStatus) String() string {
	return string(s)
}

// ParseProposalStatus converts raw input into a ProposalStatus.
func ParseProposalStatus(value string) (ProposalStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validProposalStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid proposal status %q", value)
}

// VoteChoice is a ballot cast on a governance proposal.
type VoteChoice string

const (
	VoteYes     VoteChoice = "yes"
	VoteNo      VoteChoice = "no"
	VoteAbstain VoteChoice = "abstain"
)

var validVoteChoices = []VoteChoice{
	VoteYes,
	VoteNo,
	VoteAbstain,
}

// String implements fmt.Stringer.
func (v VoteChoice) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VoteChoice.
func (v VoteChoice) IsValid() bool {
	for _, candidate := range validVoteChoices {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVoteChoice converts raw input into a VoteChoice.
func ParseVoteChoice(value string) (VoteChoice, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validVoteChoices {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vote choice %q", value)
}
