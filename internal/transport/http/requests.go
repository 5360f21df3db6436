package httptransport

import (
	"strings"
	"time"

	"syncvault/pkg/domain"
	dErrors "syncvault/pkg/domain-errors"
)

const maxTitleLength = 256

func parseIdentityField(field, raw string) (domain.Identity, error) {
	if strings.TrimSpace(raw) == "" {
		return "", dErrors.New(dErrors.CodeValidation, field+" is required")
	}
	return domain.ParseIdentity(strings.TrimSpace(raw))
}

// LinkRequest is the body of POST /partner/link.
type LinkRequest struct {
	Partner string `json:"partner"`

	partner domain.Identity
}

func (r *LinkRequest) Validate() error {
	partner, err := parseIdentityField("partner", r.Partner)
	if err != nil {
		return err
	}
	r.partner = partner
	return nil
}

// MintRequest is the body of POST /ledger/mint.
type MintRequest struct {
	To     string        `json:"to"`
	Amount domain.Amount `json:"amount"`

	to domain.Identity
}

func (r *MintRequest) Validate() error {
	to, err := parseIdentityField("to", r.To)
	if err != nil {
		return err
	}
	r.to = to
	return nil
}

// TransferRequest is the body of POST /ledger/transfer. The sender is the
// authenticated caller.
type TransferRequest struct {
	To     string        `json:"to"`
	Amount domain.Amount `json:"amount"`

	to domain.Identity
}

func (r *TransferRequest) Validate() error {
	to, err := parseIdentityField("to", r.To)
	if err != nil {
		return err
	}
	r.to = to
	return nil
}

// CompleteGoalRequest is the body of POST /goals/{goalID}/complete.
type CompleteGoalRequest struct {
	Reward domain.Amount `json:"reward"`
}

func (r *CompleteGoalRequest) Validate() error {
	return nil
}

// CreateDualGoalRequest is the body of POST /goals for dual-approval goals.
// Partner A is the authenticated caller.
type CreateDualGoalRequest struct {
	ID       uint64        `json:"id"`
	PartnerB string        `json:"partner_b"`
	Reward   domain.Amount `json:"reward"`
	UnlockAt time.Time     `json:"unlock_at"`

	partnerB domain.Identity
}

func (r *CreateDualGoalRequest) Validate() error {
	b, err := parseIdentityField("partner_b", r.PartnerB)
	if err != nil {
		return err
	}
	r.partnerB = b
	return nil
}

// CreateOpenGoalRequest is the body of POST /goals for open goals.
type CreateOpenGoalRequest struct {
	Title  string        `json:"title"`
	Target domain.Amount `json:"target"`
}

func (r *CreateOpenGoalRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if len(r.Title) > maxTitleLength {
		return dErrors.New(dErrors.CodeValidation, "title must be at most 256 characters")
	}
	return nil
}
