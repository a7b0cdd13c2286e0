package accounts

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-coa/internal/shared"
)

// Nature is the normal-balance side of an account.
type Nature string

const (
	NatureDebit  Nature = "DEBIT"
	NatureCredit Nature = "CREDIT"
)

// Valid reports whether n is a known nature.
func (n Nature) Valid() bool {
	return n == NatureDebit || n == NatureCredit
}

// ParseNature accepts case-insensitive input.
func ParseNature(raw string) (Nature, error) {
	n := Nature(strings.ToUpper(strings.TrimSpace(raw)))
	if !n.Valid() {
		return "", fmt.Errorf("%w: unknown nature %q", ErrInvalidInput, raw)
	}
	return n, nil
}

// Account models a chart of accounts node.
type Account struct {
	ID        uuid.UUID       `json:"id"`
	Code      string          `json:"code"`
	NameAr    string          `json:"name_ar"`
	NameEn    string          `json:"name_en"`
	Level     int             `json:"level"`
	ParentID  *uuid.UUID      `json:"parent_id,omitempty"`
	Nature    Nature          `json:"nature"`
	Balance   decimal.Decimal `json:"balance"`
	BranchID  string          `json:"branch_id,omitempty"`
	OwnerKind string          `json:"owner_kind,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// IsRoot reports whether the account sits at the top of the forest.
func (a Account) IsRoot() bool {
	return a.ParentID == nil
}

// Node pairs an account with its live child count.
type Node struct {
	Account
	ChildCount int `json:"child_count"`
}

// HasSubAccounts reports whether at least one account references this node as parent.
func (n Node) HasSubAccounts() bool {
	return n.ChildCount > 0
}

// CreateInput captures manual account creation.
// Code is required for root accounts and must be empty for children.
type CreateInput struct {
	Code     string
	NameAr   string
	NameEn   string
	ParentID *uuid.UUID
	Nature   Nature
	BranchID string
	ActorID  int64
}

func (in *CreateInput) normalize() {
	in.Code = strings.TrimSpace(in.Code)
	in.NameAr = shared.NormalizeName(in.NameAr)
	in.NameEn = shared.NormalizeName(in.NameEn)
	in.BranchID = strings.TrimSpace(in.BranchID)
}

// Validate ensures the input is coherent before touching storage.
func (in CreateInput) Validate() error {
	if err := validateNames(in.NameAr, in.NameEn); err != nil {
		return err
	}
	if in.ParentID != nil {
		if in.Code != "" {
			return fmt.Errorf("%w: sub-account codes are generated", ErrInvalidInput)
		}
		return nil
	}
	if err := ValidateRootCode(in.Code); err != nil {
		return err
	}
	if !in.Nature.Valid() {
		return fmt.Errorf("%w: nature must be DEBIT or CREDIT", ErrInvalidInput)
	}
	return nil
}

// UpdateInput edits display fields. Nil fields are left untouched.
type UpdateInput struct {
	NameAr   *string
	NameEn   *string
	BranchID *string
	ActorID  int64
}

func (in *UpdateInput) normalize() {
	if in.NameAr != nil {
		v := shared.NormalizeName(*in.NameAr)
		in.NameAr = &v
	}
	if in.NameEn != nil {
		v := shared.NormalizeName(*in.NameEn)
		in.NameEn = &v
	}
	if in.BranchID != nil {
		v := strings.TrimSpace(*in.BranchID)
		in.BranchID = &v
	}
}

// Validate rejects empty patches and blank names.
func (in UpdateInput) Validate() error {
	if in.NameAr == nil && in.NameEn == nil && in.BranchID == nil {
		return fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if in.NameAr != nil && *in.NameAr == "" {
		return fmt.Errorf("%w: name_ar is required", ErrInvalidInput)
	}
	if in.NameEn != nil && *in.NameEn == "" {
		return fmt.Errorf("%w: name_en is required", ErrInvalidInput)
	}
	return nil
}

// ProvisionInput requests a generated sub-account under ParentID.
// A non-empty OwnerKind reserves the account for its owner: only DeleteOwned removes it.
type ProvisionInput struct {
	ParentID  uuid.UUID
	NameAr    string
	NameEn    string
	BranchID  string
	OwnerKind string
	ActorID   int64
}

func (in *ProvisionInput) normalize() {
	in.NameAr = shared.NormalizeName(in.NameAr)
	in.NameEn = shared.NormalizeName(in.NameEn)
	in.BranchID = strings.TrimSpace(in.BranchID)
	in.OwnerKind = strings.TrimSpace(in.OwnerKind)
}

// Validate ensures a parent and both names are present.
func (in ProvisionInput) Validate() error {
	if in.ParentID == uuid.Nil {
		return fmt.Errorf("%w: parent id is required", ErrInvalidInput)
	}
	return validateNames(in.NameAr, in.NameEn)
}

func validateNames(nameAr, nameEn string) error {
	if nameAr == "" {
		return fmt.Errorf("%w: name_ar is required", ErrInvalidInput)
	}
	if nameEn == "" {
		return fmt.Errorf("%w: name_en is required", ErrInvalidInput)
	}
	return nil
}
