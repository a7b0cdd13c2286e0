package linked

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-coa/internal/shared"
)

// Kind distinguishes the business entities that own a provisioned sub-account.
type Kind string

const (
	KindTaxSetting   Kind = "TAX_SETTING"
	KindSalesAccount Kind = "SALES_ACCOUNT"
)

var kindSlugs = map[string]Kind{
	"tax-settings":   KindTaxSetting,
	"sales-accounts": KindSalesAccount,
}

// KindFromSlug maps a URL segment to a Kind.
func KindFromSlug(slug string) (Kind, bool) {
	k, ok := kindSlugs[strings.ToLower(slug)]
	return k, ok
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindTaxSetting || k == KindSalesAccount
}

var maxRate = decimal.NewFromInt(100)

// Entity is a business record that owns exactly one provisioned account.
type Entity struct {
	ID              uuid.UUID       `json:"id"`
	Kind            Kind            `json:"kind"`
	NameAr          string          `json:"name_ar"`
	NameEn          string          `json:"name_en"`
	BranchID        string          `json:"branch_id,omitempty"`
	ParentAccountID uuid.UUID       `json:"parent_account_id"`
	FiscalYear      string          `json:"fiscal_year,omitempty"`
	SubAccountID    *uuid.UUID      `json:"sub_account_id,omitempty"`
	SubAccountCode  string          `json:"sub_account_code,omitempty"`
	Rate            decimal.Decimal `json:"rate"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Owner identifies the entity in ownership checks.
func (e Entity) Owner() string {
	return fmt.Sprintf("%s %s", e.Kind, e.ID)
}

// CreateInput captures linked entity creation.
type CreateInput struct {
	Kind            Kind
	NameAr          string
	NameEn          string
	BranchID        string
	ParentAccountID uuid.UUID
	FiscalYear      string
	Rate            decimal.Decimal
	ActorID         int64
}

func (in *CreateInput) normalize() {
	in.NameAr = shared.NormalizeName(in.NameAr)
	in.NameEn = shared.NormalizeName(in.NameEn)
	in.BranchID = strings.TrimSpace(in.BranchID)
	in.FiscalYear = strings.TrimSpace(in.FiscalYear)
}

// Validate checks required fields and the rate range.
func (in CreateInput) Validate() error {
	if !in.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, in.Kind)
	}
	if in.NameAr == "" || in.NameEn == "" {
		return fmt.Errorf("%w: name_ar and name_en are required", ErrInvalidInput)
	}
	if in.ParentAccountID == uuid.Nil {
		return fmt.Errorf("%w: parent_account_id is required", ErrInvalidInput)
	}
	return validateRate(in.Kind, in.Rate)
}

// UpdateInput edits display fields, branch scope and rate.
type UpdateInput struct {
	NameAr   *string
	NameEn   *string
	BranchID *string
	Rate     *decimal.Decimal
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

func (in UpdateInput) validate(kind Kind) error {
	if in.NameAr == nil && in.NameEn == nil && in.BranchID == nil && in.Rate == nil {
		return fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if (in.NameAr != nil && *in.NameAr == "") || (in.NameEn != nil && *in.NameEn == "") {
		return fmt.Errorf("%w: names cannot be blank", ErrInvalidInput)
	}
	if in.Rate != nil {
		return validateRate(kind, *in.Rate)
	}
	return nil
}

func validateRate(kind Kind, rate decimal.Decimal) error {
	if kind != KindTaxSetting {
		if !rate.IsZero() {
			return fmt.Errorf("%w: rate applies to tax settings only", ErrInvalidInput)
		}
		return nil
	}
	if rate.IsNegative() || rate.GreaterThan(maxRate) {
		return fmt.Errorf("%w: rate must be between 0 and 100", ErrInvalidInput)
	}
	return nil
}
