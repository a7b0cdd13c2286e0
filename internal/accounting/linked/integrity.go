package linked

import (
	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-coa/internal/accounting/accounts"
)

// Reference violations contributed by linked entities.
const (
	ViolationDanglingSubAccount accounts.ViolationKind = "dangling_sub_account"
	ViolationSubAccountCode     accounts.ViolationKind = "sub_account_code"
)

// CheckReferences verifies each entity's sub-account still exists and carries the recorded code.
func CheckReferences(entities []Entity, all []accounts.Account) []accounts.Violation {
	byID := make(map[uuid.UUID]accounts.Account, len(all))
	for _, a := range all {
		byID[a.ID] = a
	}
	var out []accounts.Violation
	for _, e := range entities {
		if e.SubAccountID == nil {
			continue
		}
		a, ok := byID[*e.SubAccountID]
		if !ok {
			out = append(out, accounts.Violation{
				Kind:      ViolationDanglingSubAccount,
				AccountID: *e.SubAccountID,
				Code:      e.SubAccountCode,
				Detail:    e.Owner() + " references a missing account",
			})
			continue
		}
		if a.Code != e.SubAccountCode {
			out = append(out, accounts.Violation{
				Kind:      ViolationSubAccountCode,
				AccountID: a.ID,
				Code:      a.Code,
				Detail:    e.Owner() + " recorded code " + e.SubAccountCode,
			})
		}
	}
	return out
}
