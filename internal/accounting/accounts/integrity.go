package accounts

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ViolationKind classifies a structural defect of the chart.
type ViolationKind string

const (
	ViolationMissingParent  ViolationKind = "missing_parent"
	ViolationCycle          ViolationKind = "cycle"
	ViolationDuplicateCode  ViolationKind = "duplicate_code"
	ViolationLevelMismatch  ViolationKind = "level_mismatch"
	ViolationNatureMismatch ViolationKind = "nature_mismatch"
	ViolationCodePrefix     ViolationKind = "code_prefix"
)

// Violation describes one defect found by CheckIntegrity.
type Violation struct {
	Kind      ViolationKind `json:"kind"`
	AccountID uuid.UUID     `json:"account_id"`
	Code      string        `json:"code"`
	Detail    string        `json:"detail"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s %s: %s", v.Kind, v.Code, v.Detail)
}

// CheckIntegrity verifies the forest shape of a full account snapshot.
func CheckIntegrity(accounts []Account) []Violation {
	byID := make(map[uuid.UUID]Account, len(accounts))
	codes := make(map[string]uuid.UUID, len(accounts))
	var out []Violation
	for _, a := range accounts {
		byID[a.ID] = a
		if other, dup := codes[a.Code]; dup {
			out = append(out, Violation{Kind: ViolationDuplicateCode, AccountID: a.ID, Code: a.Code, Detail: "shares code with " + other.String()})
			continue
		}
		codes[a.Code] = a.ID
	}
	for _, a := range accounts {
		if a.ParentID == nil {
			if a.Level != 1 {
				out = append(out, Violation{Kind: ViolationLevelMismatch, AccountID: a.ID, Code: a.Code, Detail: fmt.Sprintf("root at level %d", a.Level)})
			}
			continue
		}
		parent, ok := byID[*a.ParentID]
		if !ok {
			out = append(out, Violation{Kind: ViolationMissingParent, AccountID: a.ID, Code: a.Code, Detail: "parent " + a.ParentID.String() + " does not exist"})
			continue
		}
		if a.Level != parent.Level+1 {
			out = append(out, Violation{Kind: ViolationLevelMismatch, AccountID: a.ID, Code: a.Code, Detail: fmt.Sprintf("level %d under parent level %d", a.Level, parent.Level)})
		}
		if a.Nature != parent.Nature {
			out = append(out, Violation{Kind: ViolationNatureMismatch, AccountID: a.ID, Code: a.Code, Detail: fmt.Sprintf("%s under %s parent", a.Nature, parent.Nature)})
		}
		if !strings.HasPrefix(a.Code, parent.Code+CodeSeparator) {
			out = append(out, Violation{Kind: ViolationCodePrefix, AccountID: a.ID, Code: a.Code, Detail: "expected prefix " + parent.Code + CodeSeparator})
		}
	}
	out = append(out, findCycles(accounts, byID)...)
	return out
}

func findCycles(accounts []Account, byID map[uuid.UUID]Account) []Violation {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[uuid.UUID]int, len(accounts))
	var out []Violation
	for _, start := range accounts {
		var path []uuid.UUID
		id := start.ID
		for {
			if state[id] == done {
				break
			}
			if state[id] == visiting {
				a := byID[id]
				out = append(out, Violation{Kind: ViolationCycle, AccountID: a.ID, Code: a.Code, Detail: "ancestor chain loops back to this account"})
				break
			}
			state[id] = visiting
			path = append(path, id)
			a, ok := byID[id]
			if !ok || a.ParentID == nil {
				break
			}
			if _, ok := byID[*a.ParentID]; !ok {
				break
			}
			id = *a.ParentID
		}
		for _, p := range path {
			state[p] = done
		}
	}
	return out
}
