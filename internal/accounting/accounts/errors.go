package accounts

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the account does not exist.
	ErrNotFound = errors.New("accounts: account not found")
	// ErrParentNotFound indicates the referenced parent does not exist.
	ErrParentNotFound = errors.New("accounts: parent account not found")
	// ErrParentNotProvisionable indicates the parent is neither a root nor an existing group.
	ErrParentNotProvisionable = errors.New("accounts: parent cannot receive sub-accounts")
	// ErrDuplicateCode indicates the code is already used by another account.
	ErrDuplicateCode = errors.New("accounts: account code already exists")
	// ErrHasChildren indicates deletion was refused because sub-accounts exist.
	ErrHasChildren = errors.New("accounts: account has sub-accounts")
	// ErrAccountOwned indicates the account belongs to a linked entity.
	ErrAccountOwned = errors.New("accounts: account is owned by a linked entity")
	// ErrInvalidInput indicates the request failed validation.
	ErrInvalidInput = errors.New("accounts: invalid input")
)

// HasChildrenError reports how many sub-accounts blocked a deletion.
type HasChildrenError struct {
	Count int
}

func (e *HasChildrenError) Error() string {
	return fmt.Sprintf("accounts: account has %d sub-accounts", e.Count)
}

// Is matches ErrHasChildren.
func (e *HasChildrenError) Is(target error) bool {
	return target == ErrHasChildren
}
