package accounts

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-coa/internal/platform/httpx"
)

type createAccountRequest struct {
	Code     string  `json:"code" validate:"omitempty,max=32"`
	NameAr   string  `json:"name_ar" validate:"required,max=200"`
	NameEn   string  `json:"name_en" validate:"required,max=200"`
	ParentID *string `json:"parent_id" validate:"omitempty,uuid"`
	Nature   string  `json:"nature" validate:"omitempty,oneof=DEBIT CREDIT debit credit"`
	BranchID string  `json:"branch_id" validate:"max=64"`
}

func (req createAccountRequest) toInput(actorID int64) (CreateInput, error) {
	if err := httpx.Validate(req); err != nil {
		return CreateInput{}, err
	}
	in := CreateInput{
		Code:     req.Code,
		NameAr:   req.NameAr,
		NameEn:   req.NameEn,
		BranchID: req.BranchID,
		ActorID:  actorID,
	}
	if req.ParentID != nil {
		id, err := uuid.Parse(*req.ParentID)
		if err != nil {
			return CreateInput{}, fmt.Errorf("%w: parent_id must be a UUID", ErrInvalidInput)
		}
		in.ParentID = &id
	}
	if req.Nature != "" {
		n, err := ParseNature(req.Nature)
		if err != nil {
			return CreateInput{}, err
		}
		in.Nature = n
	}
	return in, nil
}

type updateAccountRequest struct {
	NameAr   *string `json:"name_ar" validate:"omitempty,max=200"`
	NameEn   *string `json:"name_en" validate:"omitempty,max=200"`
	BranchID *string `json:"branch_id" validate:"omitempty,max=64"`
}

type provisionRequest struct {
	NameAr   string `json:"name_ar" validate:"required,max=200"`
	NameEn   string `json:"name_en" validate:"required,max=200"`
	BranchID string `json:"branch_id" validate:"max=64"`
}

type nodeResponse struct {
	Node
	HasSubAccounts bool `json:"has_sub_accounts"`
}

func toNodeResponse(n Node) nodeResponse {
	return nodeResponse{Node: n, HasSubAccounts: n.HasSubAccounts()}
}
