package fiscalyears

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status enumerates fiscal year states.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

var (
	// ErrNotFound indicates the fiscal year does not exist.
	ErrNotFound = errors.New("fiscalyears: fiscal year not found")
	// ErrDuplicateCode indicates the code is already registered.
	ErrDuplicateCode = errors.New("fiscalyears: fiscal year code already exists")
	// ErrInvalidInput indicates the request failed validation.
	ErrInvalidInput = errors.New("fiscalyears: invalid input")
)

// FiscalYear represents a financial year window.
type FiscalYear struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive reports whether the year accepts new tagging.
func (fy FiscalYear) IsActive() bool {
	return fy.Status == StatusOpen
}

// CreateInput registers a fiscal year.
type CreateInput struct {
	Code      string
	StartDate time.Time
	EndDate   time.Time
	Status    Status
	ActorID   int64
}

// Validate checks code presence, date ordering and status.
func (in *CreateInput) Validate() error {
	in.Code = strings.TrimSpace(in.Code)
	if in.Code == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidInput)
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidInput)
	}
	if !in.StartDate.Before(in.EndDate) {
		return fmt.Errorf("%w: start date must precede end date", ErrInvalidInput)
	}
	if in.Status == "" {
		in.Status = StatusOpen
	}
	if in.Status != StatusOpen && in.Status != StatusClosed {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, in.Status)
	}
	return nil
}
