package accounts

import (
	"context"
	"errors"
)

// DefaultChart lists the root accounts seeded into an empty chart.
func DefaultChart() []CreateInput {
	return []CreateInput{
		{Code: "1", NameAr: "الأصول", NameEn: "Assets", Nature: NatureDebit},
		{Code: "2", NameAr: "الخصوم", NameEn: "Liabilities", Nature: NatureCredit},
		{Code: "3", NameAr: "حقوق الملكية", NameEn: "Equity", Nature: NatureCredit},
		{Code: "4", NameAr: "الإيرادات", NameEn: "Revenue", Nature: NatureCredit},
		{Code: "5", NameAr: "المصروفات", NameEn: "Expenses", Nature: NatureDebit},
	}
}

// SeedDefaults creates the missing default roots and returns how many were added.
func (s *Service) SeedDefaults(ctx context.Context, actorID int64) (int, error) {
	created := 0
	for _, in := range DefaultChart() {
		in.ActorID = actorID
		if _, err := s.Create(ctx, in); err != nil {
			if errors.Is(err, ErrDuplicateCode) {
				continue
			}
			return created, err
		}
		created++
	}
	return created, nil
}
