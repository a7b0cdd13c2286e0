package accounts

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChildCodePadsSuffix(t *testing.T) {
	assert.Equal(t, "1-01", ChildCode("1", 1, 2))
	assert.Equal(t, "1-01-07", ChildCode("1-01", 7, 0))
	assert.Equal(t, "2-100", ChildCode("2", 100, 2))
	assert.Equal(t, "2-005", ChildCode("2", 5, 3))
}

func TestChildSuffixParsesGeneratedCodes(t *testing.T) {
	n, w, ok := ChildSuffix("1", "1-09")
	assert.True(t, ok)
	assert.Equal(t, 9, n)
	assert.Equal(t, 2, w)

	_, _, ok = ChildSuffix("1", "10-01")
	assert.False(t, ok)
	_, _, ok = ChildSuffix("1", "1-")
	assert.False(t, ok)
	_, _, ok = ChildSuffix("1", "1-01-02")
	assert.False(t, ok)
}

func TestSuffixFloorTracksMaxAndWidth(t *testing.T) {
	maxValue, width := SuffixFloor("P", []string{"P-01", "P-02", "legacy"})
	assert.Equal(t, 2, maxValue)
	assert.Equal(t, 2, width)

	maxValue, width = SuffixFloor("P", []string{"P-004", "P-010"})
	assert.Equal(t, 10, maxValue)
	assert.Equal(t, 3, width)

	maxValue, width = SuffixFloor("P", nil)
	assert.Equal(t, 0, maxValue)
	assert.Equal(t, MinSuffixWidth, width)
}

func TestCompareCodesIsNumericPerSegment(t *testing.T) {
	accounts := []Account{{Code: "10"}, {Code: "1-10"}, {Code: "2"}, {Code: "1-9"}, {Code: "1"}, {Code: "1-09-01"}}
	SortByCode(accounts)
	got := make([]string, 0, len(accounts))
	for _, a := range accounts {
		got = append(got, a.Code)
	}
	assert.Equal(t, []string{"1", "1-09-01", "1-9", "1-10", "2", "10"}, got)
}

func TestValidateRootCode(t *testing.T) {
	assert.NoError(t, ValidateRootCode("1"))
	assert.NoError(t, ValidateRootCode("A100"))
	for _, code := range []string{"", "1-01", "1 2", "x.y"} {
		if err := ValidateRootCode(code); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %q, got %v", code, err)
		}
	}
}
