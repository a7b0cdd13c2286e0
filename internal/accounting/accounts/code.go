package accounts

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

const (
	// CodeSeparator joins a parent code and a generated suffix.
	CodeSeparator = "-"
	// MinSuffixWidth is the zero-padded width of generated suffixes.
	MinSuffixWidth = 2
	maxRootCodeLen = 32
)

// ValidateRootCode accepts letters and digits only. The separator is reserved
// for generated codes so a root can never shadow a sub-account code.
func ValidateRootCode(code string) error {
	if code == "" {
		return fmt.Errorf("%w: code is required for root accounts", ErrInvalidInput)
	}
	if len(code) > maxRootCodeLen {
		return fmt.Errorf("%w: code longer than %d characters", ErrInvalidInput, maxRootCodeLen)
	}
	for _, r := range code {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return fmt.Errorf("%w: code %q may only contain letters and digits", ErrInvalidInput, code)
		}
	}
	return nil
}

// ChildCode renders parentCode + "-" + seq padded to width.
func ChildCode(parentCode string, seq, width int) string {
	if width < MinSuffixWidth {
		width = MinSuffixWidth
	}
	return fmt.Sprintf("%s%s%0*d", parentCode, CodeSeparator, width, seq)
}

// ChildSuffix extracts the numeric suffix of a generated child code along
// with its rendered width. ok is false when code does not follow the pattern.
func ChildSuffix(parentCode, code string) (value, width int, ok bool) {
	prefix := parentCode + CodeSeparator
	if !strings.HasPrefix(code, prefix) {
		return 0, 0, false
	}
	suffix := code[len(prefix):]
	if suffix == "" {
		return 0, 0, false
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return 0, 0, false
		}
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, 0, false
	}
	return n, len(suffix), true
}

// SuffixFloor scans sibling codes and returns the largest suffix in use and
// the widest rendering, never narrower than MinSuffixWidth.
func SuffixFloor(parentCode string, siblings []string) (maxValue, width int) {
	width = MinSuffixWidth
	for _, code := range siblings {
		n, w, ok := ChildSuffix(parentCode, code)
		if !ok {
			continue
		}
		if n > maxValue {
			maxValue = n
		}
		if w > width {
			width = w
		}
	}
	return maxValue, width
}

// CompareCodes orders codes segment by segment, numerically where both
// segments are numbers, so "1-10" sorts after "1-9".
func CompareCodes(a, b string) int {
	as := strings.Split(a, CodeSeparator)
	bs := strings.Split(b, CodeSeparator)
	for i := 0; i < len(as) && i < len(bs); i++ {
		if c := compareSegment(as[i], bs[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	}
	return 0
}

func compareSegment(a, b string) int {
	an, aerr := strconv.ParseUint(a, 10, 64)
	bn, berr := strconv.ParseUint(b, 10, 64)
	if aerr == nil && berr == nil {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		}
	}
	return strings.Compare(a, b)
}

// SortByCode sorts accounts in place by CompareCodes.
func SortByCode(accounts []Account) {
	sort.SliceStable(accounts, func(i, j int) bool {
		return CompareCodes(accounts[i].Code, accounts[j].Code) < 0
	})
}
