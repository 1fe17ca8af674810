package installment

import (
	"fmt"
	"strings"

	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/errors"
)

// VerifiedName is the name returned by the identity service.
type VerifiedName struct {
	FirstName  string
	MiddleName string
	LastName   string
}

// NormalizeName lowercases, trims and collapses internal whitespace.
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// FullName joins the verified parts, skipping an empty middle name.
func (v VerifiedName) FullName() string {
	return NormalizeName(strings.Join([]string{v.FirstName, v.MiddleName, v.LastName}, " "))
}

// CrossCheckName compares the submitted name with the verified identity.
func CrossCheckName(submitted string, verified VerifiedName) error {
	if strings.TrimSpace(verified.FirstName) == "" || strings.TrimSpace(verified.LastName) == "" {
		return errors.NewUnverifiedIdentityError("verified identity is missing a first or last name")
	}

	got := NormalizeName(submitted)
	want := verified.FullName()
	if got != want {
		return errors.NewNameMismatchError(fmt.Sprintf("submitted name %q does not match verified name %q", got, want))
	}
	return nil
}
