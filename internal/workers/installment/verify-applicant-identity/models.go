// internal/workers/installment/verify-applicant-identity/models.go
package verifyapplicantidentity

import "github.com/vmaktproject-ai/renewableZmart-sub001/internal/models"

type Input struct {
	IDNumber  string `json:"idNumber"`
	FullName  string `json:"fullName"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

type Output struct {
	IdentityVerified bool                     `json:"identityVerified"`
	Verification     *models.VerifiedIdentity `json:"verification"`
	VerifiedName     string                   `json:"verifiedName"`
}
