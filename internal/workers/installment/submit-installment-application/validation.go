// internal/workers/installment/submit-installment-application/validation.go
package submitinstallmentapplication

import "github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/validation"

// GetInputSchema leaves additional properties open since the job carries
// every variable of the process instance.
func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"fullName", "email", "phone", "idNumber", "totalAmount", "cartItems"},
		Properties: map[string]validation.Property{
			"fullName": {
				Type:        "string",
				Description: "Applicant name as submitted",
				MinLength:   validation.IntPtr(1),
				MaxLength:   validation.IntPtr(200),
			},
			"email": {
				Type:        "string",
				Description: "Applicant email address",
				MinLength:   validation.IntPtr(5),
				MaxLength:   validation.IntPtr(255),
			},
			"phone": {
				Type:        "string",
				Description: "Applicant phone number",
				MaxLength:   validation.IntPtr(50),
			},
			"address": {
				Type:      "string",
				MaxLength: validation.IntPtr(500),
			},
			"employmentStatus": {
				Type:      "string",
				MaxLength: validation.IntPtr(100),
			},
			"monthlyIncome": {
				Type:      "string",
				MaxLength: validation.IntPtr(100),
			},
			"organization": {
				Type:      "string",
				MaxLength: validation.IntPtr(200),
			},
			"idNumber": {
				Type:        "string",
				Description: "11-digit bank verification number",
				Pattern:     `^[0-9]{11}$`,
			},
			"verification": {
				Type:        "object",
				Description: "Verified identity payload",
			},
			"totalAmount": {
				Description: "Order total as a number or decimal string",
			},
			"firstPayment": {
				Description: "Down payment shown to the applicant",
			},
			"monthlyPayment": {
				Description: "Monthly payment shown to the applicant",
			},
			"months": {
				Type:    "integer",
				Minimum: validation.FloatPtr(0),
			},
			"cartItems": {
				Type:     "array",
				MinItems: validation.IntPtr(1),
				Items: &validation.Property{
					Type:     "object",
					Required: []string{"productId", "quantity", "price"},
					Properties: map[string]validation.Property{
						"productId":   {Type: "string", MinLength: validation.IntPtr(1)},
						"productName": {Type: "string"},
						"quantity":    {Type: "integer", Minimum: validation.FloatPtr(1)},
						"price":       {Description: "Unit price as a number or decimal string"},
					},
				},
			},
		},
	}
}
