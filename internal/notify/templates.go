package notify

import (
	"fmt"
	"regexp"

	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/models"
)

const (
	TemplateAdminNewApplication       = "admin_new_application"
	TemplateApplicantSubmitted        = "applicant_submitted"
	TemplateApplicantApproved         = "applicant_approved"
	TemplateApplicantRejected         = "applicant_rejected"
	TemplateApplicantPaymentCompleted = "applicant_payment_completed"
)

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// renderTemplate substitutes {{key}} placeholders. Keys missing from data
// render as the empty string.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	return placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		key := placeholder.FindStringSubmatch(m)[1]
		v, ok := data[key]
		if !ok || v == nil {
			return ""
		}
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	})
}

func defaultTemplates() map[string]models.NotificationTemplate {
	return map[string]models.NotificationTemplate{
		TemplateAdminNewApplication: {
			ID:      TemplateAdminNewApplication,
			Subject: "New Pay Small Small application from {{applicantName}}",
			Body: "A new installment application {{applicationId}} is awaiting review.\n\n" +
				"Applicant: {{applicantName}} ({{applicantEmail}}, {{applicantPhone}})\n" +
				"Employment: {{employmentStatus}}, income {{monthlyIncome}}\n" +
				"Cart total: {{currency}} {{totalAmount}} over {{months}} months\n" +
				"First payment: {{currency}} {{firstPayment}}\n",
		},
		TemplateApplicantSubmitted: {
			ID:      TemplateApplicantSubmitted,
			Subject: "We received your Pay Small Small application",
			Body: "Hi {{applicantName}},\n\n" +
				"Your installment application {{applicationId}} for {{currency}} {{totalAmount}} has been received " +
				"and is under review. We will email you once a decision is made.\n\n" +
				"Questions? Contact {{supportEmail}}.\n",
		},
		TemplateApplicantApproved: {
			ID:      TemplateApplicantApproved,
			Subject: "Your Pay Small Small application is approved",
			Body: "Hi {{applicantName}},\n\n" +
				"Good news: application {{applicationId}} has been approved.\n\n" +
				"Next steps: pay your first installment of {{currency}} {{firstPayment}} at {{storefrontUrl}}. " +
				"The balance is spread over {{months}} monthly payments of {{currency}} {{monthlyPayment}}, " +
				"with a final payment of {{currency}} {{finalPayment}}.\n\n" +
				"{{adminNotes}}\n",
			SMSBody: "RenewableZmart: your installment application is approved. Pay {{currency}} {{firstPayment}} " +
				"at {{storefrontUrl}} to start.",
		},
		TemplateApplicantRejected: {
			ID:      TemplateApplicantRejected,
			Subject: "Update on your Pay Small Small application",
			Body: "Hi {{applicantName}},\n\n" +
				"We are unable to approve installment application {{applicationId}} at this time.\n\n" +
				"{{adminNotes}}\n\n" +
				"You can still purchase your items at {{storefrontUrl}}. Contact {{supportEmail}} with questions.\n",
		},
		TemplateApplicantPaymentCompleted: {
			ID:      TemplateApplicantPaymentCompleted,
			Subject: "First installment received",
			Body: "Hi {{applicantName}},\n\n" +
				"We received your first payment for application {{applicationId}} (reference {{paymentReference}}). " +
				"Your order is now being processed.\n",
		},
	}
}
