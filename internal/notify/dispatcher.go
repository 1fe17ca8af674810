// Package notify delivers lifecycle notifications by email and SMS.
// Delivery is best effort: every outcome is logged and counted, none is
// returned as an error.
package notify

import (
	"context"
	"time"

	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/aws"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/config"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/logger"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/metrics"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/models"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"

	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

type Config struct {
	EmailEnabled  bool
	SMSEnabled    bool
	FromEmail     string
	SMSSenderID   string
	AdminEmails   []string
	StorefrontURL string
	SupportEmail  string
	Timeout       time.Duration
}

// ConfigFromApp extracts the dispatcher settings.
func ConfigFromApp(cfg *config.Config) Config {
	awsCfg := cfg.Integrations.AWS
	return Config{
		EmailEnabled:  awsCfg.SES.Enabled,
		SMSEnabled:    awsCfg.SNS.Enabled,
		FromEmail:     awsCfg.SES.FromEmail,
		SMSSenderID:   awsCfg.SNS.DefaultSMSSenderID,
		AdminEmails:   cfg.Notifications.AdminEmails,
		StorefrontURL: cfg.Notifications.StorefrontURL,
		SupportEmail:  cfg.Notifications.SupportEmail,
		Timeout:       time.Duration(cfg.Notifications.Timeout) * time.Millisecond,
	}
}

type Dispatcher struct {
	cfg       Config
	ses       aws.SESService
	sns       aws.SNSService
	templates map[string]models.NotificationTemplate
	logger    logger.Logger
	now       func() time.Time
}

// NewDispatcher builds a dispatcher. Nil clients disable their channel.
func NewDispatcher(cfg Config, ses aws.SESService, sns aws.SNSService, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:       cfg,
		ses:       ses,
		sns:       sns,
		templates: defaultTemplates(),
		logger:    log.WithFields(map[string]interface{}{"component": "notify"}),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ApplicationSubmitted alerts every admin and acknowledges the applicant.
func (d *Dispatcher) ApplicationSubmitted(ctx context.Context, app *models.Application) []models.Notification {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	data := d.data(app)
	var out []models.Notification
	for _, admin := range d.cfg.AdminEmails {
		out = append(out, d.email(ctx, TemplateAdminNewApplication, admin, data))
	}
	out = append(out, d.email(ctx, TemplateApplicantSubmitted, app.Email, data))
	return out
}

// ApplicationApproved sends the next steps by email, and by SMS when enabled.
func (d *Dispatcher) ApplicationApproved(ctx context.Context, app *models.Application) []models.Notification {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	data := d.data(app)
	return []models.Notification{
		d.email(ctx, TemplateApplicantApproved, app.Email, data),
		d.sms(ctx, TemplateApplicantApproved, app.Phone, data),
	}
}

func (d *Dispatcher) ApplicationRejected(ctx context.Context, app *models.Application) []models.Notification {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	return []models.Notification{d.email(ctx, TemplateApplicantRejected, app.Email, d.data(app))}
}

func (d *Dispatcher) PaymentCompleted(ctx context.Context, app *models.Application) []models.Notification {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	return []models.Notification{d.email(ctx, TemplateApplicantPaymentCompleted, app.Email, d.data(app))}
}

func (d *Dispatcher) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.cfg.Timeout)
}

func (d *Dispatcher) data(app *models.Application) map[string]interface{} {
	return map[string]interface{}{
		"applicationId":    app.ID,
		"applicantName":    app.FullName,
		"applicantEmail":   app.Email,
		"applicantPhone":   app.Phone,
		"employmentStatus": app.EmploymentStatus,
		"monthlyIncome":    app.MonthlyIncome,
		"currency":         app.Currency,
		"totalAmount":      app.TotalAmount.StringFixed(2),
		"firstPayment":     app.FirstPayment.StringFixed(2),
		"monthlyPayment":   app.MonthlyPayment.StringFixed(2),
		"finalPayment":     app.FinalPayment.StringFixed(2),
		"months":           app.Months,
		"adminNotes":       app.AdminNotes,
		"paymentReference": app.PaymentReference,
		"storefrontUrl":    d.cfg.StorefrontURL,
		"supportEmail":     d.cfg.SupportEmail,
	}
}

func (d *Dispatcher) email(ctx context.Context, template, to string, data map[string]interface{}) models.Notification {
	n := models.Notification{Template: template, Recipient: to, Channel: ChannelEmail, SentAt: d.now().Format(time.RFC3339)}
	tmpl := d.templates[template]

	if !d.cfg.EmailEnabled || d.ses == nil || to == "" {
		n.Status = StatusDisabled
		return d.record(n)
	}

	out, err := d.ses.SendEmail(ctx, aws.BuildEmail(d.cfg.FromEmail, to,
		renderTemplate(tmpl.Subject, data), renderTemplate(tmpl.Body, data), renderTemplate(tmpl.HTMLBody, data)))
	if err != nil {
		n.Status, n.Error = StatusFailed, err.Error()
		return d.record(n)
	}
	n.Status = StatusSent
	if out != nil && out.MessageId != nil {
		n.MessageID = *out.MessageId
	}
	return d.record(n)
}

func (d *Dispatcher) sms(ctx context.Context, template, phone string, data map[string]interface{}) models.Notification {
	n := models.Notification{Template: template, Recipient: phone, Channel: ChannelSMS, SentAt: d.now().Format(time.RFC3339)}
	tmpl := d.templates[template]

	if !d.cfg.SMSEnabled || d.sns == nil || phone == "" || tmpl.SMSBody == "" {
		n.Status = StatusDisabled
		return d.record(n)
	}

	out, err := d.sns.Publish(ctx, aws.BuildSMS(phone, renderTemplate(tmpl.SMSBody, data), d.cfg.SMSSenderID))
	if err != nil {
		n.Status, n.Error = StatusFailed, err.Error()
		return d.record(n)
	}
	n.Status = StatusSent
	if out != nil && out.MessageId != nil {
		n.MessageID = *out.MessageId
	}
	return d.record(n)
}

func (d *Dispatcher) record(n models.Notification) models.Notification {
	metrics.NotificationsSent.WithLabelValues(n.Template, n.Channel, n.Status).Inc()

	fields := map[string]interface{}{
		"template": n.Template,
		"channel":  n.Channel,
		"status":   n.Status,
	}
	switch n.Status {
	case StatusFailed:
		fields["error"] = n.Error
		d.logger.Warn("notification delivery failed", fields)
	case StatusSent:
		fields["messageId"] = n.MessageID
		d.logger.Info("notification sent", fields)
	default:
		d.logger.Debug("notification channel disabled", fields)
	}
	return n
}
