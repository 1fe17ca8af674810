package notify

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/config"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/logger"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/installment"
	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockSESService struct {
	mu            sync.Mutex
	sent          []*ses.SendEmailInput
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.mu.Lock()
	m.sent = append(m.sent, params)
	m.mu.Unlock()
	if m.SendEmailFunc == nil {
		return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
	}
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() Config {
	return Config{
		EmailEnabled:  true,
		SMSEnabled:    true,
		FromEmail:     "noreply@renewablezmart.com",
		SMSSenderID:   "RZMART",
		AdminEmails:   []string{"ops@renewablezmart.com", "credit@renewablezmart.com"},
		StorefrontURL: "https://renewablezmart.com/checkout",
		SupportEmail:  "support@renewablezmart.com",
		Timeout:       2 * time.Second,
	}
}

func createTestApplication() *models.Application {
	return &models.Application{
		ID: "app-1",
		Applicant: models.Applicant{
			FullName: "Ada Obi",
			Email:    "ada@example.com",
			Phone:    "+2348012345678",
		},
		TotalAmount:    decimal.RequireFromString("280000"),
		FirstPayment:   decimal.RequireFromString("140000"),
		MonthlyPayment: decimal.RequireFromString("23333.33"),
		FinalPayment:   decimal.RequireFromString("23333.35"),
		Months:         6,
		Currency:       "NGN",
		Status:         installment.StatusApproved,
	}
}

func statuses(ns []models.Notification) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.Channel + ":" + n.Status
	}
	return out
}

// ==========================
// Template Rendering
// ==========================

func TestRenderTemplate(t *testing.T) {
	data := map[string]interface{}{"name": "Ada", "months": 6, "nothing": nil}

	assert.Equal(t, "Hi Ada, 6 months", renderTemplate("Hi {{name}}, {{ months }} months", data))
	assert.Equal(t, "Hi , ok", renderTemplate("Hi {{missing}}, ok", data))
	assert.Equal(t, "[]", renderTemplate("[{{nothing}}]", data))
	assert.Equal(t, "no placeholders", renderTemplate("no placeholders", data))
}

func TestDefaultTemplates_RenderCompletely(t *testing.T) {
	d := NewDispatcher(createTestConfig(), nil, nil, logger.NewNoOpLogger())
	data := d.data(createTestApplication())

	for id, tmpl := range defaultTemplates() {
		assert.NotContains(t, renderTemplate(tmpl.Subject, data), "{{", id)
		assert.NotContains(t, renderTemplate(tmpl.Body, data), "{{", id)
	}
}

// ==========================
// Dispatch
// ==========================

func TestApplicationSubmitted_NotifiesAdminsAndApplicant(t *testing.T) {
	sesMock := &MockSESService{}
	d := NewDispatcher(createTestConfig(), sesMock, nil, logger.NewTestLogger(t))

	out := d.ApplicationSubmitted(context.Background(), createTestApplication())
	require.Len(t, out, 3)
	assert.Equal(t, TemplateAdminNewApplication, out[0].Template)
	assert.Equal(t, "ops@renewablezmart.com", out[0].Recipient)
	assert.Equal(t, TemplateApplicantSubmitted, out[2].Template)
	assert.Equal(t, "msg-1", out[2].MessageID)

	require.Len(t, sesMock.sent, 3)
	assert.Contains(t, *sesMock.sent[0].Message.Subject.Data, "Ada Obi")
	assert.Contains(t, *sesMock.sent[2].Message.Body.Text.Data, "NGN 280000.00")
}

func TestApplicationApproved_EmailAndSMS(t *testing.T) {
	var smsBody string
	snsMock := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			smsBody = *params.Message
			return &sns.PublishOutput{MessageId: aws.String("sms-1")}, nil
		},
	}
	sesMock := &MockSESService{}
	d := NewDispatcher(createTestConfig(), sesMock, snsMock, logger.NewTestLogger(t))

	out := d.ApplicationApproved(context.Background(), createTestApplication())
	assert.Equal(t, []string{"email:sent", "sms:sent"}, statuses(out))
	assert.Contains(t, smsBody, "NGN 140000.00")

	body := *sesMock.sent[0].Message.Body.Text.Data
	assert.Contains(t, body, "23333.33")
	assert.Contains(t, body, "23333.35")
	assert.Contains(t, body, "https://renewablezmart.com/checkout")
}

func TestDispatch_FailuresAreReportedNotReturned(t *testing.T) {
	sesMock := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, stderrors.New("throttled")
		},
	}
	snsMock := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, stderrors.New("opted out")
		},
	}
	d := NewDispatcher(createTestConfig(), sesMock, snsMock, logger.NewTestLogger(t))

	out := d.ApplicationApproved(context.Background(), createTestApplication())
	assert.Equal(t, []string{"email:failed", "sms:failed"}, statuses(out))
	assert.Equal(t, "throttled", out[0].Error)
}

func TestDispatch_DisabledChannels(t *testing.T) {
	cfg := createTestConfig()
	cfg.EmailEnabled = false
	cfg.SMSEnabled = false
	d := NewDispatcher(cfg, &MockSESService{}, nil, logger.NewTestLogger(t))

	out := d.ApplicationApproved(context.Background(), createTestApplication())
	assert.Equal(t, []string{"email:disabled", "sms:disabled"}, statuses(out))

	rejected := d.ApplicationRejected(context.Background(), createTestApplication())
	assert.Equal(t, []string{"email:disabled"}, statuses(rejected))
}

func TestPaymentCompleted_IncludesReference(t *testing.T) {
	sesMock := &MockSESService{}
	d := NewDispatcher(createTestConfig(), sesMock, nil, logger.NewTestLogger(t))

	app := createTestApplication()
	app.PaymentReference = "RZ-PSS-abc"
	out := d.PaymentCompleted(context.Background(), app)
	assert.Equal(t, []string{"email:sent"}, statuses(out))
	assert.True(t, strings.Contains(*sesMock.sent[0].Message.Body.Text.Data, "RZ-PSS-abc"))
}

func TestConfigFromApp(t *testing.T) {
	cfg := &config.Config{}
	cfg.Integrations.AWS.SES.Enabled = true
	cfg.Integrations.AWS.SES.FromEmail = "noreply@renewablezmart.com"
	cfg.Notifications.AdminEmails = []string{"ops@renewablezmart.com"}
	cfg.Notifications.Timeout = 1500

	got := ConfigFromApp(cfg)
	assert.True(t, got.EmailEnabled)
	assert.False(t, got.SMSEnabled)
	assert.Equal(t, 1500*time.Millisecond, got.Timeout)
	assert.Equal(t, []string{"ops@renewablezmart.com"}, got.AdminEmails)
}
