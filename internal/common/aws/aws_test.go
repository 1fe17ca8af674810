package aws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEmail(t *testing.T) {
	in := BuildEmail("noreply@renewablezmart.com", "ada@example.com", "Approved", "plain", "")

	require.Len(t, in.Destination.ToAddresses, 1)
	assert.Equal(t, "ada@example.com", in.Destination.ToAddresses[0])
	assert.Equal(t, "noreply@renewablezmart.com", *in.Source)
	assert.Equal(t, "Approved", *in.Message.Subject.Data)
	assert.Equal(t, "plain", *in.Message.Body.Text.Data)
	assert.Nil(t, in.Message.Body.Html)

	withHTML := BuildEmail("a@b.c", "d@e.f", "s", "t", "<p>t</p>")
	require.NotNil(t, withHTML.Message.Body.Html)
	assert.Equal(t, "<p>t</p>", *withHTML.Message.Body.Html.Data)
}

func TestBuildSMS(t *testing.T) {
	in := BuildSMS("+2348012345678", "hello", "RZMART")
	assert.Equal(t, "+2348012345678", *in.PhoneNumber)
	assert.Equal(t, "hello", *in.Message)
	assert.Equal(t, "RZMART", *in.MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue)
	assert.Equal(t, "Transactional", *in.MessageAttributes["AWS.SNS.SMS.SMSType"].StringValue)

	noSender := BuildSMS("+2348012345678", "hello", "")
	_, ok := noSender.MessageAttributes["AWS.SNS.SMS.SenderID"]
	assert.False(t, ok)
}
