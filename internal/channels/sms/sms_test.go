package sms

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NordCoder/Lessonbell/internal/domain/delivery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	twclient "github.com/twilio/twilio-go/client"
	api "github.com/twilio/twilio-go/rest/api/v2010"
)

type mockCreator struct{ mock.Mock }

func (m *mockCreator) CreateMessage(p *api.CreateMessageParams) (*api.ApiV2010Message, error) {
	args := m.Called(p)
	msg, _ := args.Get(0).(*api.ApiV2010Message)
	return msg, args.Error(1)
}

func sid(s string) *api.ApiV2010Message { return &api.ApiV2010Message{Sid: &s} }

func TestNormalize(t *testing.T) {
	got, err := Normalize("+1 (650) 253-0000", "")
	require.NoError(t, err)
	assert.Equal(t, "+16502530000", got)

	got, err = Normalize("020 7946 0018", "gb")
	require.NoError(t, err)
	assert.Equal(t, "+442079460018", got)

	for _, bad := range []string{"", "6502530000", "+1000"} {
		_, err := Normalize(bad, "")
		assert.ErrorIs(t, err, delivery.ErrInvalidRecipient, bad)
	}
}

func TestTwilio_Send(t *testing.T) {
	mc := new(mockCreator)
	mc.On("CreateMessage", mock.MatchedBy(func(p *api.CreateMessageParams) bool {
		return *p.To == "+16502530000" && *p.From == "+15005550006" && *p.Body == "hi"
	})).Return(sid("SM123"), nil).Once()

	tw := newTwilio(mc, Config{From: "+15005550006", Timeout: time.Second}, nil)
	res, err := tw.SendSMS(context.Background(), delivery.SMSMessage{To: "+16502530000", Body: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "SM123", res.MessageID)
	mc.AssertExpectations(t)
}

func TestTwilio_WhatsAppPrefixesBothEnds(t *testing.T) {
	mc := new(mockCreator)
	mc.On("CreateMessage", mock.MatchedBy(func(p *api.CreateMessageParams) bool {
		return *p.To == "whatsapp:+16502530000" && *p.From == "whatsapp:+15005550006"
	})).Return(sid("SM9"), nil).Once()

	tw := newTwilio(mc, Config{From: "+15005550006", WhatsApp: true, Timeout: time.Second}, nil)
	_, err := tw.SendSMS(context.Background(), delivery.SMSMessage{To: "+16502530000", Body: "x"})
	require.NoError(t, err)
	mc.AssertExpectations(t)
}

func TestTwilio_InvalidNumberNeverCallsProvider(t *testing.T) {
	mc := new(mockCreator)
	tw := newTwilio(mc, Config{From: "+15005550006"}, nil)

	_, err := tw.SendSMS(context.Background(), delivery.SMSMessage{To: "12", Body: "x"})
	assert.ErrorIs(t, err, delivery.ErrInvalidRecipient)
	mc.AssertNotCalled(t, "CreateMessage", mock.Anything)
}

func TestTwilio_ErrorMapping(t *testing.T) {
	mc := new(mockCreator)
	mc.On("CreateMessage", mock.Anything).Return(nil, &twclient.TwilioRestError{Code: 21614, Message: "not a mobile", Status: 400}).Once()
	mc.On("CreateMessage", mock.Anything).Return(nil, errors.New("503 upstream")).Once()

	tw := newTwilio(mc, Config{From: "+15005550006", Timeout: time.Second}, nil)
	ctx := context.Background()

	_, err := tw.SendSMS(ctx, delivery.SMSMessage{To: "+16502530000", Body: "x"})
	assert.ErrorIs(t, err, delivery.ErrInvalidRecipient)

	_, err = tw.SendSMS(ctx, delivery.SMSMessage{To: "+16502530000", Body: "x"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, delivery.ErrInvalidRecipient)
}

func TestTwilio_RateLimitHonoursContext(t *testing.T) {
	mc := new(mockCreator)
	mc.On("CreateMessage", mock.Anything).Return(sid("SM1"), nil)

	tw := newTwilio(mc, Config{From: "+15005550006", Rate: 0.001, Burst: 1, Timeout: time.Second}, nil)
	_, err := tw.SendSMS(context.Background(), delivery.SMSMessage{To: "+16502530000", Body: "x"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = tw.SendSMS(ctx, delivery.SMSMessage{To: "+16502530000", Body: "x"})
	assert.Error(t, err)
	mc.AssertNumberOfCalls(t, "CreateMessage", 1)
}
