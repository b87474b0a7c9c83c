package sms

import (
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type TwilioClient struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioClient(accountSID, authToken, from string) *TwilioClient {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioClient{client: client, from: from}
}

// Send texts body to a Kenyan number given in 2547XXXXXXXX or E.164 form.
func (t *TwilioClient) Send(to, body string) error {
	if !strings.HasPrefix(to, "+") {
		to = "+" + to
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.from)
	params.SetBody(body)

	_, err := t.client.Api.CreateMessage(params)
	return err
}
