package services

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/conciergehq/concierge-backend/internal/models"
)

// NotifyService sends SMS confirmations for booked appointments via Twilio
type NotifyService struct {
	client *twilio.RestClient
	from   string
	logger *logrus.Logger
}

// NewNotifyService creates a Twilio-backed notifier. Returns an error when
// the Twilio credentials are not configured; callers may treat the notifier
// as optional.
func NewNotifyService(logger *logrus.Logger) (*NotifyService, error) {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_FROM") // Format: "+14155238886"

	if accountSid == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials in environment variables")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})

	return &NotifyService{client: client, from: from, logger: logger}, nil
}

// SendBookingConfirmation texts the appointment summary to the phone number
// collected during booking
func (n *NotifyService) SendBookingConfirmation(appt *models.Appointment) error {
	body := fmt.Sprintf(
		"Hi %s, your appointment on %s is confirmed. Reference: %s. We'll send a reminder to %s.",
		appt.Name, appt.Date, appt.ID, appt.Email,
	)

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(n.from)
	params.SetTo("+" + appt.Phone)
	params.SetBody(body)

	resp, err := n.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("failed to send confirmation SMS: %w", err)
	}

	n.logger.WithFields(logrus.Fields{
		"appointment_id": appt.ID,
		"message_sid":    deref(resp.Sid),
	}).Info("booking confirmation sent")
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
