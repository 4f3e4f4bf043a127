package service

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"os"
	"strings"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"studiobook/internal/db"
	"studiobook/internal/entities"
)

const studioName = "StudioBook"

var bookingEmailTmpl = template.Must(template.New("booking_email").Parse(`
<html>
  <body style="font-family: sans-serif;">
    <h2>{{.StudioName}}</h2>
    <p>Hello {{.CustomerName}},</p>
    <p>Your booking is <strong>{{.Status}}</strong>.</p>
    <ul>
      <li>Reference: {{.Reference}}</li>
      <li>Date: {{.Date}}</li>
      <li>Time: {{.TimeSlot}}</li>
    </ul>
    <p>Thank you for choosing {{.StudioName}}.</p>
    <p>&copy; {{.CurrentYear}} {{.StudioName}}. All rights reserved.</p>
  </body>
</html>`))

// SenderService is the notification collaborator. Every send is
// fire-and-forget: failures are logged and swallowed, never surfaced to the
// booking flow.
type SenderService struct{}

func NewSenderService() *SenderService {
	return &SenderService{}
}

// BookingStatusChanged emails and texts the customer about the new status.
func (s *SenderService) BookingStatusChanged(b *db.Booking, status string) {
	data := entities.BookingEmailData{
		CustomerName: b.CustomerName,
		Reference:    b.Reference,
		Date:         b.Date,
		TimeSlot:     b.TimeSlot,
		Status:       status,
		CurrentYear:  time.Now().Year(),
		StudioName:   studioName,
	}

	subject := fmt.Sprintf("Your %s booking is %s - Reference: %s", studioName, status, b.Reference)
	plainBody := fmt.Sprintf(
		"Hello %s,\n\nYour booking at %s is %s.\n\n"+
			"Booking details:\n"+
			"Reference: %s\n"+
			"Date: %s\n"+
			"Time: %s\n\n"+
			"Thank you for choosing %s.",
		b.CustomerName, studioName, status, b.Reference, b.Date, b.TimeSlot, studioName,
	)

	var htmlBody bytes.Buffer
	if err := bookingEmailTmpl.Execute(&htmlBody, data); err != nil {
		log.Printf("ALERT: Error rendering booking email template for %s: %v", b.Reference, err)
	}

	go func(toEmail, toName, subject, plainBody, htmlBody, reference string) {
		if err := SendEmailWithSendGrid(toEmail, toName, subject, plainBody, htmlBody); err != nil {
			log.Printf("ALERT (async): Failed to send email for booking %s: %v", reference, err)
		}
	}(b.CustomerEmail, b.CustomerName, subject, plainBody, htmlBody.String(), b.Reference)

	if b.CustomerPhone != "" {
		smsBody := fmt.Sprintf("%s: Booking %s is %s.\nDate: %s %s.\nMore details in your email.",
			studioName, b.Reference, status, b.Date, b.TimeSlot)
		go func(phone, body, reference string) {
			if err := SendSMS(phone, body); err != nil {
				log.Printf("ALERT (async): Failed to send SMS for booking %s: %v", reference, err)
			}
		}(b.CustomerPhone, smsBody, b.Reference)
	}
}

// SendEmailWithSendGrid delivers one email through SendGrid.
func SendEmailWithSendGrid(toEmailAddress, toName, subject, plainTextContent, htmlContent string) error {
	sendgridAPIKey := os.Getenv("SENDGRID_API_KEY")
	if sendgridAPIKey == "" {
		return fmt.Errorf("SENDGRID_API_KEY not configured")
	}
	fromEmail := os.Getenv("SENDGRID_FROM_EMAIL")
	if fromEmail == "" {
		return fmt.Errorf("SENDGRID_FROM_EMAIL not configured")
	}
	fromName := os.Getenv("SENDGRID_FROM_NAME")
	if fromName == "" {
		fromName = studioName
	}

	from := mail.NewEmail(fromName, fromEmail)
	to := mail.NewEmail(toName, toEmailAddress)
	message := mail.NewSingleEmail(from, subject, to, plainTextContent, htmlContent)

	client := sendgrid.NewSendClient(sendgridAPIKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("sending email through SendGrid failed: %w", err)
	}
	if response.StatusCode >= 200 && response.StatusCode < 300 {
		log.Printf("Email sent to %s (subject: %s), status %d", toEmailAddress, subject, response.StatusCode)
		return nil
	}
	return fmt.Errorf("SendGrid returned status %d: %s", response.StatusCode, response.Body)
}

// SendSMS delivers one SMS through Twilio.
func SendSMS(toNumber, messageBody string) error {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	fromNumber := os.Getenv("TWILIO_FROM_NUMBER")
	if accountSid == "" || authToken == "" || fromNumber == "" {
		return fmt.Errorf("Twilio credentials not fully configured")
	}
	if !strings.HasPrefix(toNumber, "+") {
		log.Printf("WARNING: destination number %q is not E.164, SMS may fail", toNumber)
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username:   accountSid,
		Password:   authToken,
		AccountSid: accountSid,
	})

	params := &openapi.CreateMessageParams{}
	params.SetTo(toNumber)
	params.SetFrom(fromNumber)
	params.SetBody(messageBody)

	resp, err := client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("sending SMS failed: %w", err)
	}
	if resp != nil && resp.Sid != nil {
		log.Printf("SMS sent to %s, message SID %s", toNumber, *resp.Sid)
	}
	return nil
}
