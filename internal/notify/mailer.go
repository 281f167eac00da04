package notify

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"feathermart/internal/domain"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendGridHost = "https://api.sendgrid.com"

type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SendGridMailer delivers mail through the SendGrid v3 API.
type SendGridMailer struct {
	apiKey   string
	from     string
	fromName string
	host     string
	logger   *log.Logger
}

func NewSendGrid(apiKey, from string, logger *log.Logger) *SendGridMailer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &SendGridMailer{apiKey: apiKey, from: from, fromName: "FeatherMart", host: sendGridHost, logger: logger}
}

func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	if m.apiKey == "" {
		return fmt.Errorf("sendgrid api key is empty")
	}
	if msg.To == "" {
		return fmt.Errorf("to address is empty")
	}

	message := mail.NewSingleEmail(
		mail.NewEmail(m.fromName, m.from),
		msg.Subject,
		mail.NewEmail(msg.ToName, msg.To),
		msg.Text,
		fmt.Sprintf("<pre>%s</pre>", msg.Text),
	)

	request := sendgrid.GetRequest(m.apiKey, "/v3/mail/send", m.host)
	request.Method = "POST"
	client := &sendgrid.Client{Request: request}

	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", response.StatusCode, response.Body)
	}
	m.logger.Printf("notify: mail sent status=%d to=%s subject=%q", response.StatusCode, msg.To, msg.Subject)
	return nil
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	logger *log.Logger
}

func NewLogMailer(logger *log.Logger) *LogMailer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Printf("notify: mail to=%s subject=%q (not sent, no provider configured)", msg.To, msg.Subject)
	return nil
}

// OrderConfirmation renders the confirmation mail for a placed order.
func OrderConfirmation(order domain.Order) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order, %s!\n\n", order.ShippingAddress.Name)
	fmt.Fprintf(&b, "Order %s\n\n", order.ID)
	for _, line := range order.Lines {
		fmt.Fprintf(&b, "%d x %s  %s\n", line.Quantity, line.ProductName, FormatCents(line.TotalCents()))
	}
	fmt.Fprintf(&b, "\nSubtotal: %s\n", FormatCents(order.SubtotalCents))
	fmt.Fprintf(&b, "Tax: %s\n", FormatCents(order.TaxCents))
	fmt.Fprintf(&b, "Shipping: %s\n", FormatCents(order.ShippingCents))
	fmt.Fprintf(&b, "Total: %s\n\n", FormatCents(order.TotalCents))
	a := order.ShippingAddress
	fmt.Fprintf(&b, "Ships to:\n%s\n%s\n%s %s %s\n%s\n", a.Name, a.Street, a.City, a.State, a.PostalCode, a.Country)

	return Message{
		To:      a.Email,
		ToName:  a.Name,
		Subject: fmt.Sprintf("FeatherMart order %s confirmed", shortID(order.ID)),
		Text:    b.String(),
	}
}

func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
