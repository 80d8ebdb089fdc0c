package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sleepoutside/backend/internal/models"
)

var ErrNoRecipient = errors.New("order has no email address")

// OrderMailer sends order confirmations through the SendGrid v3 API.
type OrderMailer struct {
	APIKey     string
	FromEmail  string
	BccEmail   string
	HTTPClient *http.Client
	Endpoint   string
}

func NewOrderMailer(apiKey, fromEmail, bccEmail string) *OrderMailer {
	return &OrderMailer{
		APIKey:    strings.TrimSpace(apiKey),
		FromEmail: strings.TrimSpace(fromEmail),
		BccEmail:  strings.TrimSpace(bccEmail),
		Endpoint:  "https://api.sendgrid.com/v3/mail/send",
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Enabled reports whether the mailer has credentials and a sender.
func (m *OrderMailer) Enabled() bool {
	return m != nil && m.APIKey != "" && m.FromEmail != ""
}

type sendGridEmailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridPersonalization struct {
	To         []sendGridEmailAddress `json:"to"`
	Bcc        []sendGridEmailAddress `json:"bcc,omitempty"`
	Subject    string                 `json:"subject"`
	CustomArgs map[string]string      `json:"custom_args,omitempty"`
}

type sendGridMailSendRequest struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridEmailAddress      `json:"from"`
	Content          []sendGridContent         `json:"content"`
}

func (m *OrderMailer) SendOrderConfirmation(ctx context.Context, order models.Order) error {
	if !m.Enabled() {
		return fmt.Errorf("sendgrid mailer not configured")
	}
	to := strings.TrimSpace(order.Email)
	if to == "" {
		return ErrNoRecipient
	}

	name := strings.TrimSpace(order.FirstName + " " + order.LastName)
	personalization := sendGridPersonalization{
		To:      []sendGridEmailAddress{{Email: to, Name: name}},
		Subject: fmt.Sprintf("Sleep Outside order #%s", order.ID),
		CustomArgs: map[string]string{
			"order_id": order.ID,
		},
	}
	if m.BccEmail != "" && !strings.EqualFold(m.BccEmail, to) {
		personalization.Bcc = []sendGridEmailAddress{{Email: m.BccEmail}}
	}

	reqBody := sendGridMailSendRequest{
		Personalizations: []sendGridPersonalization{personalization},
		From: sendGridEmailAddress{
			Email: m.FromEmail,
			Name:  "Sleep Outside",
		},
		Content: []sendGridContent{
			{Type: "text/plain", Value: orderPlainText(order)},
		},
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := m.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// SendGrid returns 202 Accepted on success.
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("sendgrid mail send http %d", resp.StatusCode)
	}
	return nil
}

func orderPlainText(order models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thanks for your order, %s!\n\n", strings.TrimSpace(order.FirstName))
	fmt.Fprintf(&b, "Order: %s\nPlaced: %s\n\n", order.ID, order.OrderDate.Format(time.RFC1123))
	for _, l := range order.Lines {
		line := l.Name
		if l.ColorLabel != "" {
			line += " (" + l.ColorLabel + ")"
		}
		fmt.Fprintf(&b, "%d x %s  $%.2f\n", l.Quantity, line, l.Subtotal())
	}
	fmt.Fprintf(&b, "\nItems: %d\nTotal: $%.2f\n\n", order.ItemCount, order.OrderTotal)
	fmt.Fprintf(&b, "Ship to:\n%s %s\n%s\n%s, %s %s\n",
		order.FirstName, order.LastName, order.Street, order.City, order.State, order.Zip)
	fmt.Fprintf(&b, "Card ending in %s\n", order.CardLast4)
	return b.String()
}
