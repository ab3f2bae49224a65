// Package services отправляет подтверждения заказов по электронной почте.
package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/storefront/internal/lib/broker"
	"github.com/magabrotheeeer/storefront/internal/lib/sl"
	"github.com/magabrotheeeer/storefront/internal/lib/smtp"
	"github.com/magabrotheeeer/storefront/internal/models"
)

const orderConfirmationSubject = "Order Confirmation"

// SenderService рассылает подтверждения заказов подписчикам уведомлений.
type SenderService struct {
	transport  smtp.TransportInterface
	recipients []string
	log        *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(transport smtp.TransportInterface, recipients []string, log *slog.Logger) *SenderService {
	return &SenderService{
		transport:  transport,
		recipients: recipients,
		log:        log,
	}
}

// SendOrderConfirmation разбирает сообщение брокера и отправляет письмо.
// Неразборчивое сообщение помечается broker.ErrMalformed.
func (s *SenderService) SendOrderConfirmation(body []byte) error {
	const op = "services.SenderService.SendOrderConfirmation"
	var message models.OrderConfirmation
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Op(op), sl.Err(err))
		return fmt.Errorf("%s: %w: %w", op, broker.ErrMalformed, err)
	}
	if message.Username == "" || len(message.Lines) == 0 {
		return fmt.Errorf("%s: %w: empty confirmation", op, broker.ErrMalformed)
	}
	if len(s.recipients) == 0 {
		s.log.Warn("no notification recipients configured", sl.Op(op))
		return nil
	}
	return s.sendEmail(s.recipients, orderConfirmationSubject, OrderConfirmationBody(message))
}

// OrderConfirmationBody формирует текст письма о заказе.
func OrderConfirmationBody(message models.OrderConfirmation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s, your order is confirmed:\n", message.Username)
	for _, l := range message.Lines {
		fmt.Fprintf(&b, "%s x%d\n", l.Name, l.Quantity)
	}
	return b.String()
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ", "),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		strings.ReplaceAll(bodyText, "\n", "\r\n"),
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() { _ = client.Close() }()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", s.transport.GetSMTPUser()), sl.Err(err))
		return err
	}

	var rcptErrs []error
	accepted := 0
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			rcptErrs = append(rcptErrs, err)
			continue
		}
		accepted++
	}
	if accepted == 0 {
		return errors.Join(rcptErrs...)
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}
	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Any("to", to), slog.Int("accepted", accepted))
	return nil
}
