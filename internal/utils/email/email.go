package email

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/ialvarenga/financial-management-sub001/internal/config"
	"github.com/ialvarenga/financial-management-sub001/internal/models"
)

// Sender handles sending bill reminders via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendBillClosedReminder notifies that a bill closed and payment is due
func (s *Sender) SendBillClosedReminder(to string, card models.CreditCard, bill models.CreditCardBill) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = fmt.Sprintf("Bill closed: %s (%04d-%02d)", card.Name, bill.Year, bill.Month)

	body := fmt.Sprintf(
		"The bill for card %s (final %s) has closed.\n\n"+
			"Period: %04d-%02d\n"+
			"Total: %s\n"+
			"Due date: %s\n\n"+
			"Please make the payment by the due date to avoid penalties.\n",
		card.Name, card.LastFour,
		bill.Year, bill.Month,
		formatCents(bill.TotalCents),
		bill.DueDate.Format("2006-01-02"),
	)
	e.Text = []byte(body)

	return s.send(e, to)
}

// SendBillOverdueNotice notifies that a closed bill has passed its due date unpaid
func (s *Sender) SendBillOverdueNotice(to string, card models.CreditCard, bill models.CreditCardBill) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = fmt.Sprintf("Bill overdue: %s (%04d-%02d)", card.Name, bill.Year, bill.Month)

	body := fmt.Sprintf(
		"The bill for card %s (final %s) was due on %s and is still unpaid.\n\n"+
			"Period: %04d-%02d\n"+
			"Total: %s\n\n"+
			"Please make the payment as soon as possible to avoid further penalties.\n",
		card.Name, card.LastFour,
		bill.DueDate.Format("2006-01-02"),
		bill.Year, bill.Month,
		formatCents(bill.TotalCents),
	)
	e.Text = []byte(body)

	return s.send(e, to)
}

func (s *Sender) send(e *email.Email, to string) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
