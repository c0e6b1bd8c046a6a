package services

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"quizdeck/config"
)

// MailService sends best-effort notifications. It is constructed once at
// startup; when no SMTP transport is configured every send is a silent no-op.
// Deliveries run detached from the triggering request and their failures are
// logged, never propagated.
type MailService struct {
	dialer  *gomail.Dialer
	from    string
	enabled bool
	log     *logrus.Logger
}

func NewMailService(cfg *config.Config, log *logrus.Logger) *MailService {
	s := &MailService{log: log}
	if cfg.SMTPHost == "" || cfg.SMTPFrom == "" {
		log.Info("mail transport not configured, notifications disabled")
		return s
	}
	s.dialer = gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	s.from = cfg.SMTPFrom
	s.enabled = true
	return s
}

func (s *MailService) Enabled() bool {
	return s != nil && s.enabled
}

func (s *MailService) SendWelcome(to, username string) {
	s.dispatch(to, "Welcome to QuizDeck",
		fmt.Sprintf("Hi %s,\n\nYour account is ready. Log in and create your first quiz!\n", username))
}

func (s *MailService) SendQuizCreated(to, username, title string) {
	s.dispatch(to, "Your quiz is live",
		fmt.Sprintf("Hi %s,\n\nYour quiz %q was created successfully.\n", username, title))
}

func (s *MailService) dispatch(to, subject, body string) {
	if !s.Enabled() {
		return
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.WithField("panic", r).Error("mail dispatch panicked")
			}
		}()
		if err := s.dialer.DialAndSend(m); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"to":      to,
				"subject": subject,
			}).Warn("mail delivery failed")
		}
	}()
}
