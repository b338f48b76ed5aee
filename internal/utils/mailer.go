package utils

import (
	"fmt"
	"net/smtp"
)

// Mailer sends plain-text email.
type Mailer interface {
	Send(to, subject, body string) error
}

type SMTPClient struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

func NewSMTPClient(host string, port int, user, pass, from string) *SMTPClient {
	if port == 0 {
		port = 587
	}
	return &SMTPClient{Host: host, Port: port, User: user, Password: pass, From: from}
}

// Configured reports whether enough settings are present to send mail.
func (s *SMTPClient) Configured() bool {
	return s != nil && s.Host != "" && s.User != ""
}

func (s *SMTPClient) Send(to, subject, body string) error {
	if !s.Configured() {
		return fmt.Errorf("smtp not configured")
	}
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	auth := smtp.PlainAuth("", s.User, s.Password, s.Host)
	return smtp.SendMail(addr, auth, s.From, []string{to}, BuildMessage(s.From, to, subject, body))
}

func BuildMessage(from, to, subject, body string) []byte {
	return []byte("From: " + from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" + body + "\r\n")
}
