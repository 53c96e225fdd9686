package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"

	"github.com/Dosada05/tournament-ladder/config"
	"github.com/Dosada05/tournament-ladder/models"
)

var verificationTemplate = template.Must(template.New("verification").Parse(
	`<p>Ваш код для входа: <b>{{.Code}}</b></p>{{if .Notice}}<p><b>{{.Notice}}</b></p>{{end}}<p>Код действует ограниченное время. Если вы не запрашивали вход, проигнорируйте письмо.</p>`))

type EmailService struct {
	cfg config.SMTPConfig
}

func NewEmailService(cfg config.SMTPConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// SendVerificationCode mails the account its one-time code.
func (s *EmailService) SendVerificationCode(ctx context.Context, account models.Account) error {
	subject, body, err := renderVerificationEmail(account)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.SendEmail([]string{account.Email()}, subject, body)
}

func renderVerificationEmail(account models.Account) (string, string, error) {
	var body bytes.Buffer
	data := struct{ Code, Notice string }{Code: account.VerificationCode(), Notice: account.MailNotice()}
	if err := verificationTemplate.Execute(&body, data); err != nil {
		return "", "", fmt.Errorf("ошибка выполнения шаблона письма: %w", err)
	}
	return account.MailSubject(), body.String(), nil
}

func (s *EmailService) SendEmail(to []string, subject string, body string) error {
	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)

	msg := []byte("To: " + to[0] + "\r\n" +
		"From: " + s.cfg.From + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	tlsconfig := &tls.Config{ServerName: s.cfg.Host}

	var client *smtp.Client
	if s.cfg.Port == 465 {
		// Прямое TLS-соединение
		conn, err := tls.Dial("tcp", addr, tlsconfig)
		if err != nil {
			return fmt.Errorf("ошибка TLS соединения: %w", err)
		}
		defer conn.Close()
		client, err = smtp.NewClient(conn, s.cfg.Host)
		if err != nil {
			return fmt.Errorf("ошибка создания SMTP клиента: %w", err)
		}
	} else {
		// STARTTLS
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("ошибка соединения SMTP: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsconfig); err != nil {
			client.Close()
			return fmt.Errorf("ошибка команды STARTTLS: %w", err)
		}
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("ошибка аутентификации SMTP: %w", err)
	}
	if err := client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("ошибка MAIL FROM: %w", err)
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			return fmt.Errorf("ошибка RCPT TO: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("ошибка команды DATA: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("ошибка записи сообщения: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия DATA: %w", err)
	}
	return nil
}

// LogMailer is used when SMTP is not configured: codes go to the log instead of an inbox.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) SendVerificationCode(ctx context.Context, account models.Account) error {
	subject, _, err := renderVerificationEmail(account)
	if err != nil {
		return err
	}
	m.Logger.InfoContext(ctx, "verification code issued",
		slog.String("email", account.Email()),
		slog.String("subject", subject),
		slog.String("code", account.VerificationCode()),
	)
	return nil
}
