package verification

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"mime/quotedprintable"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultSMTPPort = 587
	mailSubject     = "Aurora Mind - Verify Your Email"
	mailSenderName  = "Aurora Mind"
)

var codeMailTemplate = template.Must(template.New("code").Parse(`<html>
  <body style="font-family: Arial, sans-serif; padding: 40px;">
    <div style="max-width: 600px; margin: 0 auto;">
      <h1 style="color: #667eea; text-align: center;">Aurora Mind</h1>
      <p style="color: #64748b; text-align: center;">Safe emotional check-ins</p>
      <h2>Welcome{{if .Name}}, {{.Name}}{{end}}!</h2>
      <p>Thank you for signing up for Aurora Mind. To complete your registration, please use the verification code below:</p>
      <p style="font-size: 48px; font-weight: bold; letter-spacing: 8px; text-align: center;">{{.Code}}</p>
      <p>This code will expire in <strong>{{.Minutes}} minutes</strong>.</p>
      <p style="color: #64748b; font-size: 12px;">If you didn't request this verification code, please ignore this email.</p>
    </div>
  </body>
</html>
`))

// SMTPConfig describes the submission server. Username is also the sender
// address.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// TTL is the code lifetime quoted in the mail.
	TTL time.Duration
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends the code as an HTML mail. smtp.SendMail upgrades the
// connection with STARTTLS when the server offers it, and PLAIN auth refuses
// to send credentials over an unencrypted connection to a remote host.
type SMTPMailer struct {
	cfg      SMTPConfig
	from     mail.Address
	sendMail sendMailFunc
	now      func() time.Time
}

func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.Username = strings.TrimSpace(cfg.Username)
	if cfg.Host == "" {
		return nil, errors.New("verification: smtp host is required")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("verification: smtp credentials are required")
	}
	if _, err := mail.ParseAddress(cfg.Username); err != nil {
		return nil, fmt.Errorf("verification: smtp user is not an address: %w", err)
	}
	if cfg.Port <= 0 {
		cfg.Port = DefaultSMTPPort
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &SMTPMailer{
		cfg:      cfg,
		from:     mail.Address{Name: mailSenderName, Address: cfg.Username},
		sendMail: smtp.SendMail,
		now:      time.Now,
	}, nil
}

func (m *SMTPMailer) SendCode(ctx context.Context, email, name, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(email, "\r\n") {
		return errors.New("verification: invalid recipient")
	}
	to, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("verification: invalid recipient: %w", err)
	}
	msg, err := m.message(to.Address, name, code)
	if err != nil {
		return err
	}
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	if err := m.sendMail(addr, auth, m.cfg.Username, []string{to.Address}, msg); err != nil {
		return fmt.Errorf("verification: send mail: %w", err)
	}
	return nil
}

func (m *SMTPMailer) message(to, name, code string) ([]byte, error) {
	var body bytes.Buffer
	qp := quotedprintable.NewWriter(&body)
	err := codeMailTemplate.Execute(qp, struct {
		Name, Code string
		Minutes    int
	}{Name: strings.TrimSpace(name), Code: code, Minutes: int(m.cfg.TTL / time.Minute)})
	if err != nil {
		return nil, fmt.Errorf("verification: render mail: %w", err)
	}
	if err := qp.Close(); err != nil {
		return nil, fmt.Errorf("verification: encode mail: %w", err)
	}

	var msg bytes.Buffer
	header := func(k, v string) { fmt.Fprintf(&msg, "%s: %s\r\n", k, v) }
	header("From", m.from.String())
	header("To", to)
	header("Subject", mime.QEncoding.Encode("utf-8", mailSubject))
	header("Date", m.now().Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", mime.FormatMediaType("text/html", map[string]string{"charset": "utf-8"}))
	header("Content-Transfer-Encoding", "quoted-printable")
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}
