package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"academy/internal/entity"
)

// EmailSender delivers one rendered HTML message.
type EmailSender interface {
	Send(ctx context.Context, message EmailMessage) error
}

type EmailMessage struct {
	To      string
	Subject string
	HTML    string
	Tag     string
}

var ErrEmailSenderNotConfigured = errors.New("email sender not configured")

var codeEmailTemplate = template.Must(template.New("code").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2933;">
  <h2>{{.Heading}}</h2>
  <p>Hi {{.Name}},</p>
  <p>{{.Intro}}</p>
  <p style="font-size: 28px; font-weight: bold; letter-spacing: 6px;">{{.Code}}</p>
  <p>This code expires in {{.Minutes}} minutes.</p>
  <p>{{.Outro}}</p>
  <p>The {{.SiteName}} team</p>
</body>
</html>`))

type codeEmailData struct {
	Heading  string
	Name     string
	Intro    string
	Code     string
	Minutes  int
	Outro    string
	SiteName string
}

// Mailer renders code notifications and hands them to an EmailSender.
type Mailer struct {
	sender   EmailSender
	siteName string
}

func NewMailer(sender EmailSender, siteName string) *Mailer {
	if strings.TrimSpace(siteName) == "" {
		siteName = "Academy"
	}
	return &Mailer{sender: sender, siteName: siteName}
}

func (m *Mailer) SendVerificationCode(ctx context.Context, user *entity.User, code string, validFor time.Duration) error {
	return m.sendCode(ctx, user, "email-verification", fmt.Sprintf("Verify your %s account", m.siteName), codeEmailData{
		Heading: "Confirm your email address",
		Intro:   "Use the code below to verify your email address.",
		Code:    code,
		Outro:   "If you did not create an account, you can ignore this email.",
	}, validFor)
}

func (m *Mailer) SendPasswordResetCode(ctx context.Context, user *entity.User, code string, validFor time.Duration) error {
	return m.sendCode(ctx, user, "password-reset", fmt.Sprintf("Your %s password reset code", m.siteName), codeEmailData{
		Heading: "Reset your password",
		Intro:   "Use the code below to choose a new password.",
		Code:    code,
		Outro:   "If you did not ask for a reset, your password has not changed.",
	}, validFor)
}

func (m *Mailer) sendCode(
	ctx context.Context,
	user *entity.User,
	tag string,
	subject string,
	data codeEmailData,
	validFor time.Duration,
) error {
	if m == nil || m.sender == nil {
		return ErrEmailSenderNotConfigured
	}
	data.Name = user.FirstName
	if strings.TrimSpace(data.Name) == "" {
		data.Name = "there"
	}
	data.Minutes = int(validFor.Round(time.Minute) / time.Minute)
	data.SiteName = m.siteName

	var body bytes.Buffer
	if err := codeEmailTemplate.Execute(&body, data); err != nil {
		return fmt.Errorf("render %s email: %w", tag, err)
	}
	return m.sender.Send(ctx, EmailMessage{
		To:      user.Email,
		Subject: subject,
		HTML:    body.String(),
		Tag:     tag,
	})
}
