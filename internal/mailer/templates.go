package mailer

import (
	"context"
	"fmt"
	"html"
)

// Links builds the frontend URLs embedded in emails.
type Links struct {
	FrontendURL string
}

func (l Links) Verification(token string) string {
	return fmt.Sprintf("%s/Verified/%s", l.FrontendURL, token)
}

func (l Links) PasswordReset(token string) string {
	return fmt.Sprintf("%s/ResetPassword/%s", l.FrontendURL, token)
}

func SendVerification(ctx context.Context, svc Service, toEmail, link string) error {
	subject := "Verify your StudentHub email"
	text := fmt.Sprintf("Confirm your email address by opening this link: %s\nThe link expires in one hour.", link)
	body := fmt.Sprintf(`<p>Confirm your email address:</p><p><a href="%[1]s">%[1]s</a></p><p>The link expires in one hour.</p>`, html.EscapeString(link))
	return svc.Send(ctx, toEmail, subject, text, body)
}

func SendPasswordReset(ctx context.Context, svc Service, toEmail, link string) error {
	subject := "Reset your StudentHub password"
	text := fmt.Sprintf("Choose a new password here: %s\nIf you did not ask for this, ignore this email.", link)
	body := fmt.Sprintf(`<p>Choose a new password:</p><p><a href="%[1]s">%[1]s</a></p><p>If you did not ask for this, ignore this email.</p>`, html.EscapeString(link))
	return svc.Send(ctx, toEmail, subject, text, body)
}
