package service

import (
	"bytes"
	"html/template"
)

var (
	otpMailTmpl = template.Must(template.New("otp").Parse(
		`<h3>Your one-time code</h3><p>Your OTP is: <strong>{{.Code}}</strong></p>` +
			`<p>If you did not try to sign in, you can ignore this message.</p>`))

	welcomeMailTmpl = template.Must(template.New("welcome").Parse(
		`<h3>Hello {{.Username}},</h3><p>Thanks for registering with us.</p>`))

	loginNoticeMailTmpl = template.Must(template.New("login").Parse(
		`<h3>Hello {{.Username}},</h3><p>Thanks for logging in with us.</p>`))

	accountDeletedMailTmpl = template.Must(template.New("deleted").Parse(
		`<h3>Hello {{.Username}},</h3><p>Your account has been successfully deleted.</p>`))
)

const (
	subjectOTP            = "Your OTP Code"
	subjectWelcome        = "Welcome to Inkpost"
	subjectLoginNotice    = "New sign-in to your Inkpost account"
	subjectAccountDeleted = "Account Deleted - Thanks for using Inkpost"
)

type mailTemplate = *template.Template

func renderMail(tmpl mailTemplate, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
