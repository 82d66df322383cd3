package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/dalemusser/donorhub/internal/app/system/htmlsanitize"
)

// Layout fills the single branded email template. Message and Extra are
// rendered as HTML and must already be safe; Builder methods sanitize
// anything that came from a user.
type Layout struct {
	SiteName   string
	Title      string
	Message    template.HTML
	Highlight  string
	ButtonLink string
	ButtonText string
	Extra      template.HTML
}

var layoutTmpl = template.Must(template.New("layout").Parse(layoutHTML))

// Render executes the layout.
func (l Layout) Render() string {
	var buf bytes.Buffer
	if err := layoutTmpl.Execute(&buf, l); err != nil {
		return string(l.Message)
	}
	return buf.String()
}

// Builder produces the transactional emails. SiteName prefixes subjects.
type Builder struct {
	SiteName string
	// AdminFrom, when set, is the sender of admin-authored mail (contact
	// replies and bulk announcements).
	AdminFrom string
	// Now is used for timestamps in notices. Defaults to time.Now.
	Now func() time.Time
}

func (b Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b Builder) subject(s string) string {
	if b.SiteName == "" {
		return s
	}
	return b.SiteName + " - " + s
}

func (b Builder) layout(l Layout) string {
	l.SiteName = b.SiteName
	return l.Render()
}

func greet(name string) string {
	if name == "" {
		return "Hello,"
	}
	return "Hello " + template.HTMLEscapeString(name) + ","
}

// VerifyAccount carries the registration OTP.
func (b Builder) VerifyAccount(to, name, code string, expiresIn time.Duration) Email {
	return Email{
		To:      []string{to},
		Subject: b.subject("Verify Your Email"),
		HTMLBody: b.layout(Layout{
			Title:     "Welcome to " + b.SiteName,
			Message:   template.HTML(greet(name) + " thank you for registering. Please verify your email using the OTP below:"),
			Highlight: code,
			Extra: template.HTML(fmt.Sprintf("<p>This OTP will expire in %s.</p>"+
				"<p>If you didn't request this registration, please ignore this email.</p>", humanize(expiresIn))),
		}),
		TextBody: fmt.Sprintf("Your email verification OTP is: %s. This OTP will expire in %s.", code, humanize(expiresIn)),
	}
}

// ResendOTP carries a reissued OTP.
func (b Builder) ResendOTP(to, name, code string, expiresIn time.Duration) Email {
	return Email{
		To:      []string{to},
		Subject: b.subject("New Verification OTP"),
		HTMLBody: b.layout(Layout{
			Title:     "New OTP for account verification",
			Message:   template.HTML(greet(name) + " here is your new verification OTP:"),
			Highlight: code,
			Extra:     template.HTML(fmt.Sprintf("<p>This OTP will expire in %s.</p>", humanize(expiresIn))),
		}),
		TextBody: fmt.Sprintf("Your new email verification OTP is: %s. This OTP will expire in %s.", code, humanize(expiresIn)),
	}
}

// PasswordReset links to the reset page.
func (b Builder) PasswordReset(to, name, link string, expiresIn time.Duration) Email {
	return Email{
		To:      []string{to},
		Subject: b.subject("Password Reset Request"),
		HTMLBody: b.layout(Layout{
			Title:      "Reset Your Password",
			Message:    template.HTML(greet(name) + " you requested to reset your password."),
			ButtonLink: link,
			ButtonText: "Reset Password",
			Extra: template.HTML(fmt.Sprintf("<p>This link will expire in %s.</p>"+
				"<p>If you didn't request this, please ignore this email.</p>", humanize(expiresIn))),
		}),
		TextBody: fmt.Sprintf("To reset your password, visit: %s\nThis link will expire in %s.", link, humanize(expiresIn)),
	}
}

// PasswordChanged confirms a change or a reset.
func (b Builder) PasswordChanged(to, name string, reset bool) Email {
	title, subj := "Password Changed Successfully", "Password Changed"
	if reset {
		title, subj = "Password Reset Successful", "Password Reset Successful"
	}
	when := b.now().Format(time.RFC1123)
	return Email{
		To:      []string{to},
		Subject: b.subject(subj),
		HTMLBody: b.layout(Layout{
			Title:   title,
			Message: template.HTML(greet(name) + " your password was recently changed."),
			Extra: template.HTML("<p>If you did not make this change, please contact us immediately.</p>" +
				"<p>Time of change: " + template.HTMLEscapeString(when) + "</p>"),
		}),
		TextBody: "Your password was recently changed. If you did not make this change, please contact us immediately.",
	}
}

// DonationVerified thanks the donor and states the validity window.
func (b Builder) DonationVerified(to, name string, amount float64, expires time.Time) Email {
	exp := expires.Format("02 Jan 2006")
	return Email{
		To:      []string{to},
		Subject: b.subject("Donation Verified"),
		HTMLBody: b.layout(Layout{
			Title:     "Thank you for your donation",
			Message:   template.HTML(greet(name) + " your donation has been verified."),
			Highlight: fmt.Sprintf("₹%.2f", amount),
			Extra:     template.HTML("<p>Your contribution is recorded until " + template.HTMLEscapeString(exp) + ".</p>"),
		}),
		TextBody: fmt.Sprintf("Your donation of %.2f has been verified. It is recorded until %s.", amount, exp),
	}
}

// DonationRejected explains why a donation was not accepted.
func (b Builder) DonationRejected(to, name string, amount float64, reason string) Email {
	return Email{
		To:      []string{to},
		Subject: b.subject("Donation Could Not Be Verified"),
		HTMLBody: b.layout(Layout{
			Title:   "About your donation",
			Message: template.HTML(greet(name) + fmt.Sprintf(" we could not verify your donation of ₹%.2f.", amount)),
			Extra: template.HTML("<p>Reason: " + template.HTMLEscapeString(reason) + "</p>" +
				"<p>Please reply to this email if you believe this is a mistake.</p>"),
		}),
		TextBody: fmt.Sprintf("We could not verify your donation of %.2f. Reason: %s", amount, reason),
	}
}

// ContactAck acknowledges a contact form submission.
func (b Builder) ContactAck(to, name, subject, message string) Email {
	return Email{
		To:      []string{to},
		Subject: b.subject("Contact Form Submission"),
		HTMLBody: b.layout(Layout{
			Title:   "Thank you for contacting " + b.SiteName,
			Message: template.HTML(greet(name) + " we have received your message."),
			Extra: template.HTML("<p>We will get back to you shortly.</p>" +
				"<p>Subject: " + template.HTMLEscapeString(subject) + "</p>" +
				"<p>Message: " + template.HTMLEscapeString(message) + "</p>"),
		}),
		TextBody: "We have received your message and will get back to you shortly.",
	}
}

// ContactReply answers an earlier inquiry.
func (b Builder) ContactReply(to, name, subject, reply, origSubject, origMessage string) Email {
	return Email{
		To:      []string{to},
		Subject: "Re: " + origSubject,
		HTMLBody: b.layout(Layout{
			Title:   subject,
			Message: template.HTML(greet(name)),
			Extra: template.HTML("<p>" + htmlsanitize.Sanitize(reply) + "</p>" +
				"<p>Original inquiry:</p>" +
				"<p>Subject: " + template.HTMLEscapeString(origSubject) + "</p>" +
				"<p>Message: " + template.HTMLEscapeString(origMessage) + "</p>"),
		}),
		TextBody: htmlsanitize.StripTags(reply),
		From:     b.AdminFrom,
	}
}

// Options are the admin-controlled extras of a bulk email.
type Options struct {
	Highlight  bool   `json:"highlightBox"`
	Content    string `json:"highlightContent"`
	ButtonLink string `json:"buttonLink"`
	ButtonText string `json:"buttonText"`
	Extra      string `json:"additionalContent"`
}

// Bulk builds an admin announcement to one recipient. Admin HTML is
// sanitized.
func (b Builder) Bulk(to, name, subject, message string, opt Options) Email {
	l := Layout{
		Title:      subject,
		Message:    template.HTML(greet(name) + " <p>" + htmlsanitize.Sanitize(message) + "</p>"),
		ButtonLink: opt.ButtonLink,
		ButtonText: opt.ButtonText,
	}
	if opt.Highlight {
		l.Highlight = opt.Content
	}
	if opt.Extra != "" {
		l.Extra = htmlsanitize.SanitizeToHTML(opt.Extra)
	} else {
		l.Extra = template.HTML("<p>This is an automated message from " + template.HTMLEscapeString(b.SiteName) + ".</p>")
	}
	return Email{
		To:       []string{to},
		Subject:  b.subject(subject),
		HTMLBody: b.layout(l),
		TextBody: htmlsanitize.StripTags(message),
		From:     b.AdminFrom,
	}
}

func humanize(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "60 minutes"
		}
		return fmt.Sprintf("%d hours", h)
	}
	return fmt.Sprintf("%d minutes", int(d/time.Minute))
}

const layoutHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
    <tr>
      <td align="center" style="padding: 32px 16px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 560px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 24px 32px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 22px; color: #b45309;">{{.SiteName}}</h1>
              <h2 style="margin: 8px 0 0; font-size: 18px; color: #374151;">{{.Title}}</h2>
            </td>
          </tr>
          <tr>
            <td style="padding: 24px 32px; font-size: 15px; color: #374151; line-height: 1.5;">
              <p style="margin: 0 0 16px;">{{.Message}}</p>
              {{if .Highlight}}
              <div style="background-color: #fef3c7; border-radius: 8px; padding: 20px; text-align: center; margin-bottom: 16px;">
                <span style="font-size: 28px; font-weight: 700; letter-spacing: 4px; color: #1f2937;">{{.Highlight}}</span>
              </div>
              {{end}}
              {{if .ButtonLink}}
              <p style="text-align: center;">
                <a href="{{.ButtonLink}}" style="display: inline-block; padding: 12px 28px; background-color: #b45309; color: #ffffff; text-decoration: none; border-radius: 6px;">{{.ButtonText}}</a>
              </p>
              {{end}}
              {{.Extra}}
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
