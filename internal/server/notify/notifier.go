package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/tradexinvest/tradex/internal/server/models"
)

// Notifier renders the application's emails and hands them to a Sender.
type Notifier struct {
	sender     Sender
	adminEmail string
}

func NewNotifier(sender Sender, adminEmail string) *Notifier {
	return &Notifier{sender: sender, adminEmail: adminEmail}
}

// ContactForm is a message left by a visitor for the support mailbox.
type ContactForm struct {
	Name    string
	Email   string
	Message string
}

func greeting(a *models.Account) string {
	if a.FullName != "" {
		return "Hello " + a.FullName + ","
	}
	return "Hello,"
}

func (n *Notifier) TwoFACode(ctx context.Context, a *models.Account, code string) error {
	return n.sender.Send(ctx, Message{
		To:      a.Email,
		Subject: "Your TradexInvest verification code",
		Body: fmt.Sprintf("%s\n\nYour verification code is %s.\nIt expires in a few minutes. "+
			"If you did not try to sign in, change your password.\n", greeting(a), code),
	})
}

func (n *Notifier) RequestReceived(ctx context.Context, a *models.Account, e *models.LedgerEntry) error {
	return n.sender.Send(ctx, Message{
		To:      a.Email,
		Subject: fmt.Sprintf("Your %s request was received", e.Kind),
		Body: fmt.Sprintf("%s\n\nYour %s request of $%s via %s is received and pending.\n",
			greeting(a), e.Kind, e.Amount.StringFixed(2), e.Method),
	})
}

func (n *Notifier) AdminNewRequest(ctx context.Context, a *models.Account, e *models.LedgerEntry) error {
	return n.sender.Send(ctx, Message{
		To:      n.adminEmail,
		ReplyTo: a.Email,
		Subject: fmt.Sprintf("%s request: $%s via %s", capitalize(string(e.Kind)), e.Amount.StringFixed(2), e.Method),
		Body: fmt.Sprintf("Account: %s <%s>\nType: %s\nAmount: $%s\nMethod: %s\nEntry: %s\n",
			a.FullName, a.Email, e.Kind, e.Amount.StringFixed(2), e.Method, e.ID),
	})
}

func (n *Notifier) Decision(ctx context.Context, a *models.Account, e *models.LedgerEntry) error {
	return n.sender.Send(ctx, Message{
		To:      a.Email,
		Subject: fmt.Sprintf("Your %s request was %s", e.Kind, e.Status),
		Body: fmt.Sprintf("%s\n\nYour %s request of $%s via %s has been %s.\n",
			greeting(a), e.Kind, e.Amount.StringFixed(2), e.Method, e.Status),
	})
}

func (n *Notifier) Contact(ctx context.Context, f ContactForm) error {
	return n.sender.Send(ctx, Message{
		To:      n.adminEmail,
		ReplyTo: f.Email,
		Subject: "New Contact Form Submission",
		Body:    fmt.Sprintf("Name: %s\nEmail: %s\n\nMessage:\n%s\n", f.Name, f.Email, f.Message),
	})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
