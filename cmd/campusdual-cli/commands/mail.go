package commands

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"campusdual-backend/internal/gradestore"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("campusdual-backend/cmd/campusdual-cli/commands")

// MailConfig is the smtp account watch mails new grades from, mailing is off while
// server or recipients are unset.
type MailConfig struct {
	Server   string   `json:"server"`
	Port     int      `json:"port"`
	Address  string   `json:"address"`
	Password string   `json:"password"`
	To       []string `json:"to"`
}

func (c MailConfig) enabled() bool {
	return c.Server != "" && len(c.To) > 0
}

func newGradeMail(config MailConfig, user string, attempts []gradestore.Attempt) *email.Email {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Campus Dual <%s>", config.Address)
	mail.To = config.To
	if len(attempts) == 1 {
		mail.Subject = fmt.Sprintf("Neue Note: %s", attempts[0].Module)
	} else {
		mail.Subject = fmt.Sprintf("%d neue Noten", len(attempts))
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Neue Noten für %s:\n\n", user)
	for _, attempt := range attempts {
		fmt.Fprintf(
			&body, "%s, %s: %s (bestanden: %s, bekanntgegeben %s)\n",
			attempt.Module, attempt.Name, attempt.Grade, passedSymbol(attempt.Passed), attempt.AnnouncedOn,
		)
	}
	mail.Text = []byte(body.String())
	return mail
}

// sendGradeMail mails the attempts, servers that do not offer AUTH are retried without it.
func sendGradeMail(ctx context.Context, config MailConfig, user string, attempts []gradestore.Attempt) error {
	_, span := tracer.Start(ctx, "sendGradeMail")
	defer span.End()

	mail := newGradeMail(config, user, attempts)
	addr := fmt.Sprintf("%s:%d", config.Server, config.Port)

	err := mail.Send(addr, smtp.PlainAuth("", config.Address, config.Password, config.Server))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return fmt.Errorf("send grade mail: %w", err)
	}
	return nil
}
