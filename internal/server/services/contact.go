package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/tradexinvest/tradex/internal/common"
	"github.com/tradexinvest/tradex/internal/logging"
	"github.com/tradexinvest/tradex/internal/server/notify"
)

const maxContactMessage = 5000

type ContactService struct {
	notifier Notifier
	log      logging.Logger
}

func NewContactService(notifier Notifier, log logging.Logger) *ContactService {
	return &ContactService{notifier: notifier, log: log}
}

// Send relays a contact form to the support mailbox. Unlike other
// notifications, a delivery failure fails the operation.
func (s *ContactService) Send(ctx context.Context, f notify.ContactForm) error {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Message = strings.TrimSpace(f.Message)

	if f.Name == "" || f.Email == "" || f.Message == "" {
		return fmt.Errorf("%w: name, email and message are required", common.ErrValidation)
	}
	if !validEmail(f.Email) {
		return fmt.Errorf("%w: a valid email is required", common.ErrValidation)
	}
	if len(f.Message) > maxContactMessage {
		return fmt.Errorf("%w: message is too long", common.ErrValidation)
	}

	if err := s.notifier.Contact(ctx, f); err != nil {
		s.log.Error(ctx, "failed to relay contact form", "error", err)
		return common.ErrorInternal
	}
	return nil
}
