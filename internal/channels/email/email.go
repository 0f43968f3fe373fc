package email

import (
	"fmt"

	"github.com/NordCoder/Lessonbell/internal/domain/delivery"
	"go.uber.org/zap"
)

const (
	ProviderSMTP     = "smtp"
	ProviderSendGrid = "sendgrid"
)

// New builds the sender for provider. An empty provider disables email.
func New(provider string, smtpCfg SMTPConfig, sgCfg SendGridConfig, log *zap.Logger) (delivery.EmailSender, error) {
	switch provider {
	case "":
		return nil, nil
	case ProviderSMTP:
		if smtpCfg.Addr == "" {
			return nil, fmt.Errorf("smtp: addr is empty")
		}
		return NewMailer(smtpCfg, log), nil
	case ProviderSendGrid:
		if sgCfg.APIKey == "" {
			return nil, fmt.Errorf("sendgrid: api key is empty")
		}
		return NewSendGrid(sgCfg, log), nil
	}
	return nil, fmt.Errorf("unknown email provider %q", provider)
}
