package sms

import (
	"fmt"
	"strings"

	"github.com/NordCoder/Lessonbell/internal/domain/delivery"
	"github.com/nyaruka/phonenumbers"
)

// Normalize returns num in E.164. Numbers without a leading + are parsed
// against region; with an empty region they are rejected.
func Normalize(num, region string) (string, error) {
	num = strings.TrimSpace(num)
	if num == "" {
		return "", fmt.Errorf("%w: empty phone number", delivery.ErrInvalidRecipient)
	}
	if !strings.HasPrefix(num, "+") && region == "" {
		return "", fmt.Errorf("%w: %q is not in E.164 format", delivery.ErrInvalidRecipient, num)
	}

	parsed, err := phonenumbers.Parse(num, strings.ToUpper(region))
	if err != nil {
		return "", fmt.Errorf("%w: %v", delivery.ErrInvalidRecipient, err)
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return "", fmt.Errorf("%w: %q is not a valid number", delivery.ErrInvalidRecipient, num)
	}
	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}
