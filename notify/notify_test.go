package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/xlangai/waitlist/config"
)

func TestMessageComposition(t *testing.T) {
	notifier := NewSMTPNotifier(config.SMTPConfig{
		Host:     "smtp.gmail.com",
		Port:     587,
		User:     "waitlist",
		Domain:   "gmail.com",
		FromName: "XLangAI",
	}, zap.NewNop())

	msg, err := notifier.message("a@x.com")
	require.NoError(t, err)

	assert.Equal(t, []string{"XLangAI Waitlist"}, msg.GetGenHeader(mail.HeaderSubject))
	assert.Equal(t, []string{"<a@x.com>"}, msg.GetAddrHeaderString(mail.HeaderTo))
	// Sender falls back to user@domain when from_email is not set.
	from := msg.GetAddrHeaderString(mail.HeaderFrom)
	require.Len(t, from, 1)
	assert.Contains(t, from[0], "XLangAI")
	assert.Contains(t, from[0], "waitlist@gmail.com")
}

func TestMessageRejectsInvalidRecipient(t *testing.T) {
	notifier := NewSMTPNotifier(config.SMTPConfig{
		User:   "waitlist",
		Domain: "gmail.com",
	}, zap.NewNop())

	_, err := notifier.message("not-an-address")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid recipient address")
}
