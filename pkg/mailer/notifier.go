package mailer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/smartagricare-api/config"
	mailtpl "github.com/oksasatya/smartagricare-api/pkg/mailer/templates"
)

// Publisher puts a JSON message on the email queue.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// QueueNotifier hands reset codes to the email worker through the queue.
type QueueNotifier struct {
	Pub Publisher
	Cfg *config.Config
}

func NewQueueNotifier(pub Publisher, cfg *config.Config) *QueueNotifier {
	return &QueueNotifier{Pub: pub, Cfg: cfg}
}

func (n *QueueNotifier) SendResetOTP(ctx context.Context, name, email, code string, expiresAt time.Time) error {
	job := EmailJob{
		To:       email,
		Template: mailtpl.ResetOTP,
		Data:     mailtpl.NewResetOTPData(n.Cfg, name, email, code, mailtpl.WithExpiresAt(expiresAt)),
	}
	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return n.Pub.PublishJSON(c, job)
}

// LogNotifier is used when no queue is configured. It records that a code
// was issued, never the code itself.
type LogNotifier struct {
	Logger *logrus.Logger
}

func (n LogNotifier) SendResetOTP(_ context.Context, _, email, _ string, expiresAt time.Time) error {
	if n.Logger == nil {
		return nil
	}
	n.Logger.WithFields(logrus.Fields{"email": email, "expires_at": expiresAt}).Info("reset code issued; email delivery disabled")
	return nil
}
