package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/yourusername/quizcanvas-api/internal/pkg/logger"
)

// Notifier отправляет транзакционные письма.
// Ошибки доставки логируются вызывающей стороной и не прерывают основной сценарий.
type Notifier interface {
	SendPasswordReset(ctx context.Context, toEmail, resetToken string) error
	SendUsernameReminder(ctx context.Context, toEmail, username string) error
}

// NoopNotifier используется, когда ключ Resend не задан
type NoopNotifier struct {
	log *logger.Logger
}

func NewNoopNotifier(log *logger.Logger) *NoopNotifier {
	return &NoopNotifier{log: log}
}

func (n *NoopNotifier) SendPasswordReset(ctx context.Context, toEmail, resetToken string) error {
	n.log.Info("[Notifier] noop password reset", "to", toEmail)
	return nil
}

func (n *NoopNotifier) SendUsernameReminder(ctx context.Context, toEmail, username string) error {
	n.log.Info("[Notifier] noop username reminder", "to", toEmail)
	return nil
}

// ResendNotifier отправляет письма через Resend REST API.
type ResendNotifier struct {
	from            string
	frontendBaseURL string
	client          *resend.Client
}

func NewResendNotifier(apiKey, from, frontendBaseURL string) (*ResendNotifier, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &ResendNotifier{
		from:            from,
		frontendBaseURL: strings.TrimRight(frontendBaseURL, "/"),
		client:          resend.NewClient(apiKey),
	}, nil
}

// ResetURL возвращает ссылку на страницу сброса пароля
func (s *ResendNotifier) ResetURL(token string) string {
	return fmt.Sprintf("%s/reset-password?token=%s", s.frontendBaseURL, token)
}

func (s *ResendNotifier) SendPasswordReset(ctx context.Context, toEmail, resetToken string) error {
	if toEmail == "" || resetToken == "" {
		return fmt.Errorf("toEmail and resetToken are required")
	}
	resetURL := s.ResetURL(resetToken)
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{toEmail},
		Subject: "QuizCanvas Password Reset",
		Text: fmt.Sprintf("Hello,\n\nYou requested a password reset for your QuizCanvas account.\n\n"+
			"Click the following link to reset your password:\n%s\n\nThis link will expire in 1 hour.\n\n"+
			"If you didn't request this reset, please ignore this email.\n\nBest regards,\nQuizCanvas Team", resetURL),
		Html: fmt.Sprintf("<h2>Password Reset Request</h2><p>Hello,</p>"+
			"<p>You requested a password reset for your QuizCanvas account.</p>"+
			"<p><a href=\"%s\">Reset Password</a></p><p>This link will expire in 1 hour.</p>"+
			"<p>If you didn't request this reset, please ignore this email.</p>"+
			"<p>Best regards,<br>QuizCanvas Team</p>", resetURL),
	}
	return s.send(ctx, params, "reset:"+resetToken)
}

func (s *ResendNotifier) SendUsernameReminder(ctx context.Context, toEmail, username string) error {
	if toEmail == "" || username == "" {
		return fmt.Errorf("toEmail and username are required")
	}
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{toEmail},
		Subject: "QuizCanvas Username Reminder",
		Text: fmt.Sprintf("Hello,\n\nYour QuizCanvas username is: %s\n\n"+
			"If you didn't request this reminder, please ignore this email.\n\nBest regards,\nQuizCanvas Team", username),
		Html: fmt.Sprintf("<h2>Username Reminder</h2><p>Hello,</p>"+
			"<p>Your QuizCanvas username is: <strong>%s</strong></p>"+
			"<p>If you didn't request this reminder, please ignore this email.</p>"+
			"<p>Best regards,<br>QuizCanvas Team</p>", username),
	}
	return s.send(ctx, params, "")
}

func (s *ResendNotifier) send(ctx context.Context, params *resend.SendEmailRequest, idempotencyKey string) error {
	options := &resend.SendEmailOptions{}
	if strings.TrimSpace(idempotencyKey) != "" {
		options.IdempotencyKey = strings.TrimSpace(idempotencyKey)
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		_, err := s.client.Emails.SendWithOptions(ctx, params, options)
		if err == nil {
			return nil
		}
		lastErr = err

		if wait, ok := resendRetryDelay(err, attempt); ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		}

		return fmt.Errorf("resend send failed: %w", err)
	}

	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

// resendRetryDelay: повторяем только rate limit и сетевые таймауты
func resendRetryDelay(err error, attempt int) (time.Duration, bool) {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter)); convErr == nil && seconds > 0 {
			if seconds > 30 {
				seconds = 30
			}
			return time.Duration(seconds) * time.Second, true
		}
		return time.Duration(attempt+1) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "temporar") {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	return 0, false
}
