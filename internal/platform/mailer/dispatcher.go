// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/taibuivan/yomira-auth/internal/users/auth"
	"github.com/taibuivan/yomira-auth/pkg/uuid"
)

// publishTimeout bounds a single publish so a stalled broker cannot hold a request.
const publishTimeout = 5 * time.Second

// Publisher is the part of [*amqp.Channel] the dispatcher uses.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Envelope wraps every published email.
type Envelope struct {
	Kind       string    `json:"kind"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// AMQPDispatcher implements [auth.EmailDispatcher] over a RabbitMQ exchange.
type AMQPDispatcher struct {
	publisher Publisher
	exchange  string
	logger    *slog.Logger
	mu        sync.Mutex
	now       func() time.Time
}

// NewAMQPDispatcher returns a dispatcher publishing to exchange.
func NewAMQPDispatcher(publisher Publisher, exchange string, logger *slog.Logger) *AMQPDispatcher {
	return &AMQPDispatcher{
		publisher: publisher,
		exchange:  exchange,
		logger:    logger,
		now:       time.Now,
	}
}

// SendVerificationEmail publishes to [RouteVerification].
func (dispatcher *AMQPDispatcher) SendVerificationEmail(ctx context.Context, message auth.VerificationEmail) error {
	return dispatcher.publish(ctx, RouteVerification, message.AccountID, message)
}

// SendApprovalEmail publishes to [RouteApproval].
func (dispatcher *AMQPDispatcher) SendApprovalEmail(ctx context.Context, message auth.ApprovalEmail) error {
	return dispatcher.publish(ctx, RouteApproval, message.AccountID, message)
}

// SendRecoveryEmail publishes to [RouteRecovery].
func (dispatcher *AMQPDispatcher) SendRecoveryEmail(ctx context.Context, message auth.RecoveryEmail) error {
	return dispatcher.publish(ctx, RouteRecovery, message.AccountID, message)
}

func (dispatcher *AMQPDispatcher) publish(ctx context.Context, route, accountID string, payload any) error {
	body, err := json.Marshal(Envelope{
		Kind:       route,
		OccurredAt: dispatcher.now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("mailer_encode_failed: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	dispatcher.mu.Lock()
	defer dispatcher.mu.Unlock()

	err = dispatcher.publisher.PublishWithContext(
		publishCtx,
		dispatcher.exchange, // exchange
		route,               // routing key
		false,               // mandatory
		false,               // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.New(),
			Timestamp:    dispatcher.now(),
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("mailer_publish_failed: %w", err)
	}

	dispatcher.logger.Debug("mailer_message_published",
		slog.String("route", route),
		slog.String("account_id", accountID),
	)
	return nil
}

// # Log Dispatcher

// LogDispatcher implements [auth.EmailDispatcher] by logging the intent.
//
// It is used in development when no broker is configured. Tokens are only
// written when revealTokens is set, and then at Debug level, so a local
// developer can finish verification and recovery without a mail relay.
type LogDispatcher struct {
	logger       *slog.Logger
	revealTokens bool
}

// NewLogDispatcher returns a dispatcher writing to logger.
func NewLogDispatcher(logger *slog.Logger, revealTokens bool) *LogDispatcher {
	return &LogDispatcher{logger: logger, revealTokens: revealTokens}
}

func (dispatcher *LogDispatcher) SendVerificationEmail(ctx context.Context, message auth.VerificationEmail) error {
	dispatcher.log(ctx, RouteVerification, message.AccountID, slog.Bool("is_resend", message.IsResend), slog.String("language", message.Language))
	dispatcher.logToken(ctx, RouteVerification, message.AccountID, message.Token)
	return nil
}

func (dispatcher *LogDispatcher) SendApprovalEmail(ctx context.Context, message auth.ApprovalEmail) error {
	dispatcher.log(ctx, RouteApproval, message.AccountID)
	dispatcher.logToken(ctx, RouteApproval, message.AccountID, message.Token)
	return nil
}

func (dispatcher *LogDispatcher) SendRecoveryEmail(ctx context.Context, message auth.RecoveryEmail) error {
	dispatcher.log(ctx, RouteRecovery, message.AccountID, slog.String("language", message.Language))
	dispatcher.logToken(ctx, RouteRecovery, message.AccountID, message.Token)
	return nil
}

func (dispatcher *LogDispatcher) log(ctx context.Context, route, accountID string, attrs ...slog.Attr) {
	args := []any{
		slog.String("route", route),
		slog.String("account_id", accountID),
	}
	for _, attr := range attrs {
		args = append(args, attr)
	}
	dispatcher.logger.InfoContext(ctx, "mailer_email_skipped", args...)
}

func (dispatcher *LogDispatcher) logToken(ctx context.Context, route, accountID, token string) {
	if !dispatcher.revealTokens {
		return
	}
	dispatcher.logger.DebugContext(ctx, "mailer_email_token",
		slog.String("route", route),
		slog.String("account_id", accountID),
		slog.String("token", token),
	)
}
