// Package slackgw wraps the Slack Web API for outbound notifications.
// Slack messages are a best-effort mirror of the store: failures are
// logged and reported to the tech-alert channel, never propagated back
// into a committed state change.
package slackgw

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"

	"caisseflow/internal/common"
	"caisseflow/internal/logger"
)

const (
	postTimeout = 10 * time.Second
	maxRetries  = 3
	baseBackoff = 500 * time.Millisecond
)

// Notifier posts, updates and deletes Slack messages with bounded
// timeouts and fixed retries.
type Notifier struct {
	client           *slack.Client
	techAlertChannel string
	log              *logrus.Entry
}

// NewNotifier builds a notifier from a bot token and the channel that
// receives operator alerts.
func NewNotifier(botToken, techAlertChannel string) *Notifier {
	return &Notifier{
		client:           slack.New(botToken),
		techAlertChannel: techAlertChannel,
		log:              logger.WithModule("slack"),
	}
}

// Client exposes the raw Slack client for calls the notifier does not
// wrap (modal opens, file uploads).
func (n *Notifier) Client() *slack.Client {
	return n.client
}

// PostMessage sends blocks to a channel and returns the message ts.
func (n *Notifier) PostMessage(ctx context.Context, channelID string, blocks ...slack.Block) (string, error) {
	var ts string
	err := n.withRetry(ctx, "PostMessage", channelID, func(ctx context.Context) error {
		var err error
		_, ts, err = n.client.PostMessageContext(ctx, channelID,
			slack.MsgOptionBlocks(blocks...))
		return err
	})
	return ts, err
}

// PostText sends a plain-text message.
func (n *Notifier) PostText(ctx context.Context, channelID, text string) (string, error) {
	var ts string
	err := n.withRetry(ctx, "PostText", channelID, func(ctx context.Context) error {
		var err error
		_, ts, err = n.client.PostMessageContext(ctx, channelID,
			slack.MsgOptionText(text, false))
		return err
	})
	return ts, err
}

// UpdateMessage rewrites an existing message in place.
func (n *Notifier) UpdateMessage(ctx context.Context, channelID, ts string, blocks ...slack.Block) error {
	return n.withRetry(ctx, "UpdateMessage", channelID, func(ctx context.Context) error {
		_, _, _, err := n.client.UpdateMessageContext(ctx, channelID, ts,
			slack.MsgOptionBlocks(blocks...))
		return err
	})
}

// DeleteMessage removes a message.
func (n *Notifier) DeleteMessage(ctx context.Context, channelID, ts string) error {
	return n.withRetry(ctx, "DeleteMessage", channelID, func(ctx context.Context) error {
		_, _, err := n.client.DeleteMessageContext(ctx, channelID, ts)
		return err
	})
}

// PostEphemeral sends a message visible only to one user. Single
// attempt: an ephemeral that arrives late is worse than none.
func (n *Notifier) PostEphemeral(ctx context.Context, channelID, userID, text string) error {
	ctx, cancel := context.WithTimeout(ctx, postTimeout)
	defer cancel()
	_, err := n.client.PostEphemeralContext(ctx, channelID, userID,
		slack.MsgOptionText(text, false))
	if err != nil {
		n.log.WithError(err).Warnf("⚠️ [SLACK] ephemeral to %s failed", channelID)
	}
	return err
}

// ReportError posts an operator alert to the tech-alert channel. Never
// fails the caller.
func (n *Notifier) ReportError(ctx context.Context, source string, cause error) {
	if n.techAlertChannel == "" {
		return
	}
	text := "🚨 *" + source + "*\n```" + cause.Error() + "```"
	if _, err := n.PostText(ctx, n.techAlertChannel, text); err != nil {
		n.log.WithError(err).Error("🚨 [SLACK] tech alert delivery failed")
	}
}

// withRetry runs one outbound call with a bounded timeout per attempt
// and exponential backoff between attempts.
func (n *Notifier) withRetry(ctx context.Context, op, channelID string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, postTimeout)
		lastErr = fn(attemptCtx)
		cancel()
		if lastErr == nil {
			return nil
		}

		n.log.WithError(lastErr).Warnf("⚠️ [SLACK] %s to %s failed (attempt %d/%d)",
			op, channelID, attempt+1, maxRetries)

		if attempt < maxRetries-1 {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * baseBackoff
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return common.NewError(common.ErrCodeUpstreamSlack,
		"Échec de l'envoi du message Slack", common.StatusBadGateway, lastErr.Error())
}
