// Package slackhdl handles the inbound Slack webhooks: slash commands
// and block interactions. Handlers acknowledge within Slack's webhook
// timeout and continue the real work in a detached background task —
// the caller must not assume that work has completed when the HTTP
// response is sent.
package slackhdl

import (
	"context"
	"errors"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"caisseflow/config"
	caissesvc "caisseflow/internal/api/caisse/service"
	ordersvc "caisseflow/internal/api/order/service"
	paysvc "caisseflow/internal/api/payment/service"
	"caisseflow/internal/common"
	"caisseflow/internal/logger"
	slackgw "caisseflow/internal/slack"
)

// SlackHandler carries the domain services and outbound gateway shared
// by the command and interaction endpoints.
type SlackHandler struct {
	orders   *ordersvc.OrderService
	payments *paysvc.PaymentService
	caisses  *caissesvc.CaisseService
	notifier *slackgw.Notifier
	cfg      *config.Configuration
	log      *logrus.Entry
}

// NewSlackHandler wires the handler.
func NewSlackHandler(
	orders *ordersvc.OrderService,
	payments *paysvc.PaymentService,
	caisses *caissesvc.CaisseService,
	notifier *slackgw.Notifier,
	cfg *config.Configuration,
) *SlackHandler {
	return &SlackHandler{
		orders:   orders,
		payments: payments,
		caisses:  caisses,
		notifier: notifier,
		cfg:      cfg,
		log:      logger.WithModule("slackbot"),
	}
}

// detach runs fn on its own goroutine, detached from the request
// context so the work survives the webhook response. Panics are
// contained and reported to the tech-alert channel.
func (h *SlackHandler) detach(ctx context.Context, name string, fn func(ctx context.Context)) {
	bg := context.WithoutCancel(ctx)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				h.log.WithFields(map[string]interface{}{
					"task":  name,
					"panic": r,
				}).Errorf("💬 [SLACKBOT] panic in background task\n%s", debug.Stack())
			}
		}()
		fn(bg)
	}()
}

// fail reports an error to the user (ephemeral) and, for system or
// upstream failures, to the operators. Raw internals never reach the
// end user.
func (h *SlackHandler) fail(ctx context.Context, channelID, userID, task string, err error) {
	h.log.WithError(err).Errorf("💬 [SLACKBOT] %s failed", task)

	var appErr *common.Error
	if !errors.As(err, &appErr) || appErr.Code.Category == "System" || appErr.Code.Category == "Upstream" {
		h.notifier.ReportError(ctx, task, err)
	}
	h.notifier.PostEphemeral(ctx, channelID, userID, userMessage(err))
}

// userMessage maps an error to the text shown to the user.
func userMessage(err error) string {
	var appErr *common.Error
	if errors.As(err, &appErr) {
		switch appErr.Code.Category {
		case "System", "Database", "Upstream":
			return "❌ Une erreur technique est survenue. L'équipe a été prévenue."
		default:
			return "❌ " + appErr.Message
		}
	}
	return "❌ Une erreur technique est survenue. L'équipe a été prévenue."
}
