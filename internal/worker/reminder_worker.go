package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	ordermodels "caisseflow/internal/api/order/models"
	ordersvc "caisseflow/internal/api/order/service"
	paysvc "caisseflow/internal/api/payment/service"
	"caisseflow/internal/logger"
	slackgw "caisseflow/internal/slack"
	"caisseflow/internal/utility"
)

// ReminderWorker periodically scans for requests sitting in an
// actionable state past the stale delay and nags the relevant channel.
//
// Two layers per run: a digest per destination channel, posted on every
// run that finds candidates, and one direct reminder per entity gated
// by an atomic claim so overlapping runs never double-send it.
type ReminderWorker struct {
	orders   *ordersvc.OrderService
	payments *paysvc.PaymentService
	notifier *slackgw.Notifier

	interval     time.Duration
	staleDelay   time.Duration
	adminChannel string
	achatChannel string
}

// NewReminderWorker wires the worker. Interval defaults to 15 minutes,
// stale delay to 24 hours.
func NewReminderWorker(
	orders *ordersvc.OrderService,
	payments *paysvc.PaymentService,
	notifier *slackgw.Notifier,
	interval, staleDelay time.Duration,
	adminChannel, achatChannel string,
) *ReminderWorker {
	if interval < time.Minute {
		interval = 15 * time.Minute
	}
	if staleDelay <= 0 {
		staleDelay = 24 * time.Hour
	}
	return &ReminderWorker{
		orders:       orders,
		payments:     payments,
		notifier:     notifier,
		interval:     interval,
		staleDelay:   staleDelay,
		adminChannel: adminChannel,
		achatChannel: achatChannel,
	}
}

// Start runs the worker until the context is cancelled. Each tick is
// wrapped in recover so one bad run never kills the loop.
func (w *ReminderWorker) Start(ctx context.Context) {
	log := logger.GetAppLogger()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.WithFields(map[string]interface{}{
		"interval":   w.interval.String(),
		"staleDelay": w.staleDelay.String(),
	}).Info("🔔 [REMINDER] Starting Reminder Worker...")

	for {
		select {
		case <-ctx.Done():
			log.Info("🔔 [REMINDER] Reminder Worker stopped")
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.WithFields(map[string]interface{}{
							"panic": r,
						}).Error("🔔 [REMINDER] Panic during reminder run, continuing on next tick")
					}
				}()
				w.RunOnce(ctx)
			}()
		}
	}
}

// RunOnce executes one full reminder pass. Exposed for scheduled
// invocation outside the ticker loop.
func (w *ReminderWorker) RunOnce(ctx context.Context) {
	log := logger.GetAppLogger()
	cutoff := time.Now().Add(-w.staleDelay)

	w.remindOrders(ctx, ordersvc.ReminderAdmin, cutoff, w.adminChannel,
		"⏰ Commandes en attente de validation depuis plus de 24h")
	w.remindOrders(ctx, ordersvc.ReminderProforma, cutoff, w.achatChannel,
		"⏰ Commandes validées sans proforma retenue depuis plus de 24h")
	w.remindOrders(ctx, ordersvc.ReminderPayment, cutoff, w.adminChannel,
		"⏰ Commandes avec solde à payer depuis plus de 24h")
	w.remindPayments(ctx, cutoff)

	log.Debug("🔔 [REMINDER] run complete")
}

// remindOrders handles one reminder type for orders: unconditional
// digest, then claim-gated direct reminders.
func (w *ReminderWorker) remindOrders(ctx context.Context, reminderType string, cutoff time.Time, digestChannel, digestTitle string) {
	log := logger.GetAppLogger()

	stale, err := w.orders.FindStale(ctx, reminderType, cutoff)
	if err != nil {
		log.WithError(err).Errorf("🔔 [REMINDER] stale order scan (%s) failed", reminderType)
		return
	}
	if len(stale) == 0 {
		return
	}

	// The digest goes out every run: it is a daily recap, not a
	// first-notice. Grouped by the orders' originating channel.
	byChannel := map[string][]ordermodels.Order{}
	for _, order := range stale {
		byChannel[order.ChannelID] = append(byChannel[order.ChannelID], order)
	}
	var lines []string
	for channelID, orders := range byChannel {
		ids := make([]string, 0, len(orders))
		for _, order := range orders {
			ids = append(ids, order.IDCommande)
		}
		lines = append(lines, fmt.Sprintf("<#%s>: %s", channelID, strings.Join(ids, ", ")))
	}
	digest := digestTitle + "\n" + strings.Join(lines, "\n")
	if _, err := w.notifier.PostText(ctx, digestChannel, digest); err != nil {
		log.WithError(err).Errorf("🔔 [REMINDER] digest post (%s) failed", reminderType)
	}

	// Direct reminders: the claim is the only idempotency gate, so an
	// overlapping run claims nothing and stays silent.
	for _, order := range stale {
		claimed, ok, err := w.orders.ClaimReminder(ctx, order.IDCommande, reminderType)
		if err != nil {
			log.WithError(err).Errorf("🔔 [REMINDER] claim on %s failed", order.IDCommande)
			continue
		}
		if !ok {
			log.Debugf("🔔 [REMINDER] %s already claimed for %s", order.IDCommande, reminderType)
			continue
		}

		text := fmt.Sprintf("⏰ La commande *%s* attend une action (%s) depuis plus de 24h.",
			claimed.IDCommande, reminderType)
		if _, err := w.notifier.PostText(ctx, order.ChannelID, text); err != nil {
			log.WithError(err).Errorf("🔔 [REMINDER] direct reminder for %s failed", order.IDCommande)
		}
	}
}

// remindPayments handles the admin reminder for payment requests.
func (w *ReminderWorker) remindPayments(ctx context.Context, cutoff time.Time) {
	log := logger.GetAppLogger()

	stale, err := w.payments.FindStale(ctx, cutoff)
	if err != nil {
		log.WithError(err).Error("🔔 [REMINDER] stale payment scan failed")
		return
	}
	if len(stale) == 0 {
		return
	}

	var lines []string
	for _, request := range stale {
		lines = append(lines, fmt.Sprintf("%s — %s (%s %s)",
			request.IDPaiement, request.Title,
			utility.FormatAmount(request.Amount), request.Currency))
	}
	digest := "⏰ Demandes de paiement en attente depuis plus de 24h\n" + strings.Join(lines, "\n")
	if _, err := w.notifier.PostText(ctx, w.adminChannel, digest); err != nil {
		log.WithError(err).Error("🔔 [REMINDER] payment digest post failed")
	}

	for _, request := range stale {
		claimed, ok, err := w.payments.ClaimReminder(ctx, request.IDPaiement)
		if err != nil {
			log.WithError(err).Errorf("🔔 [REMINDER] claim on %s failed", request.IDPaiement)
			continue
		}
		if !ok {
			continue
		}
		text := fmt.Sprintf("⏰ La demande de paiement *%s* attend une validation depuis plus de 24h.",
			claimed.IDPaiement)
		if _, err := w.notifier.PostText(ctx, request.ChannelID, text); err != nil {
			log.WithError(err).Errorf("🔔 [REMINDER] direct reminder for %s failed", request.IDPaiement)
		}
	}
}
