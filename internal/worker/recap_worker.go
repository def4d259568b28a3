package worker

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"

	caissesvc "caisseflow/internal/api/caisse/service"
	ordersvc "caisseflow/internal/api/order/service"
	paysvc "caisseflow/internal/api/payment/service"
	"caisseflow/internal/logger"
	slackgw "caisseflow/internal/slack"
	"caisseflow/internal/utility"
	"caisseflow/internal/workflow"
)

// RecapWorker posts a daily summary of open work and caisse balances
// to the admin channel on a cron schedule.
type RecapWorker struct {
	orders   *ordersvc.OrderService
	payments *paysvc.PaymentService
	caisses  *caissesvc.CaisseService
	notifier *slackgw.Notifier

	cronSpec     string
	adminChannel string
	cron         *cron.Cron
}

// NewRecapWorker wires the worker. Spec defaults to 08:00 every day.
func NewRecapWorker(
	orders *ordersvc.OrderService,
	payments *paysvc.PaymentService,
	caisses *caissesvc.CaisseService,
	notifier *slackgw.Notifier,
	cronSpec, adminChannel string,
) *RecapWorker {
	if cronSpec == "" {
		cronSpec = "0 8 * * *"
	}
	return &RecapWorker{
		orders:       orders,
		payments:     payments,
		caisses:      caisses,
		notifier:     notifier,
		cronSpec:     cronSpec,
		adminChannel: adminChannel,
	}
}

// Start registers the cron entry and runs until the context is
// cancelled.
func (w *RecapWorker) Start(ctx context.Context) error {
	log := logger.GetAppLogger()

	w.cron = cron.New()
	_, err := w.cron.AddFunc(w.cronSpec, func() {
		defer func() {
			if r := recover(); r != nil {
				log.WithFields(map[string]interface{}{
					"panic": r,
				}).Error("📋 [RECAP] Panic during recap run")
			}
		}()
		w.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	w.cron.Start()
	log.WithFields(map[string]interface{}{
		"cronSpec": w.cronSpec,
	}).Info("📋 [RECAP] Starting Recap Worker...")

	go func() {
		<-ctx.Done()
		w.cron.Stop()
		log.Info("📋 [RECAP] Recap Worker stopped")
	}()
	return nil
}

// RunOnce builds and posts one recap message.
func (w *RecapWorker) RunOnce(ctx context.Context) {
	log := logger.GetAppLogger()

	pendingOrders, err := w.orders.CountDocuments(ctx, bson.M{"statut": workflow.StatusPending})
	if err != nil {
		log.WithError(err).Error("📋 [RECAP] order count failed")
		return
	}
	pendingPayments, err := w.payments.CountDocuments(ctx, bson.M{"statut": workflow.StatusPending})
	if err != nil {
		log.WithError(err).Error("📋 [RECAP] payment count failed")
		return
	}
	caisses, err := w.caisses.Find(ctx, nil, nil)
	if err != nil {
		log.WithError(err).Error("📋 [RECAP] caisse scan failed")
		return
	}

	var lines []string
	lines = append(lines, "📋 *Récapitulatif quotidien*")
	lines = append(lines, fmt.Sprintf("Commandes en attente: %d", pendingOrders))
	lines = append(lines, fmt.Sprintf("Demandes de paiement en attente: %d", pendingPayments))
	for _, caisse := range caisses {
		var balances []string
		for _, currency := range []string{"XOF", "USD", "EUR"} {
			balances = append(balances, fmt.Sprintf("%s %s", utility.FormatAmount(caisse.Balance(currency)), currency))
		}
		lines = append(lines, fmt.Sprintf("Caisse %s: %s", caisse.Type, strings.Join(balances, " / ")))

		var pendingFunding, pendingTransfers int
		for _, f := range caisse.FundingRequests {
			if !workflow.IsTerminal(workflow.KindFundingRequest, f.Status) {
				pendingFunding++
			}
		}
		for _, t := range caisse.TransferRequests {
			if t.Status == workflow.StatusPending {
				pendingTransfers++
			}
		}
		if pendingFunding > 0 || pendingTransfers > 0 {
			lines = append(lines, fmt.Sprintf("  ↳ alimentations ouvertes: %d, transferts ouverts: %d",
				pendingFunding, pendingTransfers))
		}
	}

	if _, err := w.notifier.PostText(ctx, w.adminChannel, strings.Join(lines, "\n")); err != nil {
		log.WithError(err).Error("📋 [RECAP] post failed")
	}
}
