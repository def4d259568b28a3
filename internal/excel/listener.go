package excel

import (
	"context"

	caissemodels "caisseflow/internal/api/caisse/models"
	"caisseflow/internal/api/events"
	ordermodels "caisseflow/internal/api/order/models"
	paymodels "caisseflow/internal/api/payment/models"
	"caisseflow/internal/global"
)

// RegisterListeners mirrors every persisted change to the workbooks.
// Runs on the event bus goroutines, off the request path.
func RegisterListeners(m *Mirror) {
	events.Subscribe(global.ColNames.Orders, func(ctx context.Context, event events.DataChangeEvent) {
		if order, ok := event.Document.(ordermodels.Order); ok {
			m.SyncOrder(ctx, &order)
		}
	})
	events.Subscribe(global.ColNames.PaymentRequests, func(ctx context.Context, event events.DataChangeEvent) {
		if request, ok := event.Document.(paymodels.PaymentRequest); ok {
			m.SyncPaymentRequest(ctx, &request)
		}
	})
	events.Subscribe(global.ColNames.Caisses, func(ctx context.Context, event events.DataChangeEvent) {
		if caisse, ok := event.Document.(caissemodels.Caisse); ok {
			m.SyncCaisse(ctx, &caisse)
		}
	})
}
