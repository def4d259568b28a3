// Package router registers the Slack webhook routes.
package router

import (
	"github.com/gofiber/fiber/v3"

	"caisseflow/config"
	caissesvc "caisseflow/internal/api/caisse/service"
	"caisseflow/internal/api/middleware"
	ordersvc "caisseflow/internal/api/order/service"
	paysvc "caisseflow/internal/api/payment/service"
	slackhdl "caisseflow/internal/api/slackbot/handler"
	slackgw "caisseflow/internal/slack"
)

// Register mounts the Slack endpoints under /slack, all behind
// signature verification.
func Register(
	app *fiber.App,
	cfg *config.Configuration,
	orders *ordersvc.OrderService,
	payments *paysvc.PaymentService,
	caisses *caissesvc.CaisseService,
	notifier *slackgw.Notifier,
) {
	handler := slackhdl.NewSlackHandler(orders, payments, caisses, notifier, cfg)

	group := app.Group("/slack", middleware.SlackSignature(cfg.SlackSigningSecret))
	group.Post("/commands", handler.HandleCommand)
	group.Post("/interactions", handler.HandleInteraction)
}
