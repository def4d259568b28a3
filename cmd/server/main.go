package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"

	caissesvc "caisseflow/internal/api/caisse/service"
	ordersvc "caisseflow/internal/api/order/service"
	paysvc "caisseflow/internal/api/payment/service"
	seqsvc "caisseflow/internal/api/sequence/service"
	"caisseflow/internal/database"
	"caisseflow/internal/excel"
	"caisseflow/internal/global"
	"caisseflow/internal/logger"
	slackgw "caisseflow/internal/slack"
	"caisseflow/internal/worker"
)

// initLogger sets up the logging system before anything else runs.
func initLogger() {
	if err := logger.Init(nil); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	logger.GetAppLogger().Info("Logger system initialized successfully")
}

// main_thread runs the Fiber server. Blocks until the listener stops.
func main_thread(app *fiber.App) {
	cfg := global.ServerConfig
	log := logger.GetAppLogger()

	log.WithFields(map[string]interface{}{
		"address":  cfg.Address,
		"protocol": "HTTP",
	}).Info("Starting Fiber server...")

	if err := app.Listen(cfg.Address, fiber.ListenConfig{}); err != nil {
		log.Fatalf("Error in Fiber Listen: %v", err)
	}
}

func main() {
	initLogger()
	InitGlobal()
	InitRegistry()

	log := logger.GetAppLogger()
	cfg := global.ServerConfig

	// Services, wired against the registered collections. Every id-issuing
	// service shares the same sequence counter.
	sequences := seqsvc.NewSequenceService(mustCollection(global.ColNames.Sequences))
	orders := ordersvc.NewOrderService(mustCollection(global.ColNames.Orders), sequences)
	payments := paysvc.NewPaymentService(mustCollection(global.ColNames.PaymentRequests), sequences)
	caisses := caissesvc.NewCaisseService(mustCollection(global.ColNames.Caisses), sequences)

	notifier := slackgw.NewNotifier(cfg.SlackBotToken, cfg.TechAlertChannelID)

	// Excel mirror listens on the data-change bus; a broken mirror never
	// blocks the workflow, errors go to the tech alert channel.
	mirror, err := excel.NewMirror(cfg.ExcelDir, notifier)
	if err != nil {
		log.WithError(err).Error("Failed to initialize Excel mirror, continuing without it")
	} else {
		excel.RegisterListeners(mirror)
		log.Infof("Excel mirror writing to %s", cfg.ExcelDir)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reminders := worker.NewReminderWorker(
		orders,
		payments,
		notifier,
		time.Duration(cfg.ReminderIntervalMinutes)*time.Minute,
		time.Duration(cfg.ReminderDelayHours)*time.Hour,
		cfg.AdminChannelID,
		cfg.AchatChannelID,
	)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("Reminder worker stopped after panic: %v", r)
			}
		}()
		reminders.Start(ctx)
	}()

	recap := worker.NewRecapWorker(orders, payments, caisses, notifier, cfg.RecapCronSpec, cfg.AdminChannelID)
	if err := recap.Start(ctx); err != nil {
		log.WithError(err).Error("Failed to start recap worker, continuing without it")
	}

	defer func() {
		if err := database.CloseInstance(global.MongoDB_Session); err != nil {
			log.WithError(err).Error("Failed to close MongoDB session")
		}
	}()

	app := InitFiberApp(orders, payments, caisses, notifier)
	main_thread(app)
}
