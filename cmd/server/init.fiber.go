package main

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"

	caissesvc "caisseflow/internal/api/caisse/service"
	ordersvc "caisseflow/internal/api/order/service"
	paysvc "caisseflow/internal/api/payment/service"
	"caisseflow/internal/api/slackbot/router"
	"caisseflow/internal/common"
	"caisseflow/internal/global"
	"caisseflow/internal/logger"
	slackgw "caisseflow/internal/slack"
)

// InitFiberApp builds the Fiber application: config, middleware stack and
// the Slack routes.
func InitFiberApp(
	orders *ordersvc.OrderService,
	payments *paysvc.PaymentService,
	caisses *caissesvc.CaisseService,
	notifier *slackgw.Notifier,
) *fiber.App {
	cfg := global.ServerConfig

	app := fiber.New(fiber.Config{
		AppName:       "CaisseFlow",
		ServerHeader:  "CaisseFlow",
		StrictRouting: true,
		CaseSensitive: true,

		// Slack sends small urlencoded payloads; 1MB is generous.
		BodyLimit:       1 * 1024 * 1024,
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,

		// Slack retries a request it has not acked within 3 seconds, so
		// anything slow must already run detached from the handler.
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,

		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Erreur interne du serveur"
			errorCode := common.ErrCodeInternalServer.Code

			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				message = e.Message
				switch code {
				case fiber.StatusBadRequest:
					errorCode = common.ErrCodeValidationInput.Code
				case fiber.StatusNotFound:
					errorCode = common.ErrCodeDatabaseQuery.Code
				case fiber.StatusConflict:
					errorCode = common.ErrCodeDatabaseQuery.Code
				}
			}

			logger.WithRequest(c).WithFields(map[string]interface{}{
				"code":      code,
				"errorCode": errorCode,
				"message":   message,
			}).Error("Request error")

			return c.Status(code).JSON(fiber.Map{
				"code":    errorCode,
				"message": message,
				"status":  "error",
			})
		},
	})

	// Request ID, so a Slack retry can be traced across log lines.
	app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins(),
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"X-Request-ID",
			"X-Slack-Signature",
			"X-Slack-Request-Timestamp",
		},
		MaxAge: 24 * 60 * 60,
	}))

	if cfg.RateLimit_Enabled && cfg.RateLimit_Max > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimit_Max,
			Expiration: time.Duration(cfg.RateLimit_Window) * time.Second,
			KeyGenerator: func(c fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"code":    common.ErrCodeBusinessOperation.Code,
					"message": "Trop de requêtes, veuillez réessayer plus tard",
					"status":  "error",
				})
			},
			Next: func(c fiber.Ctx) bool {
				return c.Path() == "/health" || c.Method() == "OPTIONS"
			},
		}))
		logger.GetAppLogger().Infof("Rate limiting enabled: %d requests per %d seconds", cfg.RateLimit_Max, cfg.RateLimit_Window)
	} else {
		logger.GetAppLogger().Info("Rate limiting disabled")
	}

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e interface{}) {
			logger.WithRequest(c).WithFields(map[string]interface{}{
				"panic": e,
			}).Error("Panic recovered")
		},
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/health"
		},
	}))

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"time":   time.Now().UnixMilli(),
		})
	})

	router.Register(app, cfg, orders, payments, caisses, notifier)

	return app
}
