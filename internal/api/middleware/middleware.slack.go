// Package middleware holds the Fiber middlewares guarding the Slack
// webhook endpoints.
package middleware

import (
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/slack-go/slack"

	basehdl "caisseflow/internal/api/base/handler"
	"caisseflow/internal/common"
	"caisseflow/internal/logger"
)

// SlackSignature verifies the X-Slack-Signature HMAC on every inbound
// request. Requests that fail verification never reach a handler.
func SlackSignature(signingSecret string) fiber.Handler {
	log := logger.WithModule("middleware")

	return func(c fiber.Ctx) error {
		header := http.Header{}
		for key, values := range c.GetReqHeaders() {
			for _, value := range values {
				header.Add(key, value)
			}
		}

		verifier, err := slack.NewSecretsVerifier(header, signingSecret)
		if err != nil {
			log.WithError(err).Warn("🔐 [SLACK] signature header missing or malformed")
			basehdl.HandleResponse(c, nil, common.NewError(common.ErrCodeValidationInput,
				"Signature Slack invalide", common.StatusUnauthorized, nil))
			return nil
		}
		if _, err := verifier.Write(c.Body()); err != nil {
			return err
		}
		if err := verifier.Ensure(); err != nil {
			log.Warn("🔐 [SLACK] signature verification failed")
			basehdl.HandleResponse(c, nil, common.NewError(common.ErrCodeValidationInput,
				"Signature Slack invalide", common.StatusUnauthorized, nil))
			return nil
		}

		return c.Next()
	}
}
