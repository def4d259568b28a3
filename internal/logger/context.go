package logger

import (
	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

// WithModule returns an entry tagged with the originating module
// (e.g. "order", "caisse", "reminder", "excel").
func WithModule(module string) *logrus.Entry {
	return GetAppLogger().WithField("module", module)
}

// WithFields returns an entry with arbitrary fields on the app logger.
func WithFields(fields map[string]interface{}) *logrus.Entry {
	return GetAppLogger().WithFields(logrus.Fields(fields))
}

// WithError returns an entry carrying err on the app logger.
func WithError(err error) *logrus.Entry {
	return GetAppLogger().WithError(err)
}

// WithRequest returns an entry tagged with request metadata from Fiber.
func WithRequest(c fiber.Ctx) *logrus.Entry {
	entry := GetAppLogger().WithFields(logrus.Fields{
		"method": c.Method(),
		"path":   c.Path(),
		"ip":     c.IP(),
	})
	if rid := c.Locals("requestid"); rid != nil {
		if s, ok := rid.(string); ok && s != "" {
			entry = entry.WithField("request_id", s)
		}
	}
	return entry
}
