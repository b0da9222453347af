package routes

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/wallet_service/internal/middleware"
)

type errorBody struct {
	Timestamp string `json:"timestamp"`
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Path      string `json:"path"`
}

// ErrorHandler renders every error returned by a handler as a JSON body.
// Server-side failures get a generic message and are logged with their cause.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, message := classify(err)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				slog.String("method", c.Method()),
				slog.String("path", c.Path()),
				slog.String("request_id", middleware.RequestIDFrom(c)),
				slog.Any("error", err),
			)
		}
		return c.Status(status).JSON(errorBody{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Status:    status,
			Message:   message,
			Path:      c.Path(),
		})
	}
}

func classify(err error) (int, string) {
	status := middleware.StatusOf(err)
	if status >= http.StatusInternalServerError {
		return status, "internal server error"
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return status, fe.Message
	}
	return status, err.Error()
}
