package bot

import (
	"context"
	"errors"
	"time"

	"github.com/aryanahadi/canteen-bot/internal/ledger"
	"github.com/aryanahadi/canteen-bot/internal/models"
	"gopkg.in/telebot.v4"
)

// employeeKey is the telebot context key the auth middleware stores the
// resolved employee under.
const employeeKey = "employee"

// AuthMiddleware resolves the sender to a linked employee record and stores
// it in the handler context. Unlinked senders are redirected to the contact
// sharing flow instead.
func (b *Bot) AuthMiddleware(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(ctx telebot.Context) error {
		userID := ctx.Sender().ID
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		startTime := time.Now()
		employee, err := b.emrepo.EmployeeByTelegramID(timeoutCtx, userID)
		b.observeDB("get_employee", startTime)
		if err != nil {
			if errors.Is(err, ledger.ErrEmployeeNotFound) {
				b.log.Info("Access denied", "username", ctx.Sender().Username, "id", userID)
				if ctx.Callback() != nil {
					return ctx.Respond(&telebot.CallbackResponse{
						Text:      b.t("start.unlinked"),
						ShowAlert: true,
					})
				}
				b.metrics.SentMessages.WithLabelValues("text").Inc()
				return ctx.Send(b.t("start.unlinked"), b.buildContactMenu())
			}
			b.log.Error("Failed to authenticate telegram user from DB", "id", userID, "error", err)
			b.metrics.SentMessages.WithLabelValues("error").Inc()
			return ctx.Send(b.t("error.internal"))
		}

		ctx.Set(employeeKey, employee)
		return next(ctx)
	}
}

// AdminMiddleware restricts a route to administrators. It must run after
// AuthMiddleware.
func (b *Bot) AdminMiddleware(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(ctx telebot.Context) error {
		employee, ok := ctx.Get(employeeKey).(models.Employee)
		if !ok || !employee.IsAdmin {
			b.log.Info("Admin access denied", "username", ctx.Sender().Username, "id", ctx.Sender().ID)
			b.metrics.SentMessages.WithLabelValues("error").Inc()
			return ctx.Send(b.t("error.denied"))
		}

		return next(ctx)
	}
}

// FloodMiddleware drops updates from senders exceeding the per-sender rate
// limit. A redis outage fails open so the bot keeps working without the
// guard.
func (b *Bot) FloodMiddleware(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(ctx telebot.Context) error {
		if ctx.Sender() == nil {
			return next(ctx)
		}

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		allowed, err := b.guard.Allow(timeoutCtx, ctx.Sender().ID)
		if err != nil {
			b.log.Warn("Flood guard unavailable, letting update through", "error", err)
			return next(ctx)
		}
		if !allowed {
			b.log.Info("Update dropped by flood guard", "id", ctx.Sender().ID)
			return ctx.Send(b.t("error.flood"))
		}

		return next(ctx)
	}
}

// currentEmployee returns the employee stored by AuthMiddleware.
func (b *Bot) currentEmployee(ctx telebot.Context) (models.Employee, bool) {
	employee, ok := ctx.Get(employeeKey).(models.Employee)
	return employee, ok
}
