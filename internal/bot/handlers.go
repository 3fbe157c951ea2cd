package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/aryanahadi/canteen-bot/internal/ledger"
	"github.com/aryanahadi/canteen-bot/internal/repository"
	"gopkg.in/telebot.v4"
)

const handlerTimeout = 3 * time.Second

// targetDate returns the date reservations are currently taken for, which
// is always the next calendar day in local time.
func targetDate() time.Time {
	now := time.Now()
	tomorrow := now.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, now.Location())
}

// normalizePhone brings a shared contact number to the stored format.
// Telegram omits the leading plus on most clients.
func normalizePhone(phone string) string {
	phone = strings.ReplaceAll(phone, " ", "")
	if phone != "" && !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}
	return phone
}

// startHandler process command /start.
func (b *Bot) startHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	b.log.Info("User started the bot", "id", userID, "username", ctx.Sender().Username)
	b.metrics.CommandReceived.WithLabelValues("/start").Inc()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	startTime := time.Now()
	employee, err := b.emrepo.EmployeeByTelegramID(timeoutCtx, userID)
	b.observeDB("get_employee", startTime)
	if err != nil {
		if errors.Is(err, ledger.ErrEmployeeNotFound) {
			b.metrics.SentMessages.WithLabelValues("text").Inc()
			return ctx.Send(b.t("start.unlinked"), b.buildContactMenu())
		}
		b.log.Error("Failed to look up employee on /start", "id", userID, "error", err)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(b.t("error.internal"))
	}

	responseText := b.tWithData("start.welcome", map[string]interface{}{"name": employee.FullName})
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(responseText, b.buildMainMenu(employee.IsAdmin))
}

// contactHandler links the sender to their employee record by the shared
// phone number. Only the sender's own contact is accepted.
func (b *Bot) contactHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	contact := ctx.Message().Contact
	if contact == nil {
		return nil
	}

	if contact.UserID != userID {
		b.log.Info("User shared a foreign contact", "id", userID)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(b.t("link.own_contact_only"))
	}

	timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	phone := normalizePhone(contact.PhoneNumber)
	b.log.Debug("User is trying to link by phone", "user", userID)

	startTime := time.Now()
	employee, err := b.emrepo.LinkTelegramIDByPhone(timeoutCtx, userID, phone)
	b.observeDB("link_employee", startTime)
	if err != nil {
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		switch {
		case errors.Is(err, repository.ErrPhoneNotRegistered):
			b.log.Info("Phone number not registered", "user", userID)
			return ctx.Send(b.t("link.phone_not_found"))
		case errors.Is(err, repository.ErrAlreadyLinked):
			b.log.Info("Employee already linked to another account", "user", userID)
			return ctx.Send(b.t("link.already_linked"))
		case errors.Is(err, repository.ErrTelegramIDTaken):
			b.log.Info("Telegram id already bound to another employee", "user", userID)
			return ctx.Send(b.t("link.id_taken"))
		default:
			b.log.Error("Failed to link telegram id with employee", "error", err)
			return ctx.Send(b.t("error.internal"))
		}
	}

	b.log.Info("User successfully linked", "user", userID, "employee", employee.ID)
	b.metrics.NewUsers.Inc()
	b.metrics.SentMessages.WithLabelValues("text").Inc()

	responseText := b.tWithData("link.success", map[string]interface{}{"name": employee.FullName})
	return ctx.Send(responseText, b.buildMainMenu(employee.IsAdmin))
}

// routeTextHandler dispatches free-form text: first to a pending prompted
// input if one is waiting, then to the reply keyboard buttons.
func (b *Bot) routeTextHandler(ctx telebot.Context) error {
	employee, _ := b.currentEmployee(ctx)

	if state, ok := b.stateManager.Get(ctx.Sender().ID); ok {
		if time.Now().After(state.ExpiresAt) {
			b.metrics.SentMessages.WithLabelValues("text").Inc()
			return ctx.Send(b.t("state.expired"), b.buildMainMenu(employee.IsAdmin))
		}
		return b.dispatchStateInput(ctx, state)
	}

	switch ctx.Text() {
	case b.t("menu.tomorrow"):
		return b.menuHandler(ctx)
	case b.t("menu.my_reservation"):
		return b.myReservationHandler(ctx)
	case b.t("menu.cancel_reservation"):
		return b.cancelReservationHandler(ctx)
	case b.t("menu.back"):
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		responseText := b.tWithData("start.welcome", map[string]interface{}{"name": employee.FullName})
		return ctx.Send(responseText, b.buildMainMenu(employee.IsAdmin))
	case b.t("menu.admin_panel"):
		return b.requireAdmin(ctx, b.adminPanelHandler)
	case b.t("admin.menu.set"):
		return b.requireAdmin(ctx, b.setMenuInitiateHandler)
	case b.t("admin.menu.close_day"):
		return b.requireAdmin(ctx, b.closeDayInitiateHandler)
	case b.t("admin.menu.reopen_day"):
		return b.requireAdmin(ctx, b.reopenDayInitiateHandler)
	case b.t("admin.menu.hours"):
		return b.requireAdmin(ctx, b.hoursInitiateHandler)
	case b.t("admin.menu.add_employee"):
		return b.requireAdmin(ctx, b.addEmployeeInitiateHandler)
	case b.t("admin.menu.report"):
		return b.requireAdmin(ctx, b.reportInitiateHandler)
	case b.t("admin.menu.broadcast"):
		return b.requireAdmin(ctx, b.broadcastInitiateHandler)
	default:
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		return ctx.Reply(b.t("error.use_buttons"))
	}
}

// menuHandler shows the next day's menu with one inline button per meal.
func (b *Bot) menuHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues("menu").Inc()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	date := targetDate()
	menu, err := b.menus.MenuByDate(timeoutCtx, date)
	if err != nil {
		if errors.Is(err, ledger.ErrMenuNotFound) {
			b.metrics.SentMessages.WithLabelValues("text").Inc()
			return ctx.Send(b.t("menu.not_defined"))
		}
		b.log.Error("Failed to load menu", "date", date.Format(time.DateOnly), "error", err)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(b.t("error.internal"))
	}

	dateStr := date.Format(time.DateOnly)
	if menu.IsCanceled {
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		return ctx.Send(b.tWithData("menu.canceled", map[string]interface{}{"date": dateStr}))
	}

	markup := &telebot.ReplyMarkup{}
	rows := make([]telebot.Row, 0, 3)
	for i, meal := range menu.Options() {
		btn := markup.Data(meal, btnMealPick.Unique, dateStr, strconv.Itoa(i))
		rows = append(rows, markup.Row(btn))
	}
	markup.Inline(rows...)

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	responseText := b.tWithData("menu.header", map[string]interface{}{"date": dateStr})
	return ctx.Send(responseText, markup)
}

// mealPickHandler places or overwrites the sender's reservation with the
// meal selected on the menu message.
func (b *Bot) mealPickHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues("reserve").Inc()
	_ = ctx.Respond()

	employee, ok := b.currentEmployee(ctx)
	if !ok {
		return nil
	}

	args := ctx.Args()
	if len(args) != 2 {
		b.log.Warn("Malformed meal selection callback", "id", ctx.Sender().ID, "args", args)
		return nil
	}

	date, err := time.ParseInLocation(time.DateOnly, args[0], time.Local)
	if err != nil {
		b.log.Warn("Malformed date in meal selection callback", "id", ctx.Sender().ID, "data", args[0])
		return nil
	}
	mealIndex, err := strconv.Atoi(args[1])
	if err != nil {
		b.log.Warn("Malformed meal index in meal selection callback", "id", ctx.Sender().ID, "data", args[1])
		return nil
	}

	timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	win, err := b.carepo.AdmissionWindow(timeoutCtx)
	if err != nil {
		b.log.Error("Failed to load admission window", "error", err)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(b.t("error.internal"))
	}

	// The meal name is resolved against the stored menu, not the cached
	// message, so a button tapped on an outdated menu cannot reserve a
	// meal that is no longer offered.
	startTime := time.Now()
	menu, err := b.carepo.MenuByDate(timeoutCtx, date)
	b.observeDB("get_menu", startTime)
	if err != nil {
		if errors.Is(err, ledger.ErrMenuNotFound) {
			b.metrics.SentMessages.WithLabelValues("edit").Inc()
			return ctx.Edit(b.t("reserve.menu_not_defined"))
		}
		b.log.Error("Failed to load menu for reservation", "error", err)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(b.t("error.internal"))
	}

	options := menu.Options()
	if mealIndex < 0 || mealIndex >= len(options) {
		b.metrics.SentMessages.WithLabelValues("edit").Inc()
		return ctx.Edit(b.t("reserve.menu_not_defined"))
	}
	meal := options[mealIndex]

	startTime = time.Now()
	result, err := b.ledger.Reserve(timeoutCtx, employee.ID, date, meal, win)
	b.observeDB("reserve", startTime)
	if err != nil {
		b.log.Error("Failed to place reservation", "employee", employee.ID, "error", err)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(b.t("error.internal"))
	}

	b.metrics.ReservationOutcomes.WithLabelValues(string(result.Outcome), string(result.Reason)).Inc()
	b.metrics.SentMessages.WithLabelValues("edit").Inc()

	dateStr := date.Format(time.DateOnly)
	switch result.Outcome {
	case ledger.OutcomeCreated:
		return ctx.Edit(b.tWithData("reserve.created", map[string]interface{}{"date": dateStr, "meal": meal}))
	case ledger.OutcomeEdited:
		return ctx.Edit(b.tWithData("reserve.edited", map[string]interface{}{"date": dateStr, "meal": meal}))
	default:
		return ctx.Edit(b.rejectionText(result.Reason, result.Window))
	}
}

// rejectionText maps a reservation rejection reason to its message.
func (b *Bot) rejectionText(reason ledger.Reason, win ledger.Window) string {
	switch reason {
	case ledger.ReasonWindowClosed:
		return b.tWithData("reserve.window_closed", map[string]interface{}{
			"start": win.StartHour,
			"end":   win.EndHour,
		})
	case ledger.ReasonMenuNotDefined:
		return b.t("reserve.menu_not_defined")
	case ledger.ReasonMenuCanceled:
		return b.t("reserve.menu_canceled")
	case ledger.ReasonEmployeeNotFound:
		return b.t("reserve.not_registered")
	default:
		return b.t("error.internal")
	}
}

// myReservationHandler shows the sender's reservation for the next day.
func (b *Bot) myReservationHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues("my_reservation").Inc()

	employee, ok := b.currentEmployee(ctx)
	if !ok {
		return nil
	}

	timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	date := targetDate()
	dateStr := date.Format(time.DateOnly)

	startTime := time.Now()
	reservation, err := b.carepo.ReservationByEmployeeAndDate(timeoutCtx, employee.ID, date)
	b.observeDB("get_reservation", startTime)
	if err != nil {
		if errors.Is(err, ledger.ErrReservationNotFound) {
			b.metrics.SentMessages.WithLabelValues("text").Inc()
			return ctx.Send(b.tWithData("myres.none", map[string]interface{}{"date": dateStr}))
		}
		b.log.Error("Failed to load reservation", "employee", employee.ID, "error", err)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(b.t("error.internal"))
	}

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.tWithData("myres.current", map[string]interface{}{
		"date":   dateStr,
		"meal":   reservation.SelectedMeal,
		"status": reservation.Status,
	}))
}

// cancelReservationHandler cancels the sender's reservation for the next
// day. Cancellation follows the same admission window as placing one.
func (b *Bot) cancelReservationHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues("cancel").Inc()

	employee, ok := b.currentEmployee(ctx)
	if !ok {
		return nil
	}

	timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	win, err := b.carepo.AdmissionWindow(timeoutCtx)
	if err != nil {
		b.log.Error("Failed to load admission window", "error", err)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(b.t("error.internal"))
	}

	if !win.Contains(time.Now()) {
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		return ctx.Send(b.tWithData("cancel.window_closed", map[string]interface{}{
			"start": win.StartHour,
			"end":   win.EndHour,
		}))
	}

	date := targetDate()
	dateStr := date.Format(time.DateOnly)

	startTime := time.Now()
	err = b.carepo.CancelReservation(timeoutCtx, employee.ID, date)
	b.observeDB("cancel_reservation", startTime)
	if err != nil {
		if errors.Is(err, ledger.ErrReservationNotFound) {
			b.metrics.SentMessages.WithLabelValues("text").Inc()
			return ctx.Send(b.tWithData("cancel.none", map[string]interface{}{"date": dateStr}))
		}
		b.log.Error("Failed to cancel reservation", "employee", employee.ID, "error", err)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(b.t("error.internal"))
	}

	b.log.Info("Reservation canceled", "employee", employee.ID, "date", dateStr)
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.tWithData("cancel.success", map[string]interface{}{"date": dateStr}))
}

// requireAdmin guards reply keyboard entries that only administrators see.
// A non-admin can still type the button text by hand, so the check is
// enforced here as well.
func (b *Bot) requireAdmin(ctx telebot.Context, handler telebot.HandlerFunc) error {
	employee, ok := b.currentEmployee(ctx)
	if !ok || !employee.IsAdmin {
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(b.t("error.denied"))
	}
	return handler(ctx)
}
