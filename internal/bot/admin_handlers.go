package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aryanahadi/canteen-bot/internal/ledger"
	"github.com/aryanahadi/canteen-bot/internal/repository"
	"github.com/aryanahadi/canteen-bot/internal/report"
	"gopkg.in/telebot.v4"
)

// Prompted admin input states.
const (
	stateAwaitingMenu       = "awaiting_menu_input"
	stateAwaitingCloseDate  = "awaiting_close_date"
	stateAwaitingReopenDate = "awaiting_reopen_date"
	stateAwaitingHours      = "awaiting_hours_input"
	stateAwaitingEmployee   = "awaiting_employee_input"
	stateAwaitingBroadcast  = "awaiting_broadcast"
)

// inputSeparator splits the fields of prompted multi-part admin inputs.
const inputSeparator = ";"

// dispatchStateInput routes a text message to the admin input handler the
// pending state is waiting for.
func (b *Bot) dispatchStateInput(ctx telebot.Context, state UserState) error {
	switch state.WaitingFor {
	case stateAwaitingMenu:
		return b.requireAdmin(ctx, b.handleSetMenuInput)
	case stateAwaitingCloseDate:
		return b.requireAdmin(ctx, func(ctx telebot.Context) error {
			return b.handleToggleDateInput(ctx, true)
		})
	case stateAwaitingReopenDate:
		return b.requireAdmin(ctx, func(ctx telebot.Context) error {
			return b.handleToggleDateInput(ctx, false)
		})
	case stateAwaitingHours:
		return b.requireAdmin(ctx, b.handleHoursInput)
	case stateAwaitingEmployee:
		return b.requireAdmin(ctx, b.handleAddEmployeeInput)
	case stateAwaitingBroadcast:
		return b.requireAdmin(ctx, b.handleBroadcastInput)
	default:
		b.log.Warn("Unknown pending state", "id", ctx.Sender().ID, "state", state.WaitingFor)
		return ctx.Send(b.t("error.use_buttons"))
	}
}

// adminPanelHandler shows the admin reply keyboard.
func (b *Bot) adminPanelHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues("admin_panel").Inc()
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.t("menu.admin_panel"), b.buildAdminMenu())
}

// setMenuInitiateHandler prompts the admin for the next menu definition.
func (b *Bot) setMenuInitiateHandler(ctx telebot.Context) error {
	b.stateManager.Set(ctx.Sender().ID, UserState{WaitingFor: stateAwaitingMenu})
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.t("admin.setmenu.prompt"))
}

// handleSetMenuInput parses "date; meal 1[; meal 2[; meal 3]]" and stores
// the menu, replacing any previous definition for the date.
func (b *Bot) handleSetMenuInput(ctx telebot.Context) error {
	userID := ctx.Sender().ID

	parts := splitInput(ctx.Text())
	if len(parts) < 2 || len(parts) > 4 {
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(b.t("admin.setmenu.invalid"))
	}

	date, err := time.ParseInLocation(time.DateOnly, parts[0], time.Local)
	if err != nil {
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(b.t("admin.setmenu.invalid"))
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if !date.After(today) {
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(b.t("admin.setmenu.past_date"))
	}

	meals := make([]string, 3)
	copy(meals, parts[1:])

	timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	startTime := time.Now()
	menu, err := b.carepo.UpsertMenu(timeoutCtx, date, meals[0], meals[1], meals[2])
	b.observeDB("upsert_menu", startTime)
	if err != nil {
		b.log.Error("Failed to save menu", "admin", userID, "error", err)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(b.t("error.internal"))
	}

	if err = b.menus.Invalidate(timeoutCtx, date); err != nil {
		b.log.Warn("Failed to invalidate menu cache", "error", err)
	}

	b.log.Info("Menu saved", "admin", userID, "date", parts[0])
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.tWithData("admin.setmenu.success", map[string]interface{}{
		"date":  parts[0],
		"meals": strings.Join(menu.Options(), ", "),
	}))
}

// closeDayInitiateHandler prompts the admin for a date to close.
func (b *Bot) closeDayInitiateHandler(ctx telebot.Context) error {
	b.stateManager.Set(ctx.Sender().ID, UserState{WaitingFor: stateAwaitingCloseDate})
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.t("admin.close.prompt"))
}

// reopenDayInitiateHandler prompts the admin for a date to reopen.
func (b *Bot) reopenDayInitiateHandler(ctx telebot.Context) error {
	b.stateManager.Set(ctx.Sender().ID, UserState{WaitingFor: stateAwaitingReopenDate})
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.t("admin.close.prompt"))
}

// handleToggleDateInput flips the emergency closure flag of a menu date.
// Existing reservations stay untouched: the closure blocks admissions, it
// does not rewrite history.
func (b *Bot) handleToggleDateInput(ctx telebot.Context, canceled bool) error {
	userID := ctx.Sender().ID

	date, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(ctx.Text()), time.Local)
	if err != nil {
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(b.t("admin.close.invalid"))
	}
	dateStr := date.Format(time.DateOnly)

	timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	startTime := time.Now()
	err = b.carepo.SetMenuCanceled(timeoutCtx, date, canceled)
	b.observeDB("toggle_menu", startTime)
	if err != nil {
		if errors.Is(err, ledger.ErrMenuNotFound) {
			b.metrics.SentMessages.WithLabelValues("error").Inc()
			return ctx.Send(b.tWithData("admin.close.no_menu", map[string]interface{}{"date": dateStr}))
		}
		b.log.Error("Failed to toggle menu closure", "admin", userID, "error", err)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(b.t("error.internal"))
	}

	if err = b.menus.Invalidate(timeoutCtx, date); err != nil {
		b.log.Warn("Failed to invalidate menu cache", "error", err)
	}

	key := "admin.close.reopened"
	if canceled {
		key = "admin.close.closed"
	}

	b.log.Info("Menu closure toggled", "admin", userID, "date", dateStr, "canceled", canceled)
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.tWithData(key, map[string]interface{}{"date": dateStr}))
}

// hoursInitiateHandler prompts the admin for new reservation window bounds,
// showing the current ones.
func (b *Bot) hoursInitiateHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	win, err := b.carepo.AdmissionWindow(timeoutCtx)
	if err != nil {
		b.log.Error("Failed to load admission window", "error", err)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(b.t("error.internal"))
	}

	b.stateManager.Set(ctx.Sender().ID, UserState{WaitingFor: stateAwaitingHours})
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.tWithData("admin.hours.prompt", map[string]interface{}{
		"start": win.StartHour,
		"end":   win.EndHour,
	}))
}

// parseHoursInput parses a prompted "start end" hour pair. Equal bounds are
// accepted: with inclusive bounds they form a valid one-instant window.
// Only a start after the end is refused.
func parseHoursInput(text string) (ledger.Window, bool) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return ledger.Window{}, false
	}

	start, errStart := strconv.Atoi(fields[0])
	end, errEnd := strconv.Atoi(fields[1])
	if errStart != nil || errEnd != nil || start < 0 || end > 23 || start > end {
		return ledger.Window{}, false
	}

	return ledger.Window{StartHour: start, EndHour: end}, true
}

// handleHoursInput parses two hours and stores them as the new admission
// window.
func (b *Bot) handleHoursInput(ctx telebot.Context) error {
	win, ok := parseHoursInput(ctx.Text())
	if !ok {
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(b.t("admin.hours.invalid"))
	}

	timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	startTime := time.Now()
	err := b.carepo.SetAdmissionWindow(timeoutCtx, win)
	b.observeDB("set_window", startTime)
	if err != nil {
		b.log.Error("Failed to save admission window", "error", err)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(b.t("error.internal"))
	}

	b.log.Info("Admission window updated", "admin", ctx.Sender().ID, "start", win.StartHour, "end", win.EndHour)
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.tWithData("admin.hours.success", map[string]interface{}{
		"start": win.StartHour,
		"end":   win.EndHour,
	}))
}

// addEmployeeInitiateHandler prompts the admin for a new employee record.
func (b *Bot) addEmployeeInitiateHandler(ctx telebot.Context) error {
	b.stateManager.Set(ctx.Sender().ID, UserState{WaitingFor: stateAwaitingEmployee})
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.t("admin.addemp.prompt"))
}

// handleAddEmployeeInput parses "full name; national id; phone" and creates
// the employee record. The telegram id stays unset until the employee
// shares their contact with the bot.
func (b *Bot) handleAddEmployeeInput(ctx telebot.Context) error {
	parts := splitInput(ctx.Text())
	if len(parts) != 3 {
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(b.t("admin.addemp.invalid"))
	}
	fullName, nationalID, phone := parts[0], parts[1], normalizePhone(parts[2])

	timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	startTime := time.Now()
	employee, err := b.emrepo.CreateEmployee(timeoutCtx, nationalID, phone, fullName, false)
	b.observeDB("create_employee", startTime)
	if err != nil {
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		if errors.Is(err, repository.ErrEmployeeExists) {
			return ctx.Send(b.t("admin.addemp.exists"))
		}
		b.log.Error("Failed to create employee", "admin", ctx.Sender().ID, "error", err)
		return ctx.Send(b.t("error.internal"))
	}

	b.log.Info("Employee created", "admin", ctx.Sender().ID, "employee", employee.ID)
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.tWithData("admin.addemp.success", map[string]interface{}{"name": employee.FullName}))
}

// reportInitiateHandler asks which day the reservation report should cover.
func (b *Bot) reportInitiateHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues("report").Inc()

	markup := &telebot.ReplyMarkup{}
	btnToday := markup.Data(b.t("admin.report.today"), btnReportDay.Unique, "today")
	btnTomorrow := markup.Data(b.t("admin.report.tomorrow"), btnReportDay.Unique, "tomorrow")
	markup.Inline(markup.Row(btnToday, btnTomorrow))

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.t("admin.report.prompt"), markup)
}

// reportDayHandler generates and sends the reservation report for the
// selected day as an xlsx document.
func (b *Bot) reportDayHandler(ctx telebot.Context) error {
	_ = ctx.Respond()
	userID := ctx.Sender().ID

	now := time.Now()
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if len(ctx.Args()) == 1 && ctx.Args()[0] == "tomorrow" {
		date = targetDate()
	}
	dateStr := date.Format(time.DateOnly)

	timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	startTime := time.Now()
	details, err := b.carepo.ReservationsForDate(timeoutCtx, date)
	b.observeDB("get_reservations", startTime)
	if err != nil {
		b.log.Error("Failed to load reservations for report", "admin", userID, "error", err)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(b.t("error.internal"))
	}

	startTime = time.Now()
	reportBuffer, err := report.GenerateExcelReport(report.RowsFromDetails(details))
	b.metrics.ReportGeneration.Observe(time.Since(startTime).Seconds())
	if err != nil {
		if errors.Is(err, report.ErrNoReservations) {
			b.metrics.SentMessages.WithLabelValues("edit").Inc()
			return ctx.Edit(b.tWithData("admin.report.empty", map[string]interface{}{"date": dateStr}))
		}
		b.log.Error("Failed to generate report", "admin", userID, "error", err)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Edit(b.t("error.internal"))
	}

	reportFile := &telebot.Document{
		File:     telebot.FromReader(reportBuffer),
		FileName: fmt.Sprintf("reservations_%s.xlsx", dateStr),
		MIME:     "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Caption:  b.tWithData("admin.report.caption", map[string]interface{}{"date": dateStr}),
	}

	b.log.Info("Report generated", "admin", userID, "date", dateStr, "rows", len(details))
	b.metrics.SentMessages.WithLabelValues("document").Inc()
	return ctx.Send(reportFile)
}

// broadcastInitiateHandler starts the broadcast process.
func (b *Bot) broadcastInitiateHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	b.log.Info("Admin user initiated a broadcast", "user", userID)

	b.stateManager.Set(userID, UserState{WaitingFor: stateAwaitingBroadcast})

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.t("admin.broadcast.prompt"))
}

// handleBroadcastInput confirms the broadcast and starts the sending process.
func (b *Bot) handleBroadcastInput(ctx telebot.Context) error {
	adminID := ctx.Sender().ID
	message := ctx.Text()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	startTime := time.Now()
	userIDs, err := b.emrepo.LinkedTelegramIDs(timeoutCtx)
	b.observeDB("get_linked_ids", startTime)
	if err != nil {
		b.log.Error("Failed to get users for broadcast", "error", err)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(b.t("error.internal"))
	}

	// The admin only appears in the list once linked themselves, so the
	// receivers are counted, not assumed.
	receivers := broadcastReceivers(userIDs, adminID)

	// Run the broadcast in a goroutine so the bot doesn't freeze.
	go b.sendBroadcast(adminID, message, receivers)

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.tWithData("admin.broadcast.started", map[string]interface{}{"count": len(receivers)}))
}

// broadcastReceivers filters the initiating admin out of the linked ids.
func broadcastReceivers(userIDs []int64, adminID int64) []int64 {
	receivers := make([]int64, 0, len(userIDs))
	for _, id := range userIDs {
		if id != adminID {
			receivers = append(receivers, id)
		}
	}
	return receivers
}

// sendBroadcast is the background worker that sends the messages.
func (b *Bot) sendBroadcast(adminID int64, message string, receivers []int64) {
	b.log.Info("Starting broadcast", "from_admin", adminID, "user_count", len(receivers))

	successfulSends := 0
	failedSends := 0

	for _, userID := range receivers {
		if _, err := b.bot.Send(telebot.ChatID(userID), message); err != nil {
			// This can happen if a user has blocked the bot
			b.log.Warn("Failed to send broadcast message to user", "user", userID, "error", err)
			failedSends++
		} else {
			successfulSends++
		}

		// Wait a bit between messages to stay under Telegram's rate limits
		const telegramRateTimeout = 100 * time.Millisecond
		time.Sleep(telegramRateTimeout)
	}

	reportText := b.tWithData("admin.broadcast.finished", map[string]interface{}{
		"success": successfulSends,
		"failed":  failedSends,
	})
	if _, err := b.bot.Send(telebot.ChatID(adminID), reportText); err != nil {
		b.log.Warn("Failed to send result message to admin", "admin", adminID, "error", err)
	}
}

// splitInput splits a prompted multi-part input on the separator and trims
// each field.
func splitInput(text string) []string {
	raw := strings.Split(text, inputSeparator)
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		parts = append(parts, strings.TrimSpace(part))
	}
	return parts
}
