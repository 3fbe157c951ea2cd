package bot

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aryanahadi/canteen-bot/internal/cache"
	"github.com/aryanahadi/canteen-bot/internal/i18n"
	"github.com/aryanahadi/canteen-bot/internal/ledger"
	"github.com/aryanahadi/canteen-bot/internal/metrics"
	"github.com/aryanahadi/canteen-bot/internal/repository"
	"gopkg.in/telebot.v4"
)

// Bot contains the bot API instance and other information.
type Bot struct {
	bot          *telebot.Bot
	log          *slog.Logger
	emrepo       repository.EmployeeManager
	carepo       repository.CanteenManager
	ledger       *ledger.Ledger
	menus        *cache.MenuCache
	guard        *cache.FloodGuard
	metrics      *metrics.Metrics
	stateManager *StateManager
	localizer    *i18n.Localizer
	lang         string
}

// inline button groups, bound to callback handlers in registerRoutes.
var (
	// meal selection on the daily menu message.
	btnMealPick = telebot.InlineButton{Unique: "meal_pick"}

	// day selection for the admin reservation report.
	btnReportDay = telebot.InlineButton{Unique: "report_day"}
)

// NewBot creates a new bot with the given token.
func NewBot(
	log *slog.Logger,
	emrepo repository.EmployeeManager,
	carepo repository.CanteenManager,
	ldgr *ledger.Ledger,
	menus *cache.MenuCache,
	guard *cache.FloodGuard,
	metrics *metrics.Metrics,
	token string,
	lang string,
	poller time.Duration,
) (*Bot, error) {
	bot, err := telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: poller},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	log.Info("Authorized on account", "account", bot.Me.Username)

	localizer, err := i18n.NewLocalizer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize localizer: %w", err)
	}

	botInstance := &Bot{
		bot:          bot,
		log:          log,
		emrepo:       emrepo,
		carepo:       carepo,
		ledger:       ldgr,
		menus:        menus,
		guard:        guard,
		metrics:      metrics,
		stateManager: NewStateManager(),
		localizer:    localizer,
		lang:         lang,
	}

	botInstance.registerRoutes()

	return botInstance, nil
}

// Start launches the bot to listen for updates.
func (b *Bot) Start() {
	b.log.Info("Telegram bot is starting...")
	b.bot.Start()
}

// Stop gracefully stops the Telegram bot and logs the action.
func (b *Bot) Stop() {
	b.log.Info("Telegram bot is stopped...")
	b.bot.Stop()
}

// registerRoutes configures all routes (commands).
func (b *Bot) registerRoutes() {
	b.bot.Use(b.FloodMiddleware)

	// Public routes.
	b.bot.Handle("/start", b.startHandler)
	b.bot.Handle(telebot.OnContact, b.contactHandler)

	// Everything else requires a linked employee record.
	b.bot.Handle(telebot.OnText, b.routeTextHandler, b.AuthMiddleware)
	b.bot.Handle(&btnMealPick, b.mealPickHandler, b.AuthMiddleware)

	// Admin-only callbacks.
	b.bot.Handle(&btnReportDay, b.reportDayHandler, b.AuthMiddleware, b.AdminMiddleware)
}

// t is a shorthand method for getting translations in the configured language.
func (b *Bot) t(key string) string {
	return b.localizer.Get(b.lang, key)
}

// tWithData is a shorthand method for getting translations with placeholder data.
func (b *Bot) tWithData(key string, data map[string]interface{}) string {
	return b.localizer.GetWithData(b.lang, key, data)
}

// observeDB records the duration of one repository call under the given
// query type label.
func (b *Bot) observeDB(queryType string, start time.Time) {
	b.metrics.DBQueryDuration.WithLabelValues(queryType).Observe(time.Since(start).Seconds())
}
