package bot

import (
	"gopkg.in/telebot.v4"
)

// buildContactMenu creates the keyboard shown to unlinked users, with a
// single button requesting their own contact.
func (b *Bot) buildContactMenu() *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{ResizeKeyboard: true}
	btnContact := menu.Contact(b.t("contact.button"))
	menu.Reply(menu.Row(btnContact))
	return menu
}

// buildMainMenu creates the menu for linked employees with translated text.
func (b *Bot) buildMainMenu(isAdmin bool) *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{ResizeKeyboard: true}

	btnMenu := menu.Text(b.t("menu.tomorrow"))
	btnMyReservation := menu.Text(b.t("menu.my_reservation"))
	btnCancel := menu.Text(b.t("menu.cancel_reservation"))

	rows := []telebot.Row{
		menu.Row(btnMenu),
		menu.Row(btnMyReservation, btnCancel),
	}

	if isAdmin {
		btnAdmin := menu.Text(b.t("menu.admin_panel"))
		rows = append(rows, menu.Row(btnAdmin))
	}

	menu.Reply(rows...)

	return menu
}

// buildAdminMenu creates the admin menu with translated text.
func (b *Bot) buildAdminMenu() *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{ResizeKeyboard: true}

	btnSetMenu := menu.Text(b.t("admin.menu.set"))
	btnClose := menu.Text(b.t("admin.menu.close_day"))
	btnReopen := menu.Text(b.t("admin.menu.reopen_day"))
	btnHours := menu.Text(b.t("admin.menu.hours"))
	btnAddEmployee := menu.Text(b.t("admin.menu.add_employee"))
	btnReport := menu.Text(b.t("admin.menu.report"))
	btnBroadcast := menu.Text(b.t("admin.menu.broadcast"))
	btnBack := menu.Text(b.t("menu.back"))

	menu.Reply(
		menu.Row(btnSetMenu),
		menu.Row(btnClose, btnReopen),
		menu.Row(btnHours, btnAddEmployee),
		menu.Row(btnReport, btnBroadcast),
		menu.Row(btnBack),
	)

	return menu
}
