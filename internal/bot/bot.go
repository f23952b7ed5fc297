package bot

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"notify-relay/internal/config"
	"notify-relay/internal/repository"
)

// maxListChars keeps /list_users under Telegram's 4096 character limit.
const maxListChars = 4000

const (
	msgGreeting       = "Привет, %s! Ты добавлен в базу. Как только появится уведомление — я пришлю его."
	msgNoPermission   = "❌ У вас нет прав на эту команду."
	msgIDNotNumber    = "❌ user_id должен быть числом."
	msgUserDeleted    = "✅ Пользователь %d удалён."
	msgUserNotFound   = "⚠️ Пользователь %d не найден."
	msgUserQueued     = "🔔 Пользователь %d поставлен в очередь на уведомление."
	msgUserNotPending = "⚠️ Пользователь %d не найден или уже не ожидает уведомления."
	msgEmptyDB        = "📭 База данных пуста."
	msgListHeader     = "📋 Список пользователей:\n\n"
	msgUnknownCommand = "Команда не поддерживается. Загляни в /help."
	msgInternalError  = "⚠️ Что-то пошло не так. Попробуй ещё раз позже."
)

// messenger is the slice of the Telegram Bot API the bot relies on.
type messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
}

// Bot aggregates Telegram API with the user store.
type Bot struct {
	api    messenger
	users  *repository.UserRepository
	config *config.Config
	log    zerolog.Logger
}

func New(cfg *config.Config, users *repository.UserRepository, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Info().Str("account", api.Self.UserName).Msg("bot authorized")

	return newBot(api, cfg, users, log), nil
}

func newBot(api messenger, cfg *config.Config, users *repository.UserRepository, log zerolog.Logger) *Bot {
	return &Bot{
		api:    api,
		users:  users,
		config: cfg,
		log:    log,
	}
}

// HandleUpdate dispatches one inbound update. Handler errors are logged and
// answered with a generic failure so a single bad interaction never stops
// the bot.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil || !msg.IsCommand() {
		return
	}

	log := b.log.With().Int64("from", msg.From.ID).Str("command", msg.Command()).Logger()
	log.Info().Str("args", msg.CommandArguments()).Msg("command received")

	if err := b.handleCommand(ctx, msg); err != nil {
		log.Error().Err(err).Msg("handle command")
		if sendErr := b.sendText(msg.Chat.ID, msgInternalError); sendErr != nil {
			log.Error().Err(sendErr).Msg("send failure reply")
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "delete_user":
		return b.handleDeleteUser(ctx, msg)
	case "list_users":
		return b.handleListUsers(ctx, msg)
	case "notify":
		return b.handleNotify(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	default:
		return b.sendText(msg.Chat.ID, msgUnknownCommand)
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	from := msg.From
	name := from.UserName
	if name == "" {
		name = from.FirstName
	}
	if err := b.users.Upsert(ctx, from.ID, name); err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf(msgGreeting, escape(from.FirstName)))
}

func (b *Bot) handleDeleteUser(ctx context.Context, msg *tgbotapi.Message) error {
	if !b.config.IsAdmin(msg.From.ID) {
		return b.sendText(msg.Chat.ID, msgNoPermission)
	}

	target, reply, ok := parseTargetID(msg)
	if !ok {
		return b.sendText(msg.Chat.ID, reply)
	}

	removed, err := b.users.Delete(ctx, target)
	if err != nil {
		return err
	}
	if !removed {
		return b.sendText(msg.Chat.ID, fmt.Sprintf(msgUserNotFound, target))
	}
	b.log.Info().Int64("user_id", target).Msg("user deleted")
	return b.sendText(msg.Chat.ID, fmt.Sprintf(msgUserDeleted, target))
}

// handleListUsers ignores non-admins without replying.
func (b *Bot) handleListUsers(ctx context.Context, msg *tgbotapi.Message) error {
	if !b.config.IsAdmin(msg.From.ID) {
		return nil
	}

	users, err := b.users.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return b.sendText(msg.Chat.ID, msgEmptyDB)
	}

	var sb strings.Builder
	sb.WriteString(msgListHeader)
	for _, u := range users {
		fmt.Fprintf(&sb, "ID: %d | @%s | %s\n", u.UserID, u.DisplayName(), u.NotificationStatus.Label())
	}
	return b.sendPlain(msg.Chat.ID, truncate(sb.String(), maxListChars))
}

func (b *Bot) handleNotify(ctx context.Context, msg *tgbotapi.Message) error {
	if !b.config.IsAdmin(msg.From.ID) {
		return b.sendText(msg.Chat.ID, msgNoPermission)
	}

	target, reply, ok := parseTargetID(msg)
	if !ok {
		return b.sendText(msg.Chat.ID, reply)
	}

	queued, err := b.users.MarkReady(ctx, target)
	if err != nil {
		return err
	}
	if !queued {
		return b.sendText(msg.Chat.ID, fmt.Sprintf(msgUserNotPending, target))
	}
	b.log.Info().Int64("user_id", target).Msg("notification queued")
	return b.sendText(msg.Chat.ID, fmt.Sprintf(msgUserQueued, target))
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	var sb strings.Builder
	sb.WriteString("ℹ️ <b>Команды</b>\n")
	sb.WriteString("• /start — зарегистрироваться и получать уведомления\n")
	sb.WriteString("• /help — эта подсказка")
	if b.config.IsAdmin(msg.From.ID) {
		sb.WriteString("\n\n<b>Администратор</b>\n")
		sb.WriteString("• /list_users — список пользователей\n")
		sb.WriteString("• /delete_user &lt;user_id&gt; — удалить пользователя\n")
		sb.WriteString("• /notify &lt;user_id&gt; — поставить уведомление в очередь")
	}
	return b.sendText(msg.Chat.ID, sb.String())
}

// parseTargetID reads the single numeric argument of an admin command. When
// ok is false, reply holds the validation message for the caller.
func parseTargetID(msg *tgbotapi.Message) (id int64, reply string, ok bool) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 1 {
		return 0, fmt.Sprintf("Использование: /%s &lt;user_id&gt;", msg.Command()), false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, msgIDNotNumber, false
	}
	return id, "", true
}

// SendText delivers a plain text message. It is the Sender used by the sweeper.
func (b *Bot) SendText(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.sendPlain(chatID, text)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendPlain(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.api.Send(msg)
	return err
}

// truncate cuts s to at most limit runes without splitting a character.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

func escape(s string) string {
	return html.EscapeString(s)
}
