package bot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/raviprakash-14/scrapify/internal/catalog"
	"github.com/raviprakash-14/scrapify/internal/pickup"
	"github.com/raviprakash-14/scrapify/internal/session"
	"github.com/raviprakash-14/scrapify/internal/wizard"
	"github.com/rs/zerolog/log"
)

// BotAPI defines the interface for Telegram bot API operations.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

type ChatRegistry = session.Registry[int64, *ChatSession]

// Bot routes Telegram updates to one wizard per chat.
type Bot struct {
	tg       BotAPI
	sessions *ChatRegistry
	download func(fileID string) ([]byte, error)
}

// NewBot creates a Bot. newWizard is called once per chat.
func NewBot(tg BotAPI, newWizard func() *wizard.Wizard) *Bot {
	b := &Bot{tg: tg}
	b.download = func(fileID string) ([]byte, error) {
		return downloadFileID(tg.GetFileDirectURL, fileID)
	}
	b.sessions = session.NewRegistry("chats", func(chatID int64) *ChatSession {
		s := newChatSession(chatID, tg, newWizard())
		s.SetHandler(b)
		s.StartWorker()
		return s
	})
	b.sessions.OnEvict(func(_ int64, s *ChatSession) {
		s.Stop()
	})
	return b
}

// Sessions exposes the chat registry so its janitor can be run.
func (b *Bot) Sessions() *ChatRegistry {
	return b.sessions
}

// Shutdown stops all session workers.
func (b *Bot) Shutdown() {
	b.sessions.Close()
}

// HandleUpdate is the main message router.
// It dispatches messages to the appropriate session worker for sequential processing.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	b.dispatchUpdate(ctx, update, false)
}

// handleUpdateSync is like HandleUpdate but waits for message processing to complete.
func (b *Bot) handleUpdateSync(ctx context.Context, update tgbotapi.Update) {
	b.dispatchUpdate(ctx, update, true)
}

func (b *Bot) dispatchUpdate(ctx context.Context, update tgbotapi.Update, sync bool) {
	var chatID int64
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		chatID = update.CallbackQuery.From.ID
	case update.Message != nil && update.Message.From != nil:
		chatID = update.Message.From.ID
	default:
		return
	}

	s := b.sessions.Get(chatID)
	send := func(msg SessionMessage) {
		if sync {
			s.SendSync(msg)
		} else {
			s.Send(msg)
		}
	}

	if update.CallbackQuery != nil {
		send(SessionMessage{Type: msgCallback, Ctx: ctx, CallbackQuery: update.CallbackQuery})
		return
	}

	msg := update.Message
	log.Debug().Int64("chatId", chatID).Str("text", msg.Text).Str("caption", msg.Caption).Msg("got message")
	if _, _, ok := imageFileID(msg); ok {
		send(SessionMessage{Type: msgPhoto, Ctx: ctx, Message: msg})
	} else {
		send(SessionMessage{Type: msgText, Ctx: ctx, Message: msg})
	}
}

// HandleSessionMessage implements MessageHandler. It runs on the chat's
// worker goroutine.
func (b *Bot) HandleSessionMessage(ctx context.Context, s *ChatSession, msg SessionMessage) {
	switch msg.Type {
	case msgCallback:
		b.handleCallbackQuery(s, msg.CallbackQuery)
	case msgPhoto:
		b.handlePhotoMessage(s, msg.Message)
	case msgText:
		b.handleTextMessage(s, msg.Message)
	case msgWizardDone:
		b.handleWizardDone(s, msg.Outcome)
	}
}

func (b *Bot) handlePhotoMessage(s *ChatSession, message *tgbotapi.Message) {
	if s.Busy() {
		s.reply(MsgStillWorking)
		return
	}
	if s.wizard.Step() != wizard.StepForm {
		s.reply(MsgUseButtons)
		return
	}

	fileID, mimeType, _ := imageFileID(message)
	data, err := b.download(fileID)
	if err != nil {
		log.Warn().Err(err).Int64("chatId", s.chatID).Msg("photo download failed")
		s.reply(MsgPhotoDownloadFailed)
		return
	}

	view, err := s.wizard.SetPhotoData(data, mimeType)
	if err != nil {
		b.replyWizardError(s, err)
		return
	}
	if caption := strings.TrimSpace(message.Caption); caption != "" {
		if view, err = s.wizard.SetDescription(caption); err != nil {
			b.replyWizardError(s, err)
			return
		}
	}
	b.submitOrPrompt(s, view)
}

func (b *Bot) handleTextMessage(s *ChatSession, message *tgbotapi.Message) {
	text := strings.TrimSpace(message.Text)
	if strings.HasPrefix(text, "/") {
		b.handleCommand(s, text)
		return
	}
	if text == "" {
		return
	}
	if s.Busy() {
		s.reply(MsgStillWorking)
		return
	}

	view, err := s.wizard.SetDescription(text)
	if err != nil {
		b.replyWizardError(s, err)
		return
	}
	b.submitOrPrompt(s, view)
}

// submitOrPrompt submits once both inputs are present and otherwise asks
// for whichever is missing.
func (b *Bot) submitOrPrompt(s *ChatSession, view wizard.View) {
	switch {
	case !view.HasPhoto:
		s.reply(MsgSendPhoto)
	case strings.TrimSpace(view.Description) == "":
		s.reply(MsgSendDescription)
	default:
		b.startEstimate(s)
	}
}

func (b *Bot) startEstimate(s *ChatSession) {
	s.reply(MsgEstimating)
	typingCtx, stopTyping := context.WithCancel(s.ctx)
	go s.startTypingLoop(typingCtx)
	s.runAsync(func(ctx context.Context) (wizard.View, error) {
		defer stopTyping()
		return s.wizard.Submit(ctx)
	})
}

func (b *Bot) startConfirm(s *ChatSession) {
	s.reply(MsgScheduling)
	s.runAsync(func(ctx context.Context) (wizard.View, error) {
		return s.wizard.ConfirmPickup(ctx)
	})
}

func (b *Bot) handleWizardDone(s *ChatSession, outcome *WizardOutcome) {
	s.inFlight.Store(false)
	if outcome.Err != nil {
		b.replyWizardError(s, outcome.Err)
		return
	}
	b.renderView(s, outcome.View)
}

// renderView sends the message for the wizard's current step.
func (b *Bot) renderView(s *ChatSession, view wizard.View) {
	switch view.Step {
	case wizard.StepForm:
		s.reply(MsgSendPhotoAndDescription)
	case wizard.StepLoading:
		s.reply(MsgStillWorking)
	case wizard.StepResult:
		if view.Result != nil {
			s.replyWithKeyboard(resultText(view.Result), resultKeyboard())
		}
	case wizard.StepSchedule:
		s.replyWithKeyboard(scheduleText(view), scheduleKeyboard(view))
	case wizard.StepSuccess:
		s.replyWithKeyboard(successText(view), successKeyboard())
	}
}

func (b *Bot) replyWizardError(s *ChatSession, err error) {
	if notice, ok := wizard.AsNotice(err); ok {
		if notice.Err != nil {
			log.Debug().Err(notice.Err).Int64("chatId", s.chatID).Str("kind", string(notice.Kind)).Msg("wizard notice")
		}
		s.reply(noticeText(notice))
		return
	}
	switch {
	case errors.Is(err, wizard.ErrBusy):
		s.reply(MsgStillWorking)
	case errors.Is(err, wizard.ErrWrongStep):
		s.reply(MsgUseButtons)
	default:
		s.replyWithError(err)
	}
}

// resetWizard discards the current estimate and reports whether it could.
func (b *Bot) resetWizard(s *ChatSession) bool {
	if s.Busy() {
		s.reply(MsgStillWorking)
		return false
	}
	if _, err := s.wizard.Reset(); err != nil {
		b.replyWizardError(s, err)
		return false
	}
	return true
}

func (b *Bot) handleCommand(s *ChatSession, text string) {
	command, _ := parseCommand(text)
	switch command {
	case "/start":
		if b.resetWizard(s) {
			s.reply(MsgStart)
		}
	case "/estimate":
		if b.resetWizard(s) {
			s.reply(MsgSendPhotoAndDescription)
		}
	case "/cancel":
		if b.resetWizard(s) {
			s.reply(MsgOk)
		}
	case "/dashboard":
		s.reply(dashboardText(catalog.DashboardData()))
	case "/rewards":
		rewards, err := catalog.RewardsCatalog()
		if err != nil {
			s.replyWithError(err)
			return
		}
		s.reply(rewardsText(rewards))
	default:
		s.reply(MsgHelp)
	}
}

// handleCallbackQuery handles inline keyboard button presses.
func (b *Bot) handleCallbackQuery(s *ChatSession, query *tgbotapi.CallbackQuery) {
	// Answer the callback to remove the loading state
	if _, err := b.tg.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		log.Debug().Err(err).Msg("failed to answer callback")
	}

	if s.Busy() {
		s.reply(MsgStillWorking)
		return
	}

	switch query.Data {
	case cbSchedule:
		view, err := s.wizard.ProceedToSchedule()
		if err != nil {
			b.replyWizardError(s, err)
			return
		}
		b.renderView(s, view)
	case cbNewEstimate, cbScheduleAgain:
		if b.resetWizard(s) {
			s.reply(MsgSendPhotoAndDescription)
		}
	case cbPickupBack:
		view, err := s.wizard.BackToResult()
		if err != nil {
			b.replyWizardError(s, err)
			return
		}
		b.renderView(s, view)
	case cbPickupConfirm:
		if s.wizard.Step() != wizard.StepSchedule {
			s.reply(MsgUseButtons)
			return
		}
		b.startConfirm(s)
	default:
		b.handlePickupSelection(s, query)
	}
}

// handlePickupSelection applies a date or slot button and redraws the
// schedule message in place.
func (b *Bot) handlePickupSelection(s *ChatSession, query *tgbotapi.CallbackQuery) {
	kind, value, ok := parsePickupCallback(query.Data)
	if !ok {
		log.Warn().Str("data", query.Data).Msg("unknown callback data")
		return
	}

	var (
		view wizard.View
		err  error
	)
	switch kind {
	case "date":
		date, parseErr := pickup.ParseDate(value)
		if parseErr != nil {
			log.Warn().Err(parseErr).Str("data", query.Data).Msg("bad date in callback")
			return
		}
		view, err = s.wizard.SelectDate(date)
	case "slot":
		view, err = s.wizard.SelectTimeSlot(pickup.TimeSlot(value))
	default:
		log.Warn().Str("data", query.Data).Msg("unknown pickup callback")
		return
	}
	if err != nil {
		b.replyWizardError(s, err)
		return
	}

	if query.Message != nil {
		s.editMessage(query.Message.MessageID, scheduleText(view), scheduleKeyboard(view))
	} else {
		b.renderView(s, view)
	}
}
