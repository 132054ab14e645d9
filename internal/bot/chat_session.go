package bot

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/raviprakash-14/scrapify/internal/wizard"
	"github.com/rs/zerolog/log"
)

const (
	msgCallback   = "callback"
	msgPhoto      = "photo"
	msgText       = "text"
	msgWizardDone = "wizard_done"
)

// SessionMessage represents a message to be processed by the session worker.
type SessionMessage struct {
	Type string
	Ctx  context.Context
	Done chan struct{} // Closed when processing is complete (for synchronous dispatch)

	// Message data (only one is set based on Type)
	Message       *tgbotapi.Message
	CallbackQuery *tgbotapi.CallbackQuery
	Outcome       *WizardOutcome
}

// WizardOutcome is the result of a long-running wizard call, delivered
// back to the worker once the call returns.
type WizardOutcome struct {
	View wizard.View
	Err  error
}

// MessageSender abstracts the ability to send Telegram messages.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// MessageHandler is the interface for processing session messages.
type MessageHandler interface {
	HandleSessionMessage(ctx context.Context, session *ChatSession, msg SessionMessage)
}

// ChatSession is one Telegram chat driving its own wizard.
//
// Threading model:
//   - Each session has a dedicated worker goroutine that processes messages sequentially
//   - Estimates and pickup confirmations run on a separate goroutine and report
//     back through the inbox, so the worker can answer "still working" meanwhile
//   - LastActive and Busy are read by the registry janitor from other goroutines
type ChatSession struct {
	chatID int64
	sender MessageSender
	wizard *wizard.Wizard

	// Worker channel for sequential message processing
	inbox   chan SessionMessage
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	handler MessageHandler

	inFlight   atomic.Bool
	lastActive atomic.Int64 // unix nanos
}

func newChatSession(chatID int64, sender MessageSender, wz *wizard.Wizard) *ChatSession {
	ctx, cancel := context.WithCancel(context.Background())
	s := &ChatSession{
		chatID: chatID,
		sender: sender,
		wizard: wz,
		inbox:  make(chan SessionMessage, 10),
		ctx:    ctx,
		cancel: cancel,
	}
	s.touch()
	return s
}

func (s *ChatSession) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// LastActive reports when the chat last sent anything.
func (s *ChatSession) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// Busy reports whether an estimate or confirmation is still running.
func (s *ChatSession) Busy() bool {
	if s.inFlight.Load() {
		return true
	}
	return s.wizard != nil && s.wizard.Busy()
}

// runAsync runs fn off the worker and feeds its outcome back into the
// inbox as a wizard_done message. Called from the worker only.
func (s *ChatSession) runAsync(fn func(ctx context.Context) (wizard.View, error)) {
	s.inFlight.Store(true)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		view, err := fn(s.ctx)
		s.Send(SessionMessage{
			Type:    msgWizardDone,
			Ctx:     s.ctx,
			Outcome: &WizardOutcome{View: view, Err: err},
		})
	}()
}

func (s *ChatSession) replyWithError(err error) tgbotapi.Message {
	log.Error().Stack().Err(err).Int64("chatId", s.chatID).Send()
	return s.reply(MsgUnexpectedErr, escapeMarkdown(err.Error()))
}

// sendTypingAction sends a "typing" chat action to show the user that the bot is processing.
// The typing indicator automatically expires after ~5 seconds in Telegram.
func (s *ChatSession) sendTypingAction() {
	action := tgbotapi.NewChatAction(s.chatID, tgbotapi.ChatTyping)
	// Use Request instead of Send because sendChatAction returns a boolean, not a Message
	_, err := s.sender.Request(action)
	if err != nil {
		log.Debug().Err(err).Int64("chatId", s.chatID).Msg("failed to send typing action")
	}
}

// startTypingLoop sends a typing action every 4 seconds until the context is cancelled.
func (s *ChatSession) startTypingLoop(ctx context.Context) {
	s.sendTypingAction()

	ticker := time.NewTicker(4 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sendTypingAction()
		}
	}
}

func (s *ChatSession) replyWithMessage(msg tgbotapi.MessageConfig) tgbotapi.Message {
	msg.ChatID = s.chatID
	sent, err := s.sender.Send(msg)
	if err != nil {
		log.Error().Stack().
			Interface("msg", msg).
			Err(fmt.Errorf("failed to send reply message: %w", err)).Send()
	} else {
		log.Debug().Int64("chatId", s.chatID).Int("messageId", sent.MessageID).Msg("sent message")
	}

	return sent
}

func (s *ChatSession) reply(text string, a ...any) tgbotapi.Message {
	return s.replyWithMessage(tgbotapi.MessageConfig{
		Text:      formatReplyText(text, a...),
		ParseMode: tgbotapi.ModeMarkdown,
	})
}

func (s *ChatSession) replyWithKeyboard(text string, markup tgbotapi.InlineKeyboardMarkup) tgbotapi.Message {
	return s.replyWithMessage(tgbotapi.MessageConfig{
		Text:      text,
		ParseMode: tgbotapi.ModeMarkdown,
		BaseChat:  tgbotapi.BaseChat{ReplyMarkup: markup},
	})
}

// editMessage replaces the text and inline keyboard of a message the bot
// sent earlier.
func (s *ChatSession) editMessage(messageID int, text string, markup tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(s.chatID, messageID, text, markup)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := s.sender.Request(edit); err != nil {
		log.Warn().Err(err).Int64("chatId", s.chatID).Int("messageId", messageID).Msg("failed to edit message")
	}
}

// --- Worker methods ---

// StartWorker starts the session's message processing worker goroutine.
// Must be called after setting the handler.
func (s *ChatSession) StartWorker() {
	s.wg.Add(1)
	go s.runWorker()
}

func (s *ChatSession) SetHandler(handler MessageHandler) {
	s.handler = handler
}

// runWorker is the main worker loop that processes messages sequentially.
func (s *ChatSession) runWorker() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			// Drain any remaining messages and signal completion
			for {
				select {
				case msg := <-s.inbox:
					if msg.Done != nil {
						close(msg.Done)
					}
				default:
					return
				}
			}
		case msg := <-s.inbox:
			s.processMessage(msg)
		}
	}
}

// processMessage handles a single message from the inbox.
func (s *ChatSession) processMessage(msg SessionMessage) {
	defer func() {
		// Recover from any panics to keep the worker running
		if r := recover(); r != nil {
			log.Error().
				Int64("chatId", s.chatID).
				Interface("panic", r).
				Msg("recovered from panic in session worker")
		}
		if msg.Done != nil {
			close(msg.Done)
		}
	}()

	if s.handler == nil {
		log.Error().Int64("chatId", s.chatID).Msg("session handler not set")
		return
	}
	if msg.Type != msgWizardDone {
		s.touch()
	}

	s.handler.HandleSessionMessage(msg.Ctx, s, msg)
}

// Send queues a message for processing by the worker.
// This is non-blocking - it returns immediately after queuing.
func (s *ChatSession) Send(msg SessionMessage) {
	if s.ctx.Err() != nil {
		if msg.Done != nil {
			close(msg.Done)
		}
		return
	}
	select {
	case s.inbox <- msg:
	case <-s.ctx.Done():
		if msg.Done != nil {
			close(msg.Done)
		}
	}
}

// SendSync queues a message and waits for it to be processed.
func (s *ChatSession) SendSync(msg SessionMessage) {
	msg.Done = make(chan struct{})
	s.Send(msg)
	<-msg.Done
}

// Stop stops the worker and waits for it and any running estimate to finish.
func (s *ChatSession) Stop() {
	s.cancel()
	s.wg.Wait()
}
