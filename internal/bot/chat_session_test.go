package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/raviprakash-14/scrapify/internal/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handlerFunc func(ctx context.Context, session *ChatSession, msg SessionMessage)

func (f handlerFunc) HandleSessionMessage(ctx context.Context, session *ChatSession, msg SessionMessage) {
	f(ctx, session, msg)
}

// describe turns a session message into a short label for ordering checks.
func describe(msg SessionMessage) string {
	switch msg.Type {
	case msgText:
		return "text:" + msg.Message.Text
	case msgPhoto:
		fileID, _, _ := imageFileID(msg.Message)
		return "photo:" + fileID
	case msgCallback:
		return "callback:" + msg.CallbackQuery.Data
	case msgWizardDone:
		return "done:" + string(msg.Outcome.View.Step)
	}
	return "unknown"
}

// recorder collects the labels of handled messages.
type recorder struct {
	mu     sync.Mutex
	labels []string
}

func (r *recorder) add(msg SessionMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labels = append(r.labels, describe(msg))
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.labels...)
}

func startSession(t *testing.T, chatID int64, h MessageHandler) *ChatSession {
	t.Helper()
	s := newChatSession(chatID, nil, nil)
	s.SetHandler(h)
	s.StartWorker()
	return s
}

func textMsg(text string) SessionMessage {
	return SessionMessage{Type: msgText, Ctx: context.Background(), Message: &tgbotapi.Message{Text: text}}
}

func photoMsg(fileID string) SessionMessage {
	return SessionMessage{Type: msgPhoto, Ctx: context.Background(), Message: &tgbotapi.Message{
		Photo: []tgbotapi.PhotoSize{{FileID: fileID, Width: 10, Height: 10}},
	}}
}

func callbackMsg(data string) SessionMessage {
	return SessionMessage{Type: msgCallback, Ctx: context.Background(), CallbackQuery: &tgbotapi.CallbackQuery{Data: data}}
}

func doneMsg(step wizard.Step) SessionMessage {
	return SessionMessage{Type: msgWizardDone, Ctx: context.Background(), Outcome: &WizardOutcome{View: wizard.View{Step: step}}}
}

func TestChatSession_HandlesMessagesInArrivalOrder(t *testing.T) {
	rec := &recorder{}
	s := startSession(t, 1, handlerFunc(func(ctx context.Context, _ *ChatSession, msg SessionMessage) {
		rec.add(msg)
	}))
	defer s.Stop()

	s.Send(photoMsg("photo-1"))
	s.Send(textMsg("old laptop"))
	s.Send(doneMsg(wizard.StepResult))
	s.SendSync(callbackMsg(cbSchedule))

	assert.Equal(t, []string{
		"photo:photo-1",
		"text:old laptop",
		"done:result",
		"callback:" + cbSchedule,
	}, rec.seen())
}

func TestChatSession_SurvivesHandlerPanic(t *testing.T) {
	rec := &recorder{}
	s := startSession(t, 1, handlerFunc(func(ctx context.Context, _ *ChatSession, msg SessionMessage) {
		rec.add(msg)
		if msg.Type == msgCallback {
			// Malformed updates can carry a nil message.
			_ = msg.Message.Text
		}
	}))
	defer s.Stop()

	s.SendSync(callbackMsg("pickup:slot:"))
	s.SendSync(textMsg("/estimate"))

	assert.Equal(t, []string{"callback:pickup:slot:", "text:/estimate"}, rec.seen())
}

func TestChatSession_SlowChatDoesNotBlockOthers(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	slow := startSession(t, 1, handlerFunc(func(ctx context.Context, _ *ChatSession, msg SessionMessage) {
		close(entered)
		<-release
	}))
	defer slow.Stop()

	rec := &recorder{}
	fast := startSession(t, 2, handlerFunc(func(ctx context.Context, _ *ChatSession, msg SessionMessage) {
		rec.add(msg)
	}))
	defer fast.Stop()

	go slow.SendSync(photoMsg("big-photo"))
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("slow chat never started handling")
	}

	fast.SendSync(textMsg("copper wire"))
	assert.Equal(t, []string{"text:copper wire"}, rec.seen())

	close(release)
}

func TestChatSession_StopReleasesQueuedCallers(t *testing.T) {
	entered := make(chan struct{})
	var once sync.Once
	s := startSession(t, 1, handlerFunc(func(ctx context.Context, session *ChatSession, msg SessionMessage) {
		once.Do(func() { close(entered) })
		<-session.ctx.Done()
	}))

	s.Send(textMsg("first"))
	<-entered

	var queued []chan struct{}
	for _, text := range []string{"second", "third"} {
		msg := textMsg(text)
		msg.Done = make(chan struct{})
		s.inbox <- msg
		queued = append(queued, msg.Done)
	}

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop() did not return")
	}
	for _, done := range queued {
		select {
		case <-done:
		default:
			t.Fatal("queued caller was not released")
		}
	}
}

func TestChatSession_SendSyncAfterStopReturns(t *testing.T) {
	s := startSession(t, 1, handlerFunc(func(context.Context, *ChatSession, SessionMessage) {}))
	s.Stop()

	returned := make(chan struct{})
	go func() {
		s.SendSync(textMsg("late"))
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("SendSync blocked on a stopped session")
	}
}

func TestChatSession_OnlyUserInputCountsAsActivity(t *testing.T) {
	s := startSession(t, 1, handlerFunc(func(context.Context, *ChatSession, SessionMessage) {}))
	defer s.Stop()
	idle := time.Now().Add(-time.Hour)
	s.lastActive.Store(idle.UnixNano())

	s.SendSync(doneMsg(wizard.StepResult))
	assert.Equal(t, idle.UnixNano(), s.LastActive().UnixNano())

	s.SendSync(callbackMsg(cbNewEstimate))
	assert.WithinDuration(t, time.Now(), s.LastActive(), time.Second)
}

func TestChatSession_RunAsyncReportsThroughInbox(t *testing.T) {
	outcomes := make(chan *WizardOutcome, 1)
	s := startSession(t, 7, handlerFunc(func(ctx context.Context, session *ChatSession, msg SessionMessage) {
		if msg.Type == msgWizardDone {
			session.inFlight.Store(false)
			outcomes <- msg.Outcome
		}
	}))
	defer s.Stop()

	release := make(chan struct{})
	s.runAsync(func(ctx context.Context) (wizard.View, error) {
		<-release
		return wizard.View{Step: wizard.StepResult}, nil
	})
	assert.True(t, s.Busy(), "session is busy while the call runs")

	close(release)
	select {
	case o := <-outcomes:
		assert.Equal(t, wizard.StepResult, o.View.Step)
		assert.NoError(t, o.Err)
	case <-time.After(time.Second):
		t.Fatal("outcome was not delivered")
	}
	assert.False(t, s.Busy())
}

func TestChatSession_StopCancelsRunningCall(t *testing.T) {
	s := startSession(t, 7, handlerFunc(func(context.Context, *ChatSession, SessionMessage) {}))

	started := make(chan struct{})
	var callErr error
	s.runAsync(func(ctx context.Context) (wizard.View, error) {
		close(started)
		<-ctx.Done()
		callErr = ctx.Err()
		return wizard.View{}, callErr
	})
	<-started

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop() did not wait for the running call to exit")
	}
	require.Error(t, callErr)
	assert.True(t, errors.Is(callErr, context.Canceled))
}
