// Package ui is the terminal front end of the chat client.
package ui

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"advisor-chat/internal/chat"
	"advisor-chat/internal/domain"
)

// Controller is the subset of *chat.Controller the view drives.
type Controller interface {
	Snapshot() chat.Session
	SwitchCategory(tab domain.Category)
	Submit(ctx context.Context, text string) error
	QuickQuestion(ctx context.Context, i int) error
}

type View struct {
	app    *tview.Application
	logger *slog.Logger

	tabs       *tview.TextView
	transcript *tview.TextView
	questions  *tview.List
	input      *tview.InputField
	root       *tview.Flex

	ctx  context.Context
	ctrl Controller

	mu           sync.Mutex
	latest       chat.Session
	listCategory domain.Category
	running      bool
}

func New(logger *slog.Logger) *View {
	if logger == nil {
		logger = slog.Default()
	}
	v := &View{
		app:    tview.NewApplication(),
		logger: logger,
		ctx:    context.Background(),
		latest: chat.NewSession(),
	}
	v.app.EnablePaste(true)
	v.app.EnableMouse(true)

	v.tabs = tview.NewTextView().
		SetDynamicColors(true).
		SetRegions(true)

	v.transcript = tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true)
	v.transcript.SetScrollable(true)
	v.transcript.SetBorder(true)

	v.questions = tview.NewList().ShowSecondaryText(false)
	v.questions.SetTitle("Quick Questions").SetBorder(true)

	v.input = tview.NewInputField()
	v.input.SetTitle("Question").SetBorder(true)
	v.input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			v.submitInput()
		}
	})

	v.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(v.tabs, 1, 0, false).
		AddItem(v.transcript, 0, 1, false).
		AddItem(v.questions, 5, 0, false).
		AddItem(v.input, 3, 0, true)
	v.root.SetInputCapture(v.handleKey)

	v.apply(v.latest)
	return v
}

// Update is the chat.Controller change hook. It runs under the controller
// lock, so it only records the session and schedules a redraw.
func (v *View) Update(s chat.Session) {
	v.mu.Lock()
	v.latest = s
	running := v.running
	v.mu.Unlock()

	if running {
		go v.app.QueueUpdateDraw(v.refresh)
	}
}

// Run binds the view to ctrl and blocks until the application exits or ctx
// is cancelled.
func (v *View) Run(ctx context.Context, ctrl Controller) error {
	if ctrl == nil {
		return errors.New("ui: controller must not be nil")
	}
	v.ctx = ctx
	v.ctrl = ctrl

	v.mu.Lock()
	v.latest = ctrl.Snapshot()
	v.running = true
	v.mu.Unlock()
	v.refresh()

	stop := context.AfterFunc(ctx, v.app.Stop)
	defer stop()

	if err := v.app.SetRoot(v.root, true).SetFocus(v.input).Run(); err != nil {
		return err
	}
	return nil
}

func (v *View) refresh() {
	v.mu.Lock()
	s := v.latest
	v.mu.Unlock()
	v.apply(s)
}

func (v *View) apply(s chat.Session) {
	v.tabs.SetText(RenderTabs(s.Category))
	v.transcript.SetTitle(s.Category.Title())
	v.transcript.SetText(RenderTranscript(s))
	v.transcript.ScrollToEnd()
	v.input.SetPlaceholder(Placeholder(s.Category))

	if v.listCategory != s.Category || v.questions.GetItemCount() == 0 {
		v.listCategory = s.Category
		v.questions.Clear()
		for i, q := range chat.QuickQuestions(s.Category) {
			v.questions.AddItem(q, "", rune('1'+i), func() { v.askQuickQuestion(i) })
		}
	}
}

func (v *View) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if v.ctrl == nil {
		return event
	}
	switch event.Key() {
	case tcell.KeyF1:
		v.ctrl.SwitchCategory(domain.CategoryFinance)
		return nil
	case tcell.KeyF2:
		v.ctrl.SwitchCategory(domain.CategoryLegal)
		return nil
	case tcell.KeyTab:
		if v.input.HasFocus() {
			v.app.SetFocus(v.questions)
		} else {
			v.app.SetFocus(v.input)
		}
		return nil
	}
	return event
}

func (v *View) submitInput() {
	if v.ctrl == nil {
		return
	}
	err := v.ctrl.Submit(v.ctx, v.input.GetText())
	if errors.Is(err, chat.ErrBusy) {
		// keep the draft so it can be sent once the reply arrives
		return
	}
	if err != nil {
		v.logger.Error("submit failed", "err", err)
	}
	v.input.SetText("")
}

func (v *View) askQuickQuestion(i int) {
	if v.ctrl == nil {
		return
	}
	if err := v.ctrl.QuickQuestion(v.ctx, i); err != nil && !errors.Is(err, chat.ErrBusy) {
		v.logger.Error("quick question failed", "err", err)
	}
	v.app.SetFocus(v.input)
}
