// Package conversation is the chat screen: the transcript of one topic,
// the message input, subtopic shortcuts and quiz answering.
package conversation

import (
	"context"
	"errors"
	"iter"
	"strings"
	"time"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/tutorchat/internal/bank"
	"github.com/abhisek/tutorchat/internal/chat"
	"github.com/abhisek/tutorchat/internal/router"
	"github.com/abhisek/tutorchat/internal/screen"
	"github.com/abhisek/tutorchat/internal/typing"
	"github.com/abhisek/tutorchat/internal/ui/components"
	"github.com/abhisek/tutorchat/internal/ui/layout"
)

// Manager is the part of the chat manager the screen uses.
type Manager interface {
	SendMessage(ctx context.Context, text string) ([]chat.Event, error)
	ExploreSubtopic(ctx context.Context, subtopic string) ([]chat.Event, error)
	SaveAndReset(ctx context.Context) ([]chat.Event, error)
}

// entry is one transcript line as displayed. shown trails message.Content
// while the typing reveal runs.
type entry struct {
	message chat.Message
	shown   string
}

// reveal is the typing animation of one entry.
type reveal struct {
	index int
	next  func() (typing.Chunk, bool)
	stop  func()
}

// ConversationScreen implements screen.Screen for an open chat.
type ConversationScreen struct {
	mgr   Manager
	title string
	open  screen.Opener

	entries []entry
	pending string // user text echoed until the reply arrives
	queue   []int  // entries waiting for their reveal
	current *reveal
	gen     int

	input      components.TextInput
	subtopics  components.ButtonRow
	quizActive bool

	viewport viewport.Model
	follow   bool

	loading bool
	busy    bool
	left    bool
	errMsg  string
}

var _ screen.Screen = (*ConversationScreen)(nil)
var _ screen.KeyHintProvider = (*ConversationScreen)(nil)

// New creates a ConversationScreen titled title that starts with open.
func New(mgr Manager, title string, open screen.Opener) *ConversationScreen {
	input := components.NewTextInput("", "Ask a question, or type \"quiz\" or \"resources\"", 1000)
	return &ConversationScreen{
		mgr:      mgr,
		title:    title,
		open:     open,
		input:    input,
		viewport: viewport.New(viewport.WithWidth(80), viewport.WithHeight(10)),
		follow:   true,
		loading:  true,
	}
}

func (s *ConversationScreen) Init() tea.Cmd {
	return tea.Batch(s.openChat(), s.input.Init())
}

func (s *ConversationScreen) openChat() tea.Cmd {
	open := s.open
	return func() tea.Msg {
		events, err := open(context.Background())
		return openedMsg{Events: events, Err: err}
	}
}

func (s *ConversationScreen) Title() string {
	return s.title
}

func (s *ConversationScreen) KeyHints() []layout.KeyHint {
	if s.left {
		return []layout.KeyHint{{Key: "", Description: "Saving chat..."}}
	}
	hints := []layout.KeyHint{{Key: "Enter", Description: "Send"}}
	if s.quizActive {
		hints = append(hints, layout.KeyHint{Key: "1-4/A-D", Description: "Answer"})
	} else if len(s.subtopics.Labels) > 0 {
		hints = append(hints, layout.KeyHint{Key: "Tab", Description: "Subtopics"})
	}
	return append(hints,
		layout.KeyHint{Key: "PgUp/PgDn", Description: "Scroll"},
		layout.KeyHint{Key: "Esc", Description: "New chat"},
	)
}

// Busy reports whether a request is in flight.
func (s *ConversationScreen) Busy() bool { return s.busy || s.loading }

// Messages returns the transcript as received, regardless of the reveal.
func (s *ConversationScreen) Messages() []chat.Message {
	out := make([]chat.Message, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.message
	}
	return out
}

// Typing reports whether a reveal is running or queued.
func (s *ConversationScreen) Typing() bool {
	return s.current != nil || len(s.queue) > 0
}

func (s *ConversationScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case openedMsg:
		if s.left {
			return s, nil
		}
		s.loading = false
		if msg.Err != nil && len(msg.Events) == 0 {
			s.errMsg = "Could not open this chat"
		}
		return s, tea.Batch(s.apply(msg.Events), screen.Notice(msg.Err))

	case replyMsg:
		if s.left {
			return s, nil
		}
		s.busy = false
		s.pending = ""
		return s, tea.Batch(s.apply(msg.Events), screen.Notice(msg.Err))

	case savedMsg:
		err := msg.Err
		if errors.Is(err, chat.ErrNotLoggedIn) {
			err = nil
		}
		return s, tea.Sequence(
			screen.Broadcast(msg.Events),
			screen.Notice(err),
			func() tea.Msg { return router.PopScreenMsg{} },
		)

	case revealTickMsg:
		if msg.Gen != s.gen || s.current == nil {
			return s, nil
		}
		return s, s.step()

	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// apply folds manager events into the screen and returns the commands
// they call for: app-wide broadcasts and the next reveal.
func (s *ConversationScreen) apply(events []chat.Event) tea.Cmd {
	for _, e := range events {
		switch e.Kind {
		case chat.MessageAppended:
			en := entry{message: e.Message, shown: e.Message.Content}
			if e.Animate {
				en.shown = ""
				s.queue = append(s.queue, len(s.entries))
			}
			s.entries = append(s.entries, en)
			s.follow = true
		case chat.SubtopicsOffered:
			s.subtopics = components.NewButtonRow(e.Subtopics)
		case chat.QuizChanged:
			s.quizActive = e.QuizActive
			if s.quizActive {
				s.subtopics.Focused = false
				s.input.Focus()
			}
		}
	}
	return tea.Batch(screen.Broadcast(events), s.startReveal())
}

// startReveal begins the next queued reveal after the lead-in pause.
func (s *ConversationScreen) startReveal() tea.Cmd {
	if s.current != nil || len(s.queue) == 0 {
		return nil
	}
	idx := s.queue[0]
	s.queue = s.queue[1:]
	next, stop := iter.Pull(typing.Chunks(s.entries[idx].message.Content))
	s.current = &reveal{index: idx, next: next, stop: stop}
	s.gen++
	return s.tick(typing.LeadIn)
}

func (s *ConversationScreen) tick(d time.Duration) tea.Cmd {
	gen := s.gen
	return tea.Tick(d, func(time.Time) tea.Msg { return revealTickMsg{Gen: gen} })
}

// step shows the next chunk of the running reveal.
func (s *ConversationScreen) step() tea.Cmd {
	r := s.current
	c, ok := r.next()
	if !ok {
		s.entries[r.index].shown = s.entries[r.index].message.Content
		r.stop()
		s.current = nil
		return s.startReveal()
	}
	s.entries[r.index].shown = c.Markup
	s.follow = true
	return s.tick(c.Delay)
}

// finishReveals shows every message in full at once.
func (s *ConversationScreen) finishReveals() {
	if s.current != nil {
		s.current.stop()
		s.current = nil
	}
	s.queue = nil
	for i := range s.entries {
		s.entries[i].shown = s.entries[i].message.Content
	}
	s.gen++
}

func (s *ConversationScreen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	if s.left {
		return s, nil
	}

	key := msg.String()
	switch key {
	case "esc", "ctrl+n":
		return s, s.leave()
	case "pgup":
		s.viewport.PageUp()
		s.follow = false
		return s, nil
	case "pgdown":
		s.viewport.PageDown()
		s.follow = s.viewport.AtBottom()
		return s, nil
	}

	// Error state: only leaving is possible.
	if s.errMsg != "" {
		return s, nil
	}

	if s.subtopics.Focused {
		switch key {
		case "tab":
			s.subtopics.Focused = false
			return s, s.input.Focus()
		case "right", "l":
			s.subtopics.Next()
		case "left", "h":
			s.subtopics.Prev()
		case "enter":
			return s, s.explore()
		}
		return s, nil
	}

	switch key {
	case "tab":
		if len(s.subtopics.Labels) > 0 && !s.quizActive {
			s.subtopics.Focused = true
			s.input.Blur()
		}
		return s, nil
	case "enter":
		return s, s.send(s.input.Value())
	}

	if s.quizActive && s.input.Value() == "" {
		if answer, ok := quickPick(key); ok {
			return s, s.send(answer)
		}
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// quickPick maps 1-4 and A-D to an answer letter. Lowercase letters are
// left to the input so words starting with them can be typed.
func quickPick(key string) (string, bool) {
	for i, l := range bank.Labels {
		if key == l || key == string(rune('1'+i)) {
			return l, true
		}
	}
	return "", false
}

func (s *ConversationScreen) send(text string) tea.Cmd {
	text = strings.TrimSpace(text)
	if text == "" || s.Busy() {
		return nil
	}
	s.finishReveals()
	s.busy = true
	s.pending = text
	s.follow = true
	s.input.Reset()

	mgr := s.mgr
	return func() tea.Msg {
		events, err := mgr.SendMessage(context.Background(), text)
		return replyMsg{Events: events, Err: err}
	}
}

func (s *ConversationScreen) explore() tea.Cmd {
	subtopic, ok := s.subtopics.Current()
	if !ok || s.Busy() {
		return nil
	}
	s.finishReveals()
	s.busy = true
	s.follow = true

	mgr := s.mgr
	return func() tea.Msg {
		events, err := mgr.ExploreSubtopic(context.Background(), subtopic)
		return replyMsg{Events: events, Err: err}
	}
}

// leave saves the transcript, then pops back. Replies still in flight are
// dropped once the screen has left.
func (s *ConversationScreen) leave() tea.Cmd {
	s.left = true
	s.finishReveals()
	mgr := s.mgr
	return func() tea.Msg {
		events, err := mgr.SaveAndReset(context.Background())
		return savedMsg{Events: events, Err: err}
	}
}
