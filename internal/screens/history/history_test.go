package history

import (
	"context"
	"errors"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tutorchat/internal/api"
	"github.com/abhisek/tutorchat/internal/chat"
	"github.com/abhisek/tutorchat/internal/router"
	"github.com/abhisek/tutorchat/internal/screen"
)

type fakeManager struct {
	history []api.SavedChat
	err     error
	loaded  []string
}

func (f *fakeManager) RefreshHistory(context.Context) ([]chat.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []chat.Event{{Kind: chat.HistoryLoaded, History: f.history}}, nil
}

func (f *fakeManager) LoadSavedChat(_ context.Context, rec api.SavedChat) ([]chat.Event, error) {
	f.loaded = append(f.loaded, rec.ID)
	return nil, nil
}

type chatScreen struct {
	title string
	open  screen.Opener
}

func (s *chatScreen) Init() tea.Cmd                           { return nil }
func (s *chatScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *chatScreen) View(int, int) string                    { return s.title }
func (s *chatScreen) Title() string                           { return s.title }

type fakeNav struct{}

func (fakeNav) Login() screen.Screen   { return nil }
func (fakeNav) Topics() screen.Screen  { return nil }
func (fakeNav) History() screen.Screen { return nil }
func (fakeNav) Chat(title string, open screen.Opener) screen.Screen {
	return &chatScreen{title: title, open: open}
}

func records() []api.SavedChat {
	return []api.SavedChat{
		{ID: "b", Topic: "nlp", Preview: "Tokens and embeddings ...", Timestamp: "2024-03-02 10:00:00",
			Messages: []api.WireMessage{{Content: "hi", Sender: "ai"}}},
		{ID: "a", Topic: "ethics", Preview: "Bias in AI ...", Timestamp: "2024-03-01 09:30:00"},
	}
}

func loaded(t *testing.T, mgr *fakeManager) *HistoryScreen {
	t.Helper()
	s := New(mgr, fakeNav{})
	s.Update(s.Init()())
	return s
}

func press(s *HistoryScreen, code rune) tea.Cmd {
	_, cmd := s.Update(tea.KeyPressMsg{Code: code})
	return cmd
}

func TestLoadingAndEmpty(t *testing.T) {
	s := New(&fakeManager{}, fakeNav{})
	assert.Contains(t, s.View(80, 20), "Loading history")

	s.Update(s.Init()())
	assert.Contains(t, s.View(80, 20), "No chat history yet")
}

func TestListsChats(t *testing.T) {
	s := loaded(t, &fakeManager{history: records()})
	require.Len(t, s.Chats(), 2)

	view := s.View(120, 20)
	assert.Contains(t, view, "Natural Language Processing")
	assert.Contains(t, view, "AI Ethics")
	assert.Contains(t, view, "Mar 02, 2024 10:00")
	assert.NotContains(t, view, "Tokens and embeddings")

	press(s, tea.KeySpace)
	assert.Contains(t, s.View(120, 20), "Tokens and embeddings")
}

func TestOpenPushesChat(t *testing.T) {
	mgr := &fakeManager{history: records()}
	s := loaded(t, mgr)

	press(s, tea.KeyDown)
	cmd := press(s, tea.KeyEnter)
	require.NotNil(t, cmd)

	push, ok := cmd().(router.PushScreenMsg)
	require.True(t, ok)
	c := push.Screen.(*chatScreen)
	assert.Equal(t, "AI Ethics", c.title)

	_, err := c.open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, mgr.loaded)
}

func TestNavigationBounds(t *testing.T) {
	s := loaded(t, &fakeManager{history: records()})
	press(s, tea.KeyUp)
	assert.Equal(t, 0, s.selected)
	press(s, tea.KeyDown)
	press(s, tea.KeyDown)
	assert.Equal(t, 1, s.selected)
}

func TestLoadFailure(t *testing.T) {
	mgr := &fakeManager{err: errors.New("down")}
	s := New(mgr, fakeNav{})
	_, cmd := s.Update(s.Init()())
	require.NotNil(t, cmd)
	assert.IsType(t, screen.NoticeMsg{}, cmd())
	assert.Contains(t, s.View(80, 20), "Failed to load chat history")
}

func TestEscPops(t *testing.T) {
	s := New(&fakeManager{}, fakeNav{})
	cmd := press(s, tea.KeyEscape)
	require.NotNil(t, cmd)
	assert.Equal(t, router.PopScreenMsg{}, cmd())
}

func TestEnterOnEmptyListDoesNothing(t *testing.T) {
	s := loaded(t, &fakeManager{})
	assert.Nil(t, press(s, tea.KeyEnter))
}
