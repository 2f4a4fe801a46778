package app

import (
	"context"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tutorchat/internal/api"
	"github.com/abhisek/tutorchat/internal/chat"
	"github.com/abhisek/tutorchat/internal/screen"
	"github.com/abhisek/tutorchat/internal/screens/conversation"
	"github.com/abhisek/tutorchat/internal/screens/history"
	"github.com/abhisek/tutorchat/internal/screens/login"
	"github.com/abhisek/tutorchat/internal/screens/topics"
)

// fakeManager satisfies Manager without a backend.
type fakeManager struct {
	saved int
}

func (f *fakeManager) Restore(context.Context) ([]chat.Event, error) { return nil, nil }
func (f *fakeManager) Login(context.Context, string, string) ([]chat.Event, error) {
	return nil, nil
}
func (f *fakeManager) Register(context.Context, string, string) (string, error) { return "", nil }
func (f *fakeManager) RefreshProgress(context.Context) ([]chat.Event, error)    { return nil, nil }
func (f *fakeManager) OpenTopic(context.Context, string) ([]chat.Event, error)  { return nil, nil }
func (f *fakeManager) Logout(context.Context) ([]chat.Event, error)             { return nil, nil }
func (f *fakeManager) RefreshHistory(context.Context) ([]chat.Event, error)     { return nil, nil }
func (f *fakeManager) LoadSavedChat(context.Context, api.SavedChat) ([]chat.Event, error) {
	return nil, nil
}
func (f *fakeManager) SendMessage(context.Context, string) ([]chat.Event, error) { return nil, nil }
func (f *fakeManager) ExploreSubtopic(context.Context, string) ([]chat.Event, error) {
	return nil, nil
}
func (f *fakeManager) SaveAndReset(context.Context) ([]chat.Event, error) {
	f.saved++
	return nil, chat.ErrNotLoggedIn
}

var _ Manager = (*chat.Manager)(nil)

func update(m AppModel, msg tea.Msg) (AppModel, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(AppModel), cmd
}

func sized(t *testing.T) (AppModel, *fakeManager) {
	t.Helper()
	mgr := &fakeManager{}
	m := newAppModel(mgr, nil)
	m, _ = update(m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, mgr
}

func TestNavigatorBuildsScreens(t *testing.T) {
	nav := &navigator{mgr: &fakeManager{}, status: &status{progress: 40}}

	assert.IsType(t, &login.LoginScreen{}, nav.Login())
	assert.IsType(t, &history.HistoryScreen{}, nav.History())
	assert.IsType(t, &conversation.ConversationScreen{}, nav.Chat("NLP", nil))

	tp, ok := nav.Topics().(*topics.TopicsScreen)
	require.True(t, ok)
	assert.Equal(t, 40, tp.Progress())
}

func TestStartsAtWelcome(t *testing.T) {
	m, _ := sized(t)
	assert.Equal(t, 1, m.router.Depth())
	assert.Equal(t, "", m.router.Active().Title())
	assert.NotNil(t, m.Init())
}

func TestNoticeExpires(t *testing.T) {
	m, _ := sized(t)

	m, cmd := update(m, screen.NoticeMsg{Text: "Failed to save chat"})
	require.NotNil(t, cmd)
	assert.Contains(t, m.render(), "Failed to save chat")

	// A newer notice outlives the older one's timer.
	first := m.status.noticeID
	m, _ = update(m, screen.NoticeMsg{Text: "Could not reach the server"})
	m, _ = update(m, noticeExpiredMsg{ID: first})
	assert.Equal(t, "Could not reach the server", m.status.notice)

	m, _ = update(m, noticeExpiredMsg{ID: m.status.noticeID})
	assert.Empty(t, m.status.notice)
	assert.NotContains(t, m.render(), "Could not reach the server")
}

func TestEmptyNoticeIgnored(t *testing.T) {
	m, _ := sized(t)
	_, cmd := update(m, screen.NoticeMsg{})
	assert.Nil(t, cmd)
	assert.Empty(t, m.status.notice)
}

func TestHeaderFollowsUserAndProgress(t *testing.T) {
	m, _ := sized(t)

	m, _ = update(m, screen.UserMsg{Username: "ada"})
	m, _ = update(m, screen.ProgressMsg{Progress: 55})
	view := m.render()
	assert.Contains(t, view, "ada")
	assert.Contains(t, view, "Intermediate 55%")

	m, _ = update(m, screen.UserMsg{})
	assert.Empty(t, m.status.username)
	assert.Zero(t, m.status.progress)
	assert.False(t, strings.Contains(m.render(), "ada"))
}

func TestTooSmall(t *testing.T) {
	m := newAppModel(&fakeManager{}, nil)
	m, _ = update(m, tea.WindowSizeMsg{Width: 30, Height: 10})
	assert.Contains(t, m.render(), "Terminal too small")
}

func TestCtrlCSavesThenQuits(t *testing.T) {
	m, _ := sized(t)
	_, cmd := update(m, tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	require.NotNil(t, cmd)
}
