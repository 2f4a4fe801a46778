package devserver_test

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/abhisek/tutorchat/internal/api"
	"github.com/abhisek/tutorchat/internal/bank"
	"github.com/abhisek/tutorchat/internal/chat"
	"github.com/abhisek/tutorchat/internal/devserver"
	"github.com/abhisek/tutorchat/internal/llm"
	"github.com/abhisek/tutorchat/internal/quiz"
	"github.com/abhisek/tutorchat/internal/store"
)

// newClientStack runs the backend and wires a client manager to it the
// way the terminal client does, with datasets fetched from the server.
func newClientStack(t *testing.T, provider llm.Provider) (*chat.Manager, *api.Client) {
	t.Helper()

	st, err := store.Open(fmt.Sprintf("file:e2e_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := devserver.DefaultConfig()
	cfg.PasswordCost = bcrypt.MinCost
	srv, err := devserver.New(cfg, st, devserver.NewTutor(provider, nil), nil)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	client, err := api.New(api.Config{BaseURL: ts.URL, Timeout: 5 * time.Second}, nil)
	require.NoError(t, err)

	embedded, err := bank.NewEmbeddedSource()
	require.NoError(t, err)
	data := &bank.FallbackSource{Primary: bank.NewHTTPSource(client), Secondary: embedded}

	engine := quiz.NewEngine(data, client, quiz.WithRand(rand.New(rand.NewPCG(7, 11))), quiz.WithSize(1))
	return chat.NewManager(client, engine, data, nil), client
}

func lastMessage(t *testing.T, m *chat.Manager) chat.Message {
	t.Helper()
	snap, ok := m.Snapshot()
	require.True(t, ok)
	require.NotEmpty(t, snap.Messages)
	return snap.Messages[len(snap.Messages)-1]
}

func TestClientAgainstBackend(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockProvider(
		llm.MockText("NLP lets computers work with human language."),
		llm.MockText("A token is a unit of text such as a word."),
	)
	m, client := newClientStack(t, mock)

	msg, err := m.Register(ctx, "ada", "lovelace")
	require.NoError(t, err)
	assert.Equal(t, "Registration successful! You can now login.", msg)

	_, err = m.Register(ctx, "ada", "lovelace")
	assert.ErrorContains(t, err, "Username already exists")

	_, err = m.Login(ctx, "ada", "wrong")
	assert.ErrorContains(t, err, "Invalid credentials")

	_, err = m.Login(ctx, "ada", "lovelace")
	require.NoError(t, err)
	require.NotNil(t, client.User())
	assert.NotEmpty(t, client.User().ID)

	events, err := m.OpenTopic(ctx, "nlp")
	require.NoError(t, err)
	var subtopics []string
	for _, e := range events {
		if e.Kind == chat.SubtopicsOffered {
			subtopics = e.Subtopics
		}
	}
	assert.Equal(t, []string{"Text Classification", "Language Models", "Sentiment Analysis"}, subtopics)
	assert.Contains(t, lastMessage(t, m).Content, "NLP lets computers work with human language.")

	_, err = m.SendMessage(ctx, "what is a token in nlp?")
	require.NoError(t, err)
	assert.Equal(t, "A token is a unit of text such as a word.", lastMessage(t, m).Content)

	_, err = m.SendMessage(ctx, "tell me a joke")
	require.NoError(t, err)
	assert.Equal(t, devserver.Refusal, lastMessage(t, m).Content)

	// Resources come from the server's static dataset.
	_, err = m.SendMessage(ctx, "any resources?")
	require.NoError(t, err)
	assert.Contains(t, lastMessage(t, m).Content, `target="_blank"`)

	// A one-question quiz, answered correctly.
	_, err = m.SendMessage(ctx, "quiz me")
	require.NoError(t, err)
	snap, _ := m.Snapshot()
	require.NotNil(t, snap.Quiz)
	require.NotNil(t, snap.Quiz.CurrentQuestion)

	events, err = m.SendMessage(ctx, strings.ToLower(snap.Quiz.CurrentQuestion.Correct))
	require.NoError(t, err)
	var progress int
	for _, e := range events {
		if e.Kind == chat.ProgressChanged {
			progress = e.Progress
		}
	}
	assert.Equal(t, 10, progress)

	saved, err := client.Progress(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, saved)

	_, err = m.SaveAndReset(ctx)
	require.NoError(t, err)

	history, err := client.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	rec := history[0]
	assert.Equal(t, "nlp", rec.Topic)
	assert.NotEmpty(t, rec.Preview)
	assert.False(t, rec.Time().IsZero())
	assert.Equal(t, "null", string(rec.QuizState))
	assert.Equal(t, "user", rec.Messages[1].Sender)

	_, err = m.LoadSavedChat(ctx, rec)
	require.NoError(t, err)
	snap, _ = m.Snapshot()
	assert.Equal(t, "nlp", snap.Topic)
	assert.Len(t, snap.Messages, len(rec.Messages))
	assert.Nil(t, snap.Quiz)

	_, err = m.Logout(ctx)
	require.NoError(t, err)
	u, err := client.CheckSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestClientRestoresSession(t *testing.T) {
	ctx := context.Background()
	m, _ := newClientStack(t, nil)

	_, err := m.Register(ctx, "grace", "hopper")
	require.NoError(t, err)
	_, err = m.Login(ctx, "grace", "hopper")
	require.NoError(t, err)

	events, err := m.Restore(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, chat.UserChanged, events[0].Kind)
	assert.Equal(t, "grace", events[0].User.Username)
}
