package devserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/abhisek/tutorchat/internal/bank"
	"github.com/abhisek/tutorchat/internal/llm"
	"github.com/abhisek/tutorchat/internal/store"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testConfig() Config {
	return Config{
		Addr:          ":0",
		SessionSecret: testSecret,
		SessionMaxAge: time.Hour,
		PasswordCost:  bcrypt.MinCost,
	}
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := store.Open(fmt.Sprintf("file:devserver_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

// testEnv is a running server plus a cookie-keeping client.
type testEnv struct {
	t      *testing.T
	srv    *httptest.Server
	client *http.Client
	store  *store.Store
}

func newTestEnv(t *testing.T, provider llm.Provider) *testEnv {
	t.Helper()
	return newTestEnvConfig(t, testConfig(), provider)
}

func newTestEnvConfig(t *testing.T, cfg Config, provider llm.Provider) *testEnv {
	t.Helper()
	st := openTestStore(t)
	s, err := New(cfg, st, NewTutor(provider, nil), nil)
	require.NoError(t, err)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &testEnv{t: t, srv: srv, client: newJarClient(t), store: st}
}

func newJarClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func (e *testEnv) do(c *http.Client, method, path string, body any, header map[string]string) (int, map[string]any) {
	e.t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.t, err)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(e.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := c.Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(e.t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (e *testEnv) call(method, path string, body any) (int, map[string]any) {
	e.t.Helper()
	return e.do(e.client, method, path, body, nil)
}

// signIn registers and logs in username, returning the user ID.
func (e *testEnv) signIn(username string) string {
	e.t.Helper()
	creds := map[string]string{"username": username, "password": "pw-" + username}
	_, out := e.call(http.MethodPost, "/api/register", creds)
	require.Empty(e.t, out["error"])
	_, out = e.call(http.MethodPost, "/api/login", creds)
	require.Equal(e.t, true, out["success"], "login: %v", out)
	return out["user"].(map[string]any)["_id"].(string)
}

func TestHealthz(t *testing.T) {
	e := newTestEnv(t, nil)
	status, out := e.call(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", out["status"])
}

func TestRegister(t *testing.T) {
	e := newTestEnv(t, nil)
	creds := map[string]string{"username": "ada", "password": "lovelace"}

	status, out := e.call(http.MethodPost, "/api/register", creds)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Registration successful! You can now login.", out["message"])

	_, out = e.call(http.MethodPost, "/api/register", creds)
	assert.Equal(t, "Username already exists", out["error"])

	_, out = e.call(http.MethodPost, "/api/register", map[string]string{"username": "  ", "password": "x"})
	assert.Equal(t, "Username and password are required", out["error"])

	u, err := e.store.Users().ByUsername(t.Context(), "ada")
	require.NoError(t, err)
	assert.NotEqual(t, "lovelace", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("lovelace")))
	assert.Equal(t, store.DefaultLevel, u.Level)
}

func TestLoginSessionLifecycle(t *testing.T) {
	e := newTestEnv(t, nil)

	_, out := e.call(http.MethodGet, "/api/check-session", nil)
	assert.Nil(t, out["user"])

	e.call(http.MethodPost, "/api/register", map[string]string{"username": "ada", "password": "pw"})

	_, out = e.call(http.MethodPost, "/api/login", map[string]string{"username": "ada", "password": "wrong"})
	assert.Equal(t, "Invalid credentials", out["error"])
	_, out = e.call(http.MethodPost, "/api/login", map[string]string{"username": "nobody", "password": "pw"})
	assert.Equal(t, "Invalid credentials", out["error"])

	_, out = e.call(http.MethodPost, "/api/login", map[string]string{"username": "ada", "password": "pw"})
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "Login successful!", out["message"])
	user := out["user"].(map[string]any)
	assert.Equal(t, "ada", user["username"])
	assert.Equal(t, "beginner", user["level"])
	assert.NotEmpty(t, user["_id"])

	_, out = e.call(http.MethodGet, "/api/check-session", nil)
	require.NotNil(t, out["user"])
	assert.Equal(t, "ada", out["user"].(map[string]any)["username"])

	_, out = e.call(http.MethodPost, "/api/logout", nil)
	assert.Equal(t, true, out["success"])

	_, out = e.call(http.MethodGet, "/api/check-session", nil)
	assert.Nil(t, out["user"])
}

func TestSessionCookieAttributes(t *testing.T) {
	e := newTestEnv(t, nil)
	e.call(http.MethodPost, "/api/register", map[string]string{"username": "ada", "password": "pw"})

	body := strings.NewReader(`{"username":"ada","password":"pw"}`)
	resp, err := http.Post(e.srv.URL+"/api/login", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()

	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == sessionName {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	assert.Equal(t, "/", session.Path)
	assert.Equal(t, http.SameSiteLaxMode, session.SameSite)
	assert.Equal(t, int(time.Hour/time.Second), session.MaxAge)
}

func TestTamperedCookieIsIgnored(t *testing.T) {
	e := newTestEnv(t, nil)
	req, err := http.NewRequest(http.MethodGet, e.srv.URL+"/api/check-session", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: sessionName, Value: "forged"})

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Nil(t, out["user"])
}

func TestChatRequiresSession(t *testing.T) {
	e := newTestEnv(t, nil)
	status, out := e.call(http.MethodPost, "/api/chat", map[string]string{"topic": "nlp"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Not authenticated", out["detail"])
}

func TestChatIntroduction(t *testing.T) {
	e := newTestEnv(t, llm.NewMockProvider(llm.MockText("NLP teaches computers to read.")))
	e.signIn("ada")

	status, out := e.call(http.MethodPost, "/api/chat", map[string]string{"topic": "nlp"})
	require.Equal(t, http.StatusOK, status)
	reply := out["response"].(string)
	assert.True(t, strings.HasPrefix(reply, "NLP teaches computers to read.\n\nHere are some subtopics you can explore under"))
	assert.NotEmpty(t, out["subtopics"])

	status, out = e.call(http.MethodPost, "/api/chat", map[string]string{"topic": "astrology"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid topic", out["detail"])

	status, out = e.call(http.MethodPost, "/api/chat", map[string]string{"message": "hi"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Topic is required", out["detail"])
}

func TestChatReplies(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText("Backpropagation pushes the error back through the layers."))
	e := newTestEnv(t, mock)
	e.signIn("ada")

	_, out := e.call(http.MethodPost, "/api/chat", map[string]string{"topic": "neural-networks", "message": "Explain backpropagation in training"})
	assert.Equal(t, "Backpropagation pushes the error back through the layers.", out["response"])

	_, out = e.call(http.MethodPost, "/api/chat", map[string]string{"topic": "neural-networks", "message": "Tell me a joke"})
	assert.Equal(t, Refusal, out["response"])
	assert.Equal(t, 1, mock.CallCount())

	// Queue is empty, so the provider is unavailable.
	status, out := e.call(http.MethodPost, "/api/chat", map[string]string{"topic": "neural-networks", "message": "what is a model"})
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "The tutor is unavailable right now", out["detail"])
}

func TestChatOffline(t *testing.T) {
	e := newTestEnv(t, nil)
	e.signIn("ada")

	_, out := e.call(http.MethodPost, "/api/chat", map[string]string{"topic": "ethics"})
	assert.Contains(t, out["response"], "Here are some subtopics you can explore under AI Ethics")

	_, out = e.call(http.MethodPost, "/api/chat", map[string]string{"topic": "ethics", "message": "what about bias in hiring?"})
	assert.Contains(t, out["response"], "not configured")
}

func TestSaveChatAndHistory(t *testing.T) {
	e := newTestEnv(t, nil)
	id := e.signIn("ada")
	hdr := map[string]string{"user-id": id}

	first := map[string]any{
		"topic": "nlp",
		"messages": []map[string]string{
			{"content": "<b>Welcome</b> to natural language processing, the study of text and speech", "sender": "ai"},
			{"content": "hi", "sender": "user"},
		},
		"quiz_state": nil,
	}
	status, out := e.do(e.client, http.MethodPost, "/api/save-chat", first, hdr)
	require.Equal(t, http.StatusOK, status, "%v", out)
	assert.Equal(t, true, out["success"])
	chat := out["chat"].(map[string]any)
	assert.Equal(t, "Welcome to natural language processing, the study ...", chat["preview"])
	assert.Nil(t, chat["quiz_state"])

	second := map[string]any{
		"topic":      "ethics",
		"messages":   []map[string]string{},
		"quiz_state": map[string]any{"score": 1, "answeredQuestions": 1},
	}
	_, out = e.do(e.client, http.MethodPost, "/api/save-chat", second, hdr)
	assert.Equal(t, "Empty chat", out["chat"].(map[string]any)["preview"])

	_, out = e.do(e.client, http.MethodGet, "/api/history", nil, hdr)
	history := out["history"].([]any)
	require.Len(t, history, 2)
	newest := history[0].(map[string]any)
	assert.Equal(t, "ethics", newest["topic"])
	assert.Equal(t, float64(1), newest["quiz_state"].(map[string]any)["score"])
	assert.Equal(t, "nlp", history[1].(map[string]any)["topic"])

	// The username also resolves.
	_, out = e.do(e.client, http.MethodGet, "/api/history", nil, map[string]string{"user-id": "ada"})
	assert.Len(t, out["history"].([]any), 2)

	// A chat can be fetched by ID from the session.
	chatID := history[1].(map[string]any)["_id"].(string)
	status, out = e.call(http.MethodGet, "/api/chat/"+chatID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "nlp", out["topic"])
	assert.Len(t, out["messages"].([]any), 2)

	status, _ = e.call(http.MethodGet, "/api/chat/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSaveChatValidation(t *testing.T) {
	e := newTestEnv(t, nil)
	id := e.signIn("ada")
	hdr := map[string]string{"user-id": id}

	status, out := e.do(e.client, http.MethodPost, "/api/save-chat", map[string]any{"messages": []any{}}, hdr)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Topic is required", out["detail"])

	status, _ = e.do(e.client, http.MethodPost, "/api/save-chat", map[string]any{"topic": "nlp", "messages": "nope"}, hdr)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHistoryUserHeader(t *testing.T) {
	e := newTestEnv(t, nil)
	e.signIn("ada")

	status, out := e.call(http.MethodGet, "/api/history", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "User ID required", out["detail"])

	status, out = e.do(e.client, http.MethodGet, "/api/history", nil, map[string]string{"user-id": "ghost"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Unknown user", out["detail"])

	// Another account exists, but the session belongs to ada.
	other := newJarClient(t)
	e.do(other, http.MethodPost, "/api/register", map[string]string{"username": "bob", "password": "pw"}, nil)
	status, _ = e.do(e.client, http.MethodGet, "/api/history", nil, map[string]string{"user-id": "bob"})
	assert.Equal(t, http.StatusForbidden, status)

	// Without a session cookie the header alone is not enough.
	status, out = e.do(other, http.MethodGet, "/api/history", nil, map[string]string{"user-id": "ada"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Not authenticated", out["detail"])
	status, _ = e.do(other, http.MethodPost, "/api/save-chat",
		map[string]any{"topic": "nlp", "messages": []map[string]string{{"content": "x", "sender": "user"}}},
		map[string]string{"user-id": "ada"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, out = e.do(e.client, http.MethodGet, "/api/history", nil, map[string]string{"user-id": "ada"})
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, out["history"])
}

func TestTrustUserHeader(t *testing.T) {
	cfg := testConfig()
	cfg.TrustUserHeader = true
	e := newTestEnvConfig(t, cfg, nil)
	e.do(e.client, http.MethodPost, "/api/register", map[string]string{"username": "bob", "password": "pw"}, nil)

	status, out := e.do(newJarClient(t), http.MethodGet, "/api/history?user_id=bob", nil, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, out["history"])
}

func TestProgress(t *testing.T) {
	e := newTestEnv(t, nil)
	e.signIn("ada")

	_, out := e.call(http.MethodGet, "/api/progress", nil)
	assert.Equal(t, float64(0), out["progress"])
	assert.Equal(t, "beginner", out["level"])

	tests := []struct {
		score    int
		progress float64
		level    string
	}{
		{55, 55, "intermediate"},
		{250, 100, "advanced"},
		{-4, 0, "beginner"},
	}
	for _, tt := range tests {
		_, out = e.call(http.MethodPost, "/api/update-progress", map[string]int{"score": tt.score})
		assert.Equal(t, true, out["success"])
		assert.Equal(t, tt.progress, out["progress"], "score %d", tt.score)

		_, out = e.call(http.MethodGet, "/api/progress", nil)
		assert.Equal(t, tt.progress, out["progress"])
		assert.Equal(t, tt.level, out["level"])
	}
}

func TestProgressRequiresSession(t *testing.T) {
	e := newTestEnv(t, nil)
	status, _ := e.call(http.MethodGet, "/api/progress", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = e.call(http.MethodPost, "/api/update-progress", map[string]int{"score": 1})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestResources(t *testing.T) {
	e := newTestEnv(t, nil)

	_, out := e.call(http.MethodGet, "/api/resources?topic=nlp", nil)
	items := out["resources"].([]any)
	require.NotEmpty(t, items)
	first := items[0].(map[string]any)
	assert.Equal(t, true, first["is_resource"])
	assert.Equal(t, true, first["is_html"])
	assert.Contains(t, first["response"], `target="_blank"`)

	_, out = e.call(http.MethodGet, "/api/resources?topic=astrology", nil)
	assert.Empty(t, out["resources"])

	_, out = e.call(http.MethodGet, "/api/resources", nil)
	assert.Greater(t, len(out["resources"].([]any)), len(items))
}

func TestStaticDocuments(t *testing.T) {
	e := newTestEnv(t, nil)

	for path, doc := range map[string][]byte{
		bank.QuestionsPath: bank.QuestionsDocument(),
		bank.ResourcesPath: bank.ResourcesDocument(),
	} {
		resp, err := http.Get(e.srv.URL + path)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, doc, body, path)
		assert.Contains(t, resp.Header.Get("Cache-Control"), "max-age")
	}
}

func TestMalformedBody(t *testing.T) {
	e := newTestEnv(t, nil)
	resp, err := http.Post(e.srv.URL+"/api/login", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"short secret", func(c *Config) { c.SessionSecret = "short" }, true},
		{"long secret", func(c *Config) { c.SessionSecret = testSecret }, false},
		{"no addr", func(c *Config) { c.Addr = "" }, true},
		{"zero max age", func(c *Config) { c.SessionMaxAge = 0 }, true},
		{"cost too low", func(c *Config) { c.PasswordCost = 1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("TUTORCHAT_ADDR", "127.0.0.1:9000")
	t.Setenv("TUTORCHAT_SESSION_SECRET", testSecret)
	t.Setenv("TUTORCHAT_SECURE_COOKIES", "true")

	cfg := ConfigFromEnv()
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, testSecret, cfg.SessionSecret)
	assert.True(t, cfg.SecureCookies)
	assert.Equal(t, bcrypt.DefaultCost, cfg.PasswordCost)
}
