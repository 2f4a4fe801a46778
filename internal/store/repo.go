package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a unique column already holds the value.
	ErrDuplicate = errors.New("store: duplicate")
)

// DefaultLevel is the level assigned to newly registered users.
const DefaultLevel = "beginner"

// User is a registered account.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Level        string
	Progress     int
	CreatedAt    time.Time
}

// UserRepo provides access to accounts.
type UserRepo interface {
	// Create inserts u, filling ID, Level and CreatedAt when empty.
	// Returns ErrDuplicate if the username is taken.
	Create(ctx context.Context, u *User) error

	ByUsername(ctx context.Context, username string) (*User, error)
	ByID(ctx context.Context, id string) (*User, error)

	// SetProgress stores the progress value and level for a user.
	SetProgress(ctx context.Context, id string, progress int, level string) error
}

// Chat is a saved conversation. Messages and QuizState are stored as the
// JSON the client sent.
type Chat struct {
	ID        string
	UserID    string
	Topic     string
	Preview   string
	Messages  json.RawMessage
	QuizState json.RawMessage
	CreatedAt time.Time
}

// ChatRepo provides access to saved conversations.
type ChatRepo interface {
	Save(ctx context.Context, c *Chat) error

	// ListByUser returns the user's chats, newest first.
	ListByUser(ctx context.Context, userID string) ([]Chat, error)

	// Get returns a chat owned by userID.
	Get(ctx context.Context, userID, id string) (*Chat, error)
}

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int       // id > After
	Purpose string    // exact purpose match when set
	From    time.Time // timestamp >= From
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a recorded LLM request.
type LLMEvent struct {
	ID        int
	Timestamp time.Time
	LLMRequestEventData
}

// PurposeUsage aggregates LLM calls for one purpose.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates LLM calls for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)

	// GetLLMEvent returns nil when no event has the id.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)

	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)
}
