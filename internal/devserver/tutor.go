package devserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/abhisek/tutorchat/internal/llm"
	"github.com/abhisek/tutorchat/internal/topic"
)

// Refusal is the reply to messages outside the AI domain.
const Refusal = "I am an AI learning assistant. Please ask me questions related to artificial intelligence. " +
	"I can help you with AI concepts, learning resources, career guidance, technical details, or any other AI-related topics."

// offlineReply answers in-domain questions when no model is configured.
const offlineReply = "The tutor model is not configured on this server, so I can't answer free-form questions right now. " +
	"Ask me for resources or take a quiz on %s."

const (
	introSystem = "You are an AI tutor. Provide a very brief, engaging explanation of the topic in 1-2 sentences. " +
		"Keep it simple and interesting."

	classifySystem = "You are a classifier. Decide whether the question is about learning, understanding, or working with " +
		"AI, machine learning or data science. Respond with a JSON object: " +
		`{"relevant": true or false, "reason": "<one short sentence>"}.`

	tutorSystem = `You are an AI tutor with expertise in all areas of artificial intelligence.
Provide helpful, accurate, and educational responses about any AI-related topic, including:
- Technical concepts and explanations
- Learning resources and roadmaps
- Career guidance and industry trends
- Practical applications and real-world examples
- Best practices and recommendations
Keep responses focused on AI and related fields.`
)

// aiKeywords mark a message as in-domain without asking the model.
// Matching is by substring.
var aiKeywords = []string{
	"ai", "artificial intelligence", "machine learning", "deep learning", "neural network",
	"algorithm", "model", "training", "dataset", "data", "learn", "predict", "classification",
	"regression", "clustering", "nlp", "computer vision", "robotics", "automation",
	"supervised", "unsupervised", "reinforcement", "ethics", "bias", "framework",
	"python", "tensorflow", "pytorch", "keras", "scikit", "opencv", "roadmap", "career",
	"course", "study", "guide", "path", "recommendation", "project", "application",
}

var questionWords = []string{"how", "what", "why", "where"}

var relevanceSchema = &llm.Schema{
	Name:        "topic-relevance",
	Description: "Whether a learner's question is about AI, machine learning or data science",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"relevant": map[string]any{"type": "boolean"},
			"reason":   map[string]any{"type": "string"},
		},
		"required":             []any{"relevant", "reason"},
		"additionalProperties": false,
	},
}

type relevance struct {
	Relevant bool   `json:"relevant"`
	Reason   string `json:"reason"`
}

// Tutor produces the assistant's replies. A nil provider runs it offline:
// introductions fall back to the catalog description.
type Tutor struct {
	provider llm.Provider
	logger   *log.Logger
}

// NewTutor creates a Tutor on p, which may be nil.
func NewTutor(p llm.Provider, logger *log.Logger) *Tutor {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Tutor{provider: p, logger: logger}
}

// Intro returns the topic introduction followed by its subtopic list.
// Model failures fall back to the catalog description.
func (t *Tutor) Intro(ctx context.Context, tp topic.Topic) string {
	explanation := tp.Description
	if t.provider != nil {
		text, err := t.generate(llm.WithPurpose(ctx, "topic-intro"), llm.Request{
			System: introSystem,
			Messages: []llm.Message{{
				Role:    llm.RoleUser,
				Content: fmt.Sprintf("Explain %s in a simple way that a beginner can understand.", tp.Name),
			}},
			MaxTokens:   200,
			Temperature: 0.7,
		})
		if err != nil {
			t.logger.Printf("tutor: intro for %s: %v", tp.ID, err)
		} else if text != "" {
			explanation = text
		}
	}

	var b strings.Builder
	b.WriteString(explanation)
	fmt.Fprintf(&b, "\n\nHere are some subtopics you can explore under %s:\n", tp.Name)
	for i, s := range tp.Subtopics {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(s)
	}
	return b.String()
}

// Reply answers a learner message. Off-domain messages get Refusal.
func (t *Tutor) Reply(ctx context.Context, tp topic.Topic, message string) (string, error) {
	related, err := t.relevant(ctx, message)
	if err != nil {
		return "", err
	}
	if !related {
		return Refusal, nil
	}
	if t.provider == nil {
		name := tp.Name
		if name == "" {
			name = "this topic"
		}
		return fmt.Sprintf(offlineReply, name), nil
	}

	system := tutorSystem
	if tp.Name != "" {
		system += fmt.Sprintf("\nThe learner is currently studying %s.", tp.Name)
	}
	return t.generate(llm.WithPurpose(ctx, "tutor-reply"), llm.Request{
		System:      system,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: message}},
		MaxTokens:   1000,
		Temperature: 0.7,
	})
}

// relevant applies the keyword check, then asks the model about
// questions the keywords missed.
func (t *Tutor) relevant(ctx context.Context, message string) (bool, error) {
	lower := strings.ToLower(message)
	if containsAny(lower, aiKeywords) {
		return true, nil
	}
	if !containsAny(lower, questionWords) || t.provider == nil {
		return false, nil
	}

	resp, err := t.provider.Generate(llm.WithPurpose(ctx, "relevance"), llm.Request{
		System:    classifySystem,
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: message}},
		Schema:    relevanceSchema,
		MaxTokens: 100,
	})
	if err != nil {
		return false, fmt.Errorf("classify message: %w", err)
	}
	var r relevance
	if err := json.Unmarshal(resp.Content, &r); err != nil {
		return false, fmt.Errorf("decode relevance: %w", err)
	}
	return r.Relevant, nil
}

func (t *Tutor) generate(ctx context.Context, req llm.Request) (string, error) {
	resp, err := t.provider.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	text, err := resp.Text()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
