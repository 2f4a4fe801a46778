// Package bank provides the static quiz-question and learning-resource
// datasets, either fetched from the backend or served from built-in copies.
package bank

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/abhisek/tutorchat/internal/failure"
)

// Paths of the static documents on the backend.
const (
	QuestionsPath = "/static/js/quiz.json"
	ResourcesPath = "/static/js/resources.json"
)

// Labels are the answer letters, in option order.
var Labels = []string{"A", "B", "C", "D"}

// Question is one multiple-choice question. Options carry their label
// prefix ("A. ...") as published in the dataset.
type Question struct {
	Text    string   `json:"question"`
	Options []string `json:"options"`
	Correct string   `json:"correct"`
}

// TopicQuestions is the bank for one topic.
type TopicQuestions struct {
	Questions []Question `json:"questions"`
}

// Resource is one external learning link.
type Resource struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// TopicResources is the resource list for one topic.
type TopicResources struct {
	Name      string     `json:"name"`
	Resources []Resource `json:"resources"`
}

// QuestionBanks is the decoded quiz document keyed by topic ID.
type QuestionBanks map[string]TopicQuestions

// ResourceLists is the decoded resources document keyed by topic ID.
type ResourceLists map[string]TopicResources

// Source supplies per-topic datasets.
type Source interface {
	Questions(ctx context.Context, topic string) ([]Question, error)
	Resources(ctx context.Context, topic string) (TopicResources, error)
}

// ParseQuestionBanks validates raw against the question bank schema and
// decodes it.
func ParseQuestionBanks(raw []byte) (QuestionBanks, error) {
	if err := validateDocument(questionsSchema, raw); err != nil {
		return nil, fmt.Errorf("question bank: %w", err)
	}
	var banks QuestionBanks
	if err := json.Unmarshal(raw, &banks); err != nil {
		return nil, fmt.Errorf("decode question bank: %w", err)
	}
	return banks, nil
}

// ParseResourceLists validates raw against the resources schema and decodes it.
func ParseResourceLists(raw []byte) (ResourceLists, error) {
	if err := validateDocument(resourcesSchema, raw); err != nil {
		return nil, fmt.Errorf("resources: %w", err)
	}
	var lists ResourceLists
	if err := json.Unmarshal(raw, &lists); err != nil {
		return nil, fmt.Errorf("decode resources: %w", err)
	}
	return lists, nil
}

// For returns a copy of the topic's questions, or a DataUnavailableError when
// the topic has none.
func (b QuestionBanks) For(topic string) ([]Question, error) {
	qs := b[topic].Questions
	if len(qs) == 0 {
		return nil, &failure.DataUnavailableError{Dataset: "questions", Topic: topic}
	}
	return slices.Clone(qs), nil
}

// For returns the topic's resource list, or a DataUnavailableError when the
// topic has none.
func (l ResourceLists) For(topic string) (TopicResources, error) {
	r, ok := l[topic]
	if !ok || len(r.Resources) == 0 {
		return TopicResources{}, &failure.DataUnavailableError{Dataset: "resources", Topic: topic}
	}
	r.Resources = slices.Clone(r.Resources)
	return r, nil
}
