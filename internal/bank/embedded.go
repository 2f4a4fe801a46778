package bank

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed data/quiz.json
var questionsDocument []byte

//go:embed data/resources.json
var resourcesDocument []byte

// QuestionsDocument returns the built-in quiz.json bytes.
func QuestionsDocument() []byte { return questionsDocument }

// ResourcesDocument returns the built-in resources.json bytes.
func ResourcesDocument() []byte { return resourcesDocument }

// EmbeddedSource serves the datasets compiled into the binary.
type EmbeddedSource struct {
	banks     QuestionBanks
	resources ResourceLists
}

// NewEmbeddedSource decodes and validates the built-in documents.
func NewEmbeddedSource() (*EmbeddedSource, error) {
	banks, err := ParseQuestionBanks(questionsDocument)
	if err != nil {
		return nil, fmt.Errorf("embedded: %w", err)
	}
	resources, err := ParseResourceLists(resourcesDocument)
	if err != nil {
		return nil, fmt.Errorf("embedded: %w", err)
	}
	return &EmbeddedSource{banks: banks, resources: resources}, nil
}

func (s *EmbeddedSource) Questions(_ context.Context, topic string) ([]Question, error) {
	return s.banks.For(topic)
}

func (s *EmbeddedSource) Resources(_ context.Context, topic string) (TopicResources, error) {
	return s.resources.For(topic)
}
