package bank

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/abhisek/tutorchat/internal/failure"
)

// Fetcher retrieves a static document from the backend.
type Fetcher interface {
	FetchStatic(ctx context.Context, path string) ([]byte, error)
}

// HTTPSource fetches each document once per process and caches it. A failed
// fetch is not cached, so the next call tries again.
type HTTPSource struct {
	fetch Fetcher

	mu        sync.Mutex
	banks     QuestionBanks
	resources ResourceLists
}

// NewHTTPSource creates a source backed by f.
func NewHTTPSource(f Fetcher) *HTTPSource {
	return &HTTPSource{fetch: f}
}

func (s *HTTPSource) Questions(ctx context.Context, topic string) ([]Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.banks == nil {
		raw, err := s.fetch.FetchStatic(ctx, QuestionsPath)
		if err != nil {
			return nil, err
		}
		banks, err := ParseQuestionBanks(raw)
		if err != nil {
			return nil, err
		}
		s.banks = banks
	}
	return s.banks.For(topic)
}

func (s *HTTPSource) Resources(ctx context.Context, topic string) (TopicResources, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.resources == nil {
		raw, err := s.fetch.FetchStatic(ctx, ResourcesPath)
		if err != nil {
			return TopicResources{}, err
		}
		lists, err := ParseResourceLists(raw)
		if err != nil {
			return TopicResources{}, err
		}
		s.resources = lists
	}
	return s.resources.For(topic)
}

// FallbackSource consults Secondary when Primary fails for any reason other
// than the topic being absent from the dataset.
type FallbackSource struct {
	Primary   Source
	Secondary Source
	Logger    *log.Logger
}

func (s *FallbackSource) Questions(ctx context.Context, topic string) ([]Question, error) {
	qs, err := s.Primary.Questions(ctx, topic)
	if err == nil || !s.shouldFallBack(err) {
		return qs, err
	}
	s.logf("questions for %s: %v; using built-in bank", topic, err)
	return s.Secondary.Questions(ctx, topic)
}

func (s *FallbackSource) Resources(ctx context.Context, topic string) (TopicResources, error) {
	r, err := s.Primary.Resources(ctx, topic)
	if err == nil || !s.shouldFallBack(err) {
		return r, err
	}
	s.logf("resources for %s: %v; using built-in list", topic, err)
	return s.Secondary.Resources(ctx, topic)
}

func (s *FallbackSource) shouldFallBack(err error) bool {
	var unavailable *failure.DataUnavailableError
	return !errors.As(err, &unavailable) && !errors.Is(err, context.Canceled)
}

func (s *FallbackSource) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
	}
}
