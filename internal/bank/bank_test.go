package bank

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tutorchat/internal/failure"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestEmbeddedSource(t *testing.T) {
	src, err := NewEmbeddedSource()
	require.NoError(t, err)

	for _, topic := range []string{"machine-learning", "neural-networks", "nlp"} {
		qs, err := src.Questions(context.Background(), topic)
		require.NoError(t, err, topic)
		assert.Len(t, qs, 10, topic)
		for _, q := range qs {
			assert.Len(t, q.Options, 4)
			assert.Contains(t, Labels, q.Correct)
		}
	}

	res, err := src.Resources(context.Background(), "ethics")
	require.NoError(t, err)
	assert.Equal(t, "AI Ethics", res.Name)
	assert.NotEmpty(t, res.Resources)
}

func TestEmbeddedSourceMissingTopic(t *testing.T) {
	src, err := NewEmbeddedSource()
	require.NoError(t, err)

	_, err = src.Questions(context.Background(), "computer-vision")
	var unavailable *failure.DataUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "questions", unavailable.Dataset)

	_, err = src.Resources(context.Background(), "astrology")
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "resources", unavailable.Dataset)
}

func TestParseQuestionBanksRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"three options", `{"nlp":{"questions":[{"question":"q","options":["A. a","B. b","C. c"],"correct":"A"}]}}`},
		{"bad letter", `{"nlp":{"questions":[{"question":"q","options":["A. a","B. b","C. c","D. d"],"correct":"E"}]}}`},
		{"missing correct", `{"nlp":{"questions":[{"question":"q","options":["A. a","B. b","C. c","D. d"]}]}}`},
		{"not json", `{"nlp":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQuestionBanks([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestEmptyBankIsUnavailable(t *testing.T) {
	banks, err := ParseQuestionBanks([]byte(`{"nlp":{"questions":[]}}`))
	require.NoError(t, err)

	_, err = banks.For("nlp")
	var unavailable *failure.DataUnavailableError
	assert.ErrorAs(t, err, &unavailable)
}

func TestPick(t *testing.T) {
	src, err := NewEmbeddedSource()
	require.NoError(t, err)
	qs, err := src.Questions(context.Background(), "nlp")
	require.NoError(t, err)

	rng := testRand()
	for range 50 {
		picked := Pick(qs, 5, rng)
		require.Len(t, picked, 5)
		seen := map[string]bool{}
		for _, q := range picked {
			assert.False(t, seen[q.Text], "duplicate question %q", q.Text)
			seen[q.Text] = true
		}
	}

	// Fewer questions than requested returns all of them.
	assert.Len(t, Pick(qs[:3], 5, rng), 3)
	// Input order is untouched.
	again, _ := src.Questions(context.Background(), "nlp")
	assert.Equal(t, again, qs)
}

func TestShuffleIsPermutation(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}
	Shuffle(items, testRand())
	sum := 0
	for _, v := range items {
		sum += v
	}
	assert.Equal(t, 36, sum)
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, items)
}

type countingFetcher struct {
	calls map[string]int
	docs  map[string][]byte
	err   error
}

func (f *countingFetcher) FetchStatic(_ context.Context, path string) ([]byte, error) {
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[path]++
	if f.err != nil {
		return nil, f.err
	}
	return f.docs[path], nil
}

func TestHTTPSourceCachesDocuments(t *testing.T) {
	f := &countingFetcher{docs: map[string][]byte{
		QuestionsPath: QuestionsDocument(),
		ResourcesPath: ResourcesDocument(),
	}}
	src := NewHTTPSource(f)
	ctx := context.Background()

	for range 3 {
		_, err := src.Questions(ctx, "machine-learning")
		require.NoError(t, err)
		_, err = src.Resources(ctx, "nlp")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, f.calls[QuestionsPath])
	assert.Equal(t, 1, f.calls[ResourcesPath])
}

func TestHTTPSourceDoesNotCacheFailures(t *testing.T) {
	f := &countingFetcher{err: &failure.NetworkError{Op: "GET " + QuestionsPath, Err: errors.New("refused")}}
	src := NewHTTPSource(f)

	_, err := src.Questions(context.Background(), "nlp")
	require.Error(t, err)

	f.err = nil
	f.docs = map[string][]byte{QuestionsPath: QuestionsDocument()}
	qs, err := src.Questions(context.Background(), "nlp")
	require.NoError(t, err)
	assert.NotEmpty(t, qs)
	assert.Equal(t, 2, f.calls[QuestionsPath])
}

func TestFallbackSource(t *testing.T) {
	embedded, err := NewEmbeddedSource()
	require.NoError(t, err)

	down := NewHTTPSource(&countingFetcher{err: &failure.NetworkError{Op: "GET", Err: errors.New("refused")}})
	src := &FallbackSource{Primary: down, Secondary: embedded}

	qs, err := src.Questions(context.Background(), "nlp")
	require.NoError(t, err)
	assert.Len(t, qs, 10)

	// A topic the server has no data for is not retried against the built-in copy.
	up := NewHTTPSource(&countingFetcher{docs: map[string][]byte{
		QuestionsPath: []byte(`{"nlp":{"questions":[]}}`),
	}})
	src = &FallbackSource{Primary: up, Secondary: embedded}
	_, err = src.Questions(context.Background(), "nlp")
	var unavailable *failure.DataUnavailableError
	assert.ErrorAs(t, err, &unavailable)
}
