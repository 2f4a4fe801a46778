// Package topic holds the fixed catalog of subjects the tutor can discuss.
package topic

import (
	"errors"
	"fmt"
)

// ErrUnknown is returned for an ID outside the catalog.
var ErrUnknown = errors.New("unknown topic")

// Topic is one entry of the catalog.
type Topic struct {
	ID          string
	Name        string
	Description string
	Subtopics   []string
}

var catalog = []Topic{
	{
		ID:          "machine-learning",
		Name:        "Machine Learning",
		Description: "Machine Learning is a subset of artificial intelligence that focuses on developing systems that can learn from and make decisions based on data.",
		Subtopics:   []string{"Supervised Learning", "Unsupervised Learning", "Reinforcement Learning"},
	},
	{
		ID:          "neural-networks",
		Name:        "Neural Networks",
		Description: "Neural Networks are computing systems inspired by the biological neural networks that constitute animal brains.",
		Subtopics:   []string{"Perceptrons", "Deep Learning", "Backpropagation"},
	},
	{
		ID:          "nlp",
		Name:        "Natural Language Processing",
		Description: "NLP is a branch of AI that helps computers understand, interpret and manipulate human language.",
		Subtopics:   []string{"Text Classification", "Language Models", "Sentiment Analysis"},
	},
	{
		ID:          "computer-vision",
		Name:        "Computer Vision",
		Description: "Computer Vision is a field of AI that trains computers to interpret and understand the visual world.",
		Subtopics:   []string{"Image Classification", "Object Detection", "Image Segmentation"},
	},
	{
		ID:          "reinforcement-learning",
		Name:        "Reinforcement Learning",
		Description: "Reinforcement Learning is an area of machine learning concerned with how software agents ought to take actions in an environment.",
		Subtopics:   []string{"Q-Learning", "Deep Q Networks", "Policy Gradients"},
	},
	{
		ID:          "ethics",
		Name:        "AI Ethics",
		Description: "AI Ethics explores the moral implications of artificial intelligence and its impact on society.",
		Subtopics:   []string{"Bias in AI", "Privacy Concerns", "AI Governance"},
	},
	{
		ID:          "applications",
		Name:        "AI Applications",
		Description: "AI Applications covers real-world implementations of artificial intelligence across various industries.",
		Subtopics:   []string{"Healthcare AI", "Financial AI", "Autonomous Systems"},
	},
}

var byID = func() map[string]int {
	m := make(map[string]int, len(catalog))
	for i, t := range catalog {
		m[t.ID] = i
	}
	return m
}()

// All returns the catalog in display order.
func All() []Topic {
	out := make([]Topic, len(catalog))
	for i, t := range catalog {
		t.Subtopics = append([]string(nil), t.Subtopics...)
		out[i] = t
	}
	return out
}

// Get looks up a topic by ID.
func Get(id string) (Topic, error) {
	i, ok := byID[id]
	if !ok {
		return Topic{}, fmt.Errorf("%w: %q", ErrUnknown, id)
	}
	t := catalog[i]
	t.Subtopics = append([]string(nil), t.Subtopics...)
	return t, nil
}

// Name returns the display name for id, or id itself when it is not in the
// catalog. Saved chats may carry topics this build does not know.
func Name(id string) string {
	if i, ok := byID[id]; ok {
		return catalog[i].Name
	}
	return id
}
