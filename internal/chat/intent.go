package chat

import "strings"

// Intent is what a chat message asks for.
type Intent int

const (
	IntentChat Intent = iota
	IntentQuiz
	IntentResources
)

var (
	quizKeywords     = []string{"quiz", "test", "assessment"}
	resourceKeywords = []string{"resource", "link", "learn more"}
)

// DetectIntent classifies text by keyword. Quiz keywords win over resource
// keywords.
func DetectIntent(text string) Intent {
	lower := strings.ToLower(text)
	for _, k := range quizKeywords {
		if strings.Contains(lower, k) {
			return IntentQuiz
		}
	}
	for _, k := range resourceKeywords {
		if strings.Contains(lower, k) {
			return IntentResources
		}
	}
	return IntentChat
}
