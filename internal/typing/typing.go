// Package typing produces the word-by-word reveal of assistant messages.
package typing

import (
	"context"
	"iter"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	// LeadIn is how long the typing indicator shows before the first word.
	LeadIn = 500 * time.Millisecond
	// WordDelay is the pause after each revealed word.
	WordDelay = 50 * time.Millisecond
)

var markdownLink = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

// Linkify converts markdown links to anchors.
func Linkify(text string) string {
	return markdownLink.ReplaceAllString(text, `<a href="$2" target="_blank" rel="noopener noreferrer">$1</a>`)
}

// Chunk is one step of a reveal.
type Chunk struct {
	Markup string        // everything revealed so far
	Delay  time.Duration // pause before the next chunk
}

// Chunks lazily splits markup into reveal steps. Each step ends on a word;
// tags and whitespace are folded into the following word so they never
// cost a pause and a tag is never shown half-written.
func Chunks(markup string) iter.Seq[Chunk] {
	return func(yield func(Chunk) bool) {
		var b strings.Builder
		pending := false
		rest := markup
		for rest != "" {
			tok, word := nextToken(rest)
			rest = rest[len(tok):]
			b.WriteString(tok)
			if !word {
				pending = true
				continue
			}
			pending = false
			if !yield(Chunk{Markup: b.String(), Delay: WordDelay}) {
				return
			}
		}
		if pending {
			yield(Chunk{Markup: b.String()})
		}
	}
}

// nextToken returns the leading token of s: a tag, a whitespace run, or a
// word. word reports whether it is a word.
func nextToken(s string) (tok string, word bool) {
	if s[0] == '<' {
		if end := strings.IndexByte(s, '>'); end >= 0 {
			return s[:end+1], false
		}
		return s, false
	}
	r, _ := utf8.DecodeRuneInString(s)
	if unicode.IsSpace(r) {
		end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) })
		if end < 0 {
			return s, false
		}
		return s[:end], false
	}
	end := strings.IndexFunc(s, func(r rune) bool { return unicode.IsSpace(r) || r == '<' })
	if end < 0 {
		return s, true
	}
	return s[:end], true
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the real-time Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NoDelay is a Sleeper that never waits.
func NoDelay(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// Reveal plays markup through render: the lead-in pause, then each chunk
// followed by its delay.
func Reveal(ctx context.Context, markup string, sleep Sleeper, render func(string)) error {
	if err := sleep(ctx, LeadIn); err != nil {
		return err
	}
	for c := range Chunks(markup) {
		render(c.Markup)
		if c.Delay > 0 {
			if err := sleep(ctx, c.Delay); err != nil {
				return err
			}
		}
	}
	return nil
}
