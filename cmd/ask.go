package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutorchat/internal/chat"
	"github.com/abhisek/tutorchat/internal/failure"
	"github.com/abhisek/tutorchat/internal/markup"
	"github.com/abhisek/tutorchat/internal/topic"
	"github.com/abhisek/tutorchat/internal/typing"
)

var askCmd = &cobra.Command{
	Use:   "ask <topic> [question...]",
	Short: "Ask the tutor one question without opening the TUI",
	Long: `Open a chat on <topic>, ask one question and print the reply. Without a
question the topic introduction is printed. The exchange is saved to your
history like any other chat.

Topics: ` + strings.Join(topicIDs(), ", "),
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := topic.Get(args[0]); err != nil {
			return err
		}

		mgr, err := newManager(cmd, log.New(io.Discard, "", 0))
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if _, err := mgr.Restore(ctx); err != nil {
			return fmt.Errorf("check session: %w", err)
		}
		if _, ok := mgr.Snapshot(); !ok {
			return errNoSession
		}

		events, err := mgr.OpenTopic(ctx, args[0])
		if err != nil {
			return fmt.Errorf("open topic: %s", failure.Notice(err))
		}

		sleep := typing.NoDelay
		if animate, _ := cmd.Flags().GetBool("typing"); animate {
			sleep = typing.Sleep
		}

		question := strings.TrimSpace(strings.Join(args[1:], " "))
		if question != "" {
			var sendErr error
			events, sendErr = mgr.SendMessage(ctx, question)
			if sendErr != nil {
				defer fmt.Fprintln(cmd.ErrOrStderr(), failure.Notice(sendErr))
			}
		}
		if err := printReplies(ctx, out, events, sleep); err != nil {
			return err
		}
		if snap, ok := mgr.Snapshot(); ok {
			printQuizHint(out, snap)
		}

		if _, err := mgr.SaveAndReset(ctx); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), failure.Notice(err))
		}
		return nil
	},
}

func init() {
	askCmd.Flags().Bool("typing", false, "Reveal replies word by word")
}

// printQuizHint points at the TUI when the exchange left a quiz open. The
// quiz state is saved with the chat.
func printQuizHint(w io.Writer, snap chat.Snapshot) {
	if snap.Phase != chat.PhaseQuizActive || snap.Quiz == nil {
		return
	}
	fmt.Fprintf(w, "(Quiz in progress, %d of %d answered. Open this chat from History in the TUI to continue.)\n",
		snap.Quiz.AnsweredQuestions, snap.Quiz.Total())
}

// printReplies writes the assistant messages among events, revealed at
// the pace sleep allows.
func printReplies(ctx context.Context, w io.Writer, events []chat.Event, sleep typing.Sleeper) error {
	for _, e := range events {
		switch {
		case e.Kind == chat.MessageAppended && e.Message.Sender == chat.SenderAssistant:
			if err := streamReply(ctx, w, e.Message.Content, sleep); err != nil {
				return err
			}
		case e.Kind == chat.Notice && e.Notice != "":
			fmt.Fprintf(w, "(%s)\n", e.Notice)
		}
	}
	return nil
}

// streamReply prints content as it is revealed. Frames that end inside an
// anchor are held back so links print whole.
func streamReply(ctx context.Context, w io.Writer, content string, sleep typing.Sleeper) error {
	printed := ""
	emit := func(cur string) {
		if len(cur) > len(printed) && strings.HasPrefix(cur, printed) {
			io.WriteString(w, cur[len(printed):])
			printed = cur
		}
	}
	err := typing.Reveal(ctx, content, sleep, func(partial string) {
		if !openAnchor(partial) {
			emit(markup.Render(partial, markup.PlainLink))
		}
	})
	if err != nil {
		return err
	}
	full := markup.Render(content, markup.PlainLink)
	if !strings.HasPrefix(full, printed) {
		// Rendering of a prefix diverged; start over on a fresh line.
		io.WriteString(w, "\n")
		printed = ""
	}
	emit(full)
	_, err = io.WriteString(w, "\n\n")
	return err
}

func openAnchor(m string) bool {
	lower := strings.ToLower(m)
	return strings.LastIndex(lower, "<a ") > strings.LastIndex(lower, "</a>")
}

func topicIDs() []string {
	var ids []string
	for _, t := range topic.All() {
		ids = append(ids, t.ID)
	}
	return ids
}
