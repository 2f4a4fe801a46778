package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutorchat/internal/api"
	"github.com/abhisek/tutorchat/internal/chat"
	"github.com/abhisek/tutorchat/internal/markup"
	"github.com/abhisek/tutorchat/internal/topic"
)

var errNoSession = errors.New("not logged in; run tutorchat to log in first")

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved chats",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := sessionClient(cmd)
		if err != nil {
			return err
		}
		chats, err := client.History(cmd.Context())
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		printHistory(cmd.OutOrStdout(), chats)
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the transcript of a saved chat",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := sessionClient(cmd)
		if err != nil {
			return err
		}
		rec, err := client.GetChat(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("load chat: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n", topic.Name(rec.Topic))
		printTranscript(cmd.OutOrStdout(), rec.Messages)
		return nil
	},
}

// sessionClient returns a client for the stored session, checking with
// the backend that it is still live.
func sessionClient(cmd *cobra.Command) (*api.Client, error) {
	cfg, err := clientConfig(cmd)
	if err != nil {
		return nil, err
	}
	client, err := api.New(cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	u, err := client.CheckSession(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("check session: %w", err)
	}
	if u == nil {
		return nil, errNoSession
	}
	return client, nil
}

func printHistory(w io.Writer, chats []api.SavedChat) {
	if len(chats) == 0 {
		fmt.Fprintln(w, "No chat history yet.")
		return
	}

	fmt.Fprintf(w, "%-36s  %-28s  %-17s  %5s  %s\n", "ID", "Topic", "Saved", "Msgs", "Preview")
	fmt.Fprintln(w, strings.Repeat("\u2500", 110))
	for _, c := range chats {
		saved := c.Timestamp
		if t := c.Time(); !t.IsZero() {
			saved = t.Format("Jan 02 2006 15:04")
		}
		fmt.Fprintf(w, "%-36s  %-28s  %-17s  %5d  %s\n",
			truncate(c.ID, 36), truncate(topic.Name(c.Topic), 28), saved, len(c.Messages), c.Preview)
	}
}

func printTranscript(w io.Writer, msgs []api.WireMessage) {
	for _, m := range msgs {
		label := "Tutor"
		if chat.ParseSender(m.Sender) == chat.SenderUser {
			label = "You"
		}
		fmt.Fprintf(w, "%s:\n%s\n\n", label, indent(markup.Render(m.Content, markup.PlainLink)))
	}
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = "  " + l
		}
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func init() {
	historyCmd.AddCommand(historyShowCmd)
}
