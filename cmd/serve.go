package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutorchat/internal/devserver"
	"github.com/abhisek/tutorchat/internal/llm"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tutoring backend",
	Long: `Run the backend the terminal client talks to.

The LLM provider comes from TUTORCHAT_LLM_PROVIDER and its TUTORCHAT_* keys,
or else from the first of TOGETHER_API_KEY, GEMINI_API_KEY, OPENAI_API_KEY
and ANTHROPIC_API_KEY that is set. Without one the tutor runs offline and
answers from the topic catalog.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := log.New(os.Stderr, "", log.LstdFlags)

		cfg := devserver.ConfigFromEnv()
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Addr = addr
		}
		if secure, _ := cmd.Flags().GetBool("secure-cookies"); secure {
			cfg.SecureCookies = true
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var provider llm.Provider
		if llmCfg, ok := llmConfig(); ok {
			provider, err = llm.NewProvider(ctx, llmCfg, st.EventRepo(), logger)
			if err != nil {
				return fmt.Errorf("LLM provider: %w", err)
			}
			logger.Printf("using %s for tutor replies", llmCfg.Provider)
		} else {
			logger.Printf("no LLM provider configured; tutor runs offline")
		}

		srv, err := devserver.New(cfg, st, devserver.NewTutor(provider, logger), logger)
		if err != nil {
			return err
		}
		return srv.ListenAndServe(ctx)
	},
}

// llmConfig prefers an explicit TUTORCHAT_LLM_PROVIDER and falls back to
// probing the providers' own key variables.
func llmConfig() (llm.Config, bool) {
	if os.Getenv("TUTORCHAT_LLM_PROVIDER") != "" {
		return llm.ConfigFromEnv(), true
	}
	return llm.DiscoverConfig()
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides TUTORCHAT_ADDR, default :8000)")
	serveCmd.Flags().Bool("secure-cookies", false, "Mark the session cookie Secure (HTTPS deployments)")
}
