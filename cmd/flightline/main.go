// Package main is the entry point for the Flightline CLI. Flightline is
// the Maharaja Assistant backend: an Air India conversational assistant
// with provider rotation, flight tools, and document retrieval.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/flightlinehq/flightline/internal/config"
	"github.com/flightlinehq/flightline/internal/flights"
	"github.com/flightlinehq/flightline/internal/language"
	"github.com/flightlinehq/flightline/internal/llm"
	"github.com/flightlinehq/flightline/internal/logging"
	"github.com/flightlinehq/flightline/internal/orchestrator"
	"github.com/flightlinehq/flightline/internal/retrieval"
	"github.com/flightlinehq/flightline/internal/server"
	"github.com/flightlinehq/flightline/internal/session"
	"github.com/flightlinehq/flightline/internal/tools"
	"github.com/flightlinehq/flightline/internal/tui"
)

var version = "0.1.0"

var cfgPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "flightline",
		Short: "Flightline - the Maharaja Assistant backend",
		Long: `Flightline serves the Maharaja Assistant, Air India's conversational
travel companion:
  • Gemini model and credential rotation with a Groq fallback pool
  • Flight search, flight status, and IATA lookup tools
  • Knowledge-base retrieval over the airline's policy documents
  • Multilingual replies with per-session language memory

Start the API server:    flightline serve
Chat in the terminal:    flightline chat
Index policy documents:  flightline ingest ./knowledge_base`,
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path (default flightline.yaml)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Flightline v%s\n", version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if cfgPath != "" {
		return config.LoadFromPath(cfgPath)
	}
	return config.Load()
}

// buildOrchestrator wires the assistant from configuration. The returned
// cleanup releases the session sweeper and the retrieval index.
func buildOrchestrator(cfg *config.Config, flightSvc *flights.Service) (*orchestrator.Orchestrator, *session.Store, *llm.Manager, func(), error) {
	manager, err := llm.BuildManager(cfg.ManagerSettings())
	if err != nil {
		return nil, nil, nil, nil, err
	}

	sessions := session.NewStore(
		session.WithTTL(cfg.SessionTTL()),
		session.WithSweepInterval(cfg.SessionSweepInterval()),
	)
	sessions.Start()

	log := logging.Component("main")

	var searcher retrieval.Searcher
	var index *retrieval.Store
	index, err = retrieval.Open(cfg.Retrieval.IndexPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.Retrieval.IndexPath).
			Msg("retrieval index unavailable, continuing without document context")
	} else {
		searcher = index
	}

	orch := orchestrator.New(orchestrator.Config{
		Invoker:     manager,
		Sessions:    sessions,
		Detector:    language.NewDetector(),
		Searcher:    searcher,
		Registry:    tools.DefaultRegistry(flightSvc),
		Temperature: cfg.LLM.Temperature,
	})

	cleanup := func() {
		sessions.Stop()
		if index != nil {
			index.Close()
		}
	}
	return orch, sessions, manager, cleanup, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logging.Setup(cfg.Logging.Level, cfg.Logging.Pretty)

			flightSvc := flights.NewService()
			orch, sessions, manager, cleanup, err := buildOrchestrator(cfg, flightSvc)
			if err != nil {
				return err
			}
			defer cleanup()

			srv := server.New(server.Config{
				Addr:     cfg.Server.Addr(),
				Chatter:  orch,
				Flights:  flightSvc,
				Sessions: sessions,
				Metrics:  manager.Metrics(),
			})

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case <-stop:
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			// The TUI owns the terminal; keep log output quiet.
			logging.Setup("error", false)

			orch, _, _, cleanup, err := buildOrchestrator(cfg, flights.NewService())
			if err != nil {
				return err
			}
			defer cleanup()

			return tui.Run(orch)
		},
	}
}

func ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest [dir]",
		Short: "Index knowledge-base documents for retrieval",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logging.Setup(cfg.Logging.Level, cfg.Logging.Pretty)

			dir := cfg.Retrieval.DocsDir
			if len(args) == 1 {
				dir = args[0]
			}

			index, err := retrieval.Open(cfg.Retrieval.IndexPath)
			if err != nil {
				return fmt.Errorf("open index: %w", err)
			}
			defer index.Close()

			count, err := index.IngestDir(cmd.Context(), dir)
			if err != nil {
				return err
			}
			fmt.Printf("Indexed %d passages from %s\n", count, dir)
			return nil
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Printf("server:    %s\n", cfg.Server.Addr())
			fmt.Printf("gemini:    %v\n", cfg.LLM.GeminiModels)
			fmt.Printf("groq:      %v\n", cfg.LLM.GroqModels)
			fmt.Printf("ttl:       %s\n", cfg.SessionTTL())
			fmt.Printf("index:     %s\n", cfg.Retrieval.IndexPath)
			fmt.Printf("docs:      %s\n", cfg.Retrieval.DocsDir)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default flightline.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgPath
			if path == "" {
				path = "flightline.yaml"
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := config.Save(config.Default(), path); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	})
	return cmd
}
