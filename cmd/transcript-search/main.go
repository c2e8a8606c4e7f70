package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/aryannaik/transcript-search/internal/present"
	"github.com/aryannaik/transcript-search/internal/server"
	"github.com/aryannaik/transcript-search/internal/session"
	"github.com/aryannaik/transcript-search/internal/source"
)

var (
	version    = "dev"
	jsonOutput bool
)

type config struct {
	EpisodesSource string
	IndexSource    string
	EpisodesFeed   string
	Port           string
	RateLimit      float64
}

func loadConfig() config {
	_ = godotenv.Load()

	cfg := config{
		EpisodesSource: envOrDefault("EPISODES_SOURCE", "episodes.json"),
		IndexSource:    envOrDefault("INDEX_SOURCE", "search_index.json"),
		EpisodesFeed:   os.Getenv("EPISODES_FEED"),
		Port:           envOrDefault("PORT", "8990"),
		RateLimit:      server.DefaultRateLimit,
	}

	if v := os.Getenv("RATE_LIMIT"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil || rps <= 0 {
			log.Fatalf("RATE_LIMIT must be a positive number, got %q", v)
		}
		cfg.RateLimit = rps
	}

	return cfg
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	cfg := loadConfig()

	rootCmd := &cobra.Command{
		Use:   "transcript-search",
		Short: "Search podcast transcripts",
		Long: `transcript-search loads a precomputed index of transcript chunks and
episode metadata, then answers fuzzy phrase queries with timestamped
links back to each episode.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	rootCmd.PersistentFlags().StringVar(&cfg.EpisodesSource, "episodes", cfg.EpisodesSource, "Episode metadata JSON (path or URL)")
	rootCmd.PersistentFlags().StringVar(&cfg.IndexSource, "index", cfg.IndexSource, "Chunk index JSON (path or URL)")
	rootCmd.PersistentFlags().StringVar(&cfg.EpisodesFeed, "feed", cfg.EpisodesFeed, "Podcast RSS feed to read episode metadata from")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search page and JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg)
		},
	}
	serveCmd.Flags().StringVar(&cfg.Port, "port", cfg.Port, "HTTP port")
	serveCmd.Flags().Float64Var(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "API requests per second")

	rootCmd.AddCommand(
		serveCmd,
		&cobra.Command{
			Use:   "search <query>",
			Short: "Run one query and print the results",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSearch(cmd.Context(), cfg, strings.Join(args, " "), cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "repl",
			Short: "Search interactively, one query per line",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runREPL(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "episodes [pattern]",
			Short: "List episodes, optionally filtered by title",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runEpisodes(cmd.Context(), cfg, strings.Join(args, " "))
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version info",
			Run: func(cmd *cobra.Command, args []string) {
				if jsonOutput {
					printJSON(map[string]string{"version": version})
				} else {
					fmt.Printf("transcript-search %s\n", version)
				}
			},
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func openSession(ctx context.Context, cfg config) (*session.Session, error) {
	var opts []source.Option
	if cfg.EpisodesFeed != "" {
		opts = append(opts, source.WithFeed(cfg.EpisodesFeed))
	}
	client := source.NewClient(cfg.EpisodesSource, cfg.IndexSource, opts...)

	start := time.Now()
	sess, err := session.Open(ctx, client)
	if err != nil {
		return nil, err
	}
	log.Printf("Search ready in %s", time.Since(start).Round(time.Millisecond))
	return sess, nil
}

func runServe(ctx context.Context, cfg config) error {
	sess, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	srv := server.New(cfg.Port, sess, cfg.RateLimit)

	errc := make(chan error, 1)
	go func() {
		errc <- server.ListenAndServe(srv)
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Goodbye")
	return nil
}

func runSearch(ctx context.Context, cfg config, query string, out io.Writer) error {
	sess, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	page, err := sess.Query(ctx, query)
	if err != nil {
		return err
	}
	printPage(out, page)
	return nil
}

// runREPL treats every input line as an edit of the search box: lines that
// arrive within the quiet period replace each other and only the last one is
// searched. Every page is written to out before runREPL returns.
func runREPL(ctx context.Context, cfg config, in io.Reader, out io.Writer) error {
	sess, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	render := func(page present.Page, err error) {
		if err != nil {
			log.Printf("Search error: %v", err)
			return
		}
		printPage(out, page)
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		sess.Input(ctx, scanner.Text(), render)
	}
	sess.Flush()

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

func runEpisodes(ctx context.Context, cfg config, pattern string) error {
	sess, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	found := sess.Episodes(pattern)
	if jsonOutput {
		printJSON(found)
		return nil
	}
	for _, ep := range found {
		fmt.Printf("%-12s %s\n  %s\n", ep.ID, ep.Title, ep.URL)
	}
	return nil
}

func printPage(w io.Writer, page present.Page) {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.Encode(page)
		return
	}

	if !session.Searchable(page.Query) {
		return
	}
	if len(page.Records) == 0 {
		fmt.Fprintf(w, "No results for %q\n", page.Query)
		return
	}

	for _, r := range page.Records {
		fmt.Fprintf(w, "%s • Episode %s • %s\n", r.EpisodeTitle, r.EpisodeNumber, r.Timestamp)
		fmt.Fprintf(w, "  %s\n", r.Snippet)
		fmt.Fprintf(w, "  %s\n\n", r.JumpURL)
	}
	if notice := page.Notice(); notice != "" {
		fmt.Fprintln(w, notice)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
