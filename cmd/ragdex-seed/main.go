package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/kailas-cloud/ragdex/internal/version"
	ragdex "github.com/kailas-cloud/ragdex/pkg/sdk"
)

func main() {
	// .env is optional; flags and real environment variables win.
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "ragdex-seed",
		Usage:   "Index local text files into ragdex and query them",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "redis-addr",
				Usage:   "Redis address",
				Value:   "localhost:6379",
				EnvVars: []string{"REDIS_ADDR"},
			},
			&cli.StringFlag{
				Name:    "redis-username",
				Usage:   "Redis ACL user",
				EnvVars: []string{"REDIS_USERNAME"},
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password",
				EnvVars: []string{"REDIS_PASSWORD"},
			},
			&cli.StringFlag{
				Name:  "index",
				Usage: "Document index name",
				Value: "documents",
			},
			&cli.StringFlag{
				Name:  "key-prefix",
				Usage: "Redis key prefix",
				Value: "ragdex:",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
			&cli.StringFlag{
				Name:    "openai-api-key",
				Usage:   "OpenAI API key (required by ask)",
				EnvVars: []string{"OPENAI_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "openai-organization",
				Usage:   "OpenAI organization id",
				EnvVars: []string{"OPENAI_ORGANIZATION"},
			},
			&cli.StringFlag{
				Name:    "openai-base-url",
				Usage:   "OpenAI-compatible API base URL",
				EnvVars: []string{"OPENAI_BASE_URL"},
			},
			&cli.StringFlag{
				Name:  "chat-model",
				Usage: "Chat completion model",
				Value: "gpt-3.5-turbo",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "index",
				Usage:     "Index every matching file under the given paths",
				ArgsUsage: "PATH...",
				Action:    indexCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "lines",
						Usage: "Index each non-empty line as its own document",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of files indexed concurrently",
						Value: 4,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Documents per pipelined write in --lines mode",
						Value: 100,
					},
					&cli.StringSliceFlag{
						Name:  "ext",
						Usage: "File extensions to index",
						Value: cli.NewStringSlice(".txt", ".md"),
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Print the top ranked documents for a query",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of documents to return",
						Value: 5,
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Answer a question from the indexed documents",
				ArgsUsage: "QUERY",
				Action:    askCommand,
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.String("log-level"))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.String("log-level"), err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// newClient connects the SDK using the global flags. Generation is enabled
// only when an API key is present.
func newClient(ctx context.Context, c *cli.Context) (*ragdex.Client, error) {
	opts := []ragdex.Option{
		ragdex.WithRedis(c.String("redis-addr"), c.String("redis-password")),
		ragdex.WithUsername(c.String("redis-username")),
		ragdex.WithIndex(c.String("index")),
		ragdex.WithKeyPrefix(c.String("key-prefix")),
		ragdex.WithLogger(slog.Default()),
	}
	if key := c.String("openai-api-key"); key != "" {
		opts = append(opts, ragdex.WithOpenAI(ragdex.OpenAIConfig{
			APIKey:       key,
			Organization: c.String("openai-organization"),
			BaseURL:      c.String("openai-base-url"),
			Model:        c.String("chat-model"),
		}))
	}
	client, err := ragdex.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return client, nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if query == "" {
		return cli.Exit("search: QUERY is required", 1)
	}

	ctx := c.Context
	client, err := newClient(ctx, c)
	if err != nil {
		return err
	}
	defer client.Close()

	hits, err := client.Search(ctx, query, c.Int("top-k"))
	if err != nil {
		return err
	}
	out := c.App.Writer
	for i, h := range hits {
		fmt.Fprintf(out, "%d\t%.4f\t%s\t%s\n", i+1, h.Score, h.ID, preview(h.Text, 80))
	}
	return nil
}

func askCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if query == "" {
		return cli.Exit("ask: QUERY is required", 1)
	}
	if c.String("openai-api-key") == "" {
		return cli.Exit("ask: --openai-api-key or OPENAI_API_KEY is required", 1)
	}

	ctx := c.Context
	client, err := newClient(ctx, c)
	if err != nil {
		return err
	}
	defer client.Close()

	answer, err := client.Answer(ctx, query)
	if err != nil {
		return err
	}
	out := c.App.Writer
	fmt.Fprintln(out, answer.Text)
	fmt.Fprintf(out, "\nretrieved: %s\n", strings.Join(answer.RetrievedIDs, ", "))
	return nil
}

// preview returns the first n runes of s on a single line.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
