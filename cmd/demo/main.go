// Command demo runs one analysis turn end to end against live services
// and prints the classified results. Point it at the mock-backend for a
// self-contained demonstration:
//
//	go run ./cmd/mock-backend &
//	go run ./cmd/demo
//
// Configuration via environment (a .env file is loaded when present):
//
//	DATENBLICK_BACKEND_URL - Chat Completions backend (default: http://localhost:9090)
//	DATENBLICK_SANDBOX_URL - sandbox service (default: http://localhost:9091)
//	DATENBLICK_MODEL       - model name (default: mock-model)
//	DEMO_QUERY             - the question to ask (default: describe the dataset)
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/datenblick/datenblick/pkg/api"
	"github.com/datenblick/datenblick/pkg/completion"
	"github.com/datenblick/datenblick/pkg/engine"
	"github.com/datenblick/datenblick/pkg/sandbox"
)

const demoCSV = `region,quarter,sales
north,Q1,1250
north,Q2,1430
south,Q1,980
south,Q2,1105
`

func main() {
	if err := run(); err != nil {
		slog.Error("demo failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Local .env is optional; absence is not an error.
	if err := godotenv.Load(); err == nil {
		fmt.Println("loaded configuration from .env")
	}

	backendURL := envOrDefault("DATENBLICK_BACKEND_URL", "http://localhost:9090")
	sandboxURL := envOrDefault("DATENBLICK_SANDBOX_URL", "http://localhost:9091")
	model := envOrDefault("DATENBLICK_MODEL", "mock-model")
	query := envOrDefault("DEMO_QUERY", "describe the dataset")

	fmt.Println("=== datenblick analysis demo ===")
	fmt.Printf("backend: %s\nsandbox: %s\nmodel:   %s\nquery:   %s\n\n", backendURL, sandboxURL, model, query)

	completionClient := completion.NewClient(backendURL, os.Getenv("DATENBLICK_API_KEY"), 0)
	defer completionClient.Close()

	sbClient := sandbox.NewClient(sandboxURL, os.Getenv("DATENBLICK_SANDBOX_API_KEY"), 0)
	defer sbClient.Close()

	eng, err := engine.New(completionClient, sandbox.NewStaticAcquirer(sbClient), engine.Config{
		DefaultModel: model,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	result, err := eng.Analyze(ctx, engine.AnalyzeParams{
		Query:       query,
		DatasetName: "sales.csv",
		Dataset:     strings.NewReader(demoCSV),
	})
	if err != nil {
		return err
	}

	printResult(result)
	return nil
}

func printResult(result *api.TurnResult) {
	fmt.Println("--- reply ---")
	fmt.Println(result.ReplyText)
	fmt.Println()

	if result.Notice != "" {
		fmt.Printf("notice: %s\n\n", result.Notice)
	}

	switch {
	case result.Artifacts == nil:
		fmt.Println("no artifacts (code was not executed or failed)")
	case len(result.Artifacts) == 0:
		fmt.Println("code ran but produced no artifacts")
	default:
		fmt.Printf("--- %d artifact(s) ---\n", len(result.Artifacts))
		for i, ca := range result.Artifacts {
			fmt.Printf("[%d] %s\n", i, ca.Category)
			switch ca.Category {
			case api.CategoryImage:
				img, err := ca.Artifact.ImageBytes()
				if err != nil {
					fmt.Printf("    invalid image data: %v\n", err)
					continue
				}
				fmt.Printf("    PNG, %d bytes\n", len(img))
			case api.CategoryTabular:
				t := ca.Artifact.Table
				fmt.Printf("    columns: %s\n", strings.Join(t.Columns, ", "))
				for _, row := range t.Rows {
					fmt.Printf("    %s\n", strings.Join(row, " | "))
				}
			case api.CategoryRaw:
				fmt.Printf("    %s\n", ca.Artifact.Text)
			default:
				fmt.Println("    (opaque display object)")
			}
		}
	}

	fmt.Println("\n=== demo complete ===")
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
