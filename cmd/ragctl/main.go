package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/viant/docrag/chunk"
	"github.com/viant/docrag/config"
	"github.com/viant/docrag/extract"
	"github.com/viant/docrag/internal/app"
)

const usage = `Usage: ragctl [--config=config.yaml] <command> [args]

Commands:
  ingest <file> [id]        ingest a text, markdown or PDF file (id defaults to the file name)
  ingest-dir <dir>          ingest every supported file of a directory
  delete <id>               remove a document
  query [-k N] [-json] [-sql] <text>
                            print the chunks most similar to text
  stats                     print document and chunk counts
  list                      print document identifiers
  history [-limit N]        print the change journal (sqlite storage)
`

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "config.yaml", "Path to YAML config file (defaults apply when it does not exist)")
	verbose := flag.Bool("verbose", false, "log engine activity to stderr")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := log.New(os.Stderr, "", log.LstdFlags)
	if !*verbose {
		logger = nil
	}
	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to open retrieval engine: %v", err)
	}
	runErr := run(ctx, a, args[0], args[1:])
	if err := a.Close(ctx); err != nil {
		log.Printf("close failed: %v", err)
	}
	if runErr != nil {
		log.Fatalf("%s: %v", args[0], runErr)
	}
}

func run(ctx context.Context, a *app.App, command string, args []string) error {
	engine := a.Engine
	switch command {
	case "ingest":
		if len(args) < 1 || len(args) > 2 {
			return fmt.Errorf("expected <file> [id]")
		}
		text, err := extract.File(args[0])
		if err != nil {
			return err
		}
		id := filepath.Base(args[0])
		if len(args) == 2 {
			id = args[1]
		}
		if err := engine.Ingest(ctx, id, text); err != nil {
			return err
		}
		fmt.Printf("ingested %s (%d chunks)\n", id, chunk.Count(text, a.Config.Chunker.Size))
	case "ingest-dir":
		if len(args) != 1 {
			return fmt.Errorf("expected <dir>")
		}
		count := 0
		err := extract.Dir(ctx, args[0], func(name, text string, err error) error {
			if err != nil {
				fmt.Fprintf(os.Stderr, "skipping %s: %v\n", name, err)
				return nil
			}
			if err := engine.Ingest(ctx, name, text); err != nil {
				fmt.Fprintf(os.Stderr, "skipping %s: %v\n", name, err)
				return nil
			}
			count++
			fmt.Printf("ingested %s\n", name)
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Printf("%d documents ingested\n", count)
	case "delete":
		if len(args) != 1 {
			return fmt.Errorf("expected <id>")
		}
		if err := engine.Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", args[0])
	case "query":
		fs := flag.NewFlagSet("query", flag.ExitOnError)
		k := fs.Int("k", a.Config.Query.TopK, "number of chunks to return")
		asJSON := fs.Bool("json", false, "print hits as JSON")
		inSQL := fs.Bool("sql", false, "rank the chunks mirrored in SQLite instead of the index")
		_ = fs.Parse(args)
		text := strings.Join(fs.Args(), " ")
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("expected <text>")
		}
		if *inSQL {
			matches, err := a.SearchSQL(ctx, text, *k)
			if err != nil {
				return err
			}
			if *asJSON {
				return printJSON(matches)
			}
			for i, m := range matches {
				fmt.Printf("%d. [%s #%d, %.4f]\n%s\n\n", i+1, m.DocumentID, m.Position, m.Score, m.Text)
			}
			return nil
		}
		hits, err := engine.Search(ctx, text, *k)
		if err != nil {
			return err
		}
		if *asJSON {
			return printJSON(hits)
		}
		for i, hit := range hits {
			fmt.Printf("%d. [%s #%d, %.4f]\n%s\n\n", i+1, hit.DocumentID, hit.Position, hit.Score, hit.Text)
		}
		if len(hits) == 0 {
			fmt.Println("no results")
		}
	case "stats":
		stats := engine.Stats()
		fmt.Printf("documents:   %d\nchunks:      %d\nindex ready: %v\npersisted:   %v\nrevision:    %d\nmetric:      %s\nmodel:       %s\n",
			stats.DocumentCount, stats.LiveChunkCount, stats.IndexReady, stats.Persisted, stats.Revision, engine.Metric(), engine.ModelInfo())
	case "list":
		for _, id := range engine.ListDocumentIDs() {
			fmt.Println(id)
		}
	case "history":
		fs := flag.NewFlagSet("history", flag.ExitOnError)
		limit := fs.Int("limit", 20, "number of entries to print")
		_ = fs.Parse(args)
		entries, err := a.History(ctx, *limit)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%6d  rev %-6d %-8s %-30s %s\n", e.Seq, e.Revision, e.Op, e.DocumentID, e.CreatedAt.Format(time.RFC3339))
		}
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
