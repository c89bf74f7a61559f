package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/viant/docrag/config"
	"github.com/viant/docrag/internal/app"
	"github.com/viant/docrag/tools"
)

const (
	version    = "0.1.0"
	serverName = "docrag-mcp-server"
)

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "config.yaml", "Path to YAML config file (defaults apply when it does not exist)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()
	if *showVersion {
		fmt.Printf("%s version %s\n", serverName, version)
		return
	}

	// MCP uses stdout for protocol
	log.SetOutput(os.Stderr)
	log.Printf("%s v%s starting...", serverName, version)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log.Default())
	if err != nil {
		log.Fatalf("Failed to open retrieval engine: %v", err)
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			log.Printf("Error closing retrieval engine: %v", err)
		}
	}()

	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil)
	tools.NewRetrieval(a.Engine, cfg.Query.TopK).Register(server)
	log.Printf("Server ready: %d documents, model %s", a.Engine.Stats().DocumentCount, a.Engine.ModelInfo())

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		log.Printf("Server error: %v", err)
	}
}
