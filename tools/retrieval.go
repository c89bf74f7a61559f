// Package tools exposes the retrieval engine as MCP tools.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/viant/docrag/rag"
)

const maxResults = 20

// SearchDocumentsInput defines input for search_documents tool
type SearchDocumentsInput struct {
	Query      string `json:"query" jsonschema:"Text to find relevant document chunks for"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum number of chunks (optional, defaults to 3)"`
}

// SearchDocumentsOutput defines output for search_documents tool
type SearchDocumentsOutput struct {
	Query   string    `json:"query"`
	Results []rag.Hit `json:"results"`
}

// ListDocumentsInput defines input for list_documents tool
type ListDocumentsInput struct{}

// ListDocumentsOutput defines output for list_documents tool
type ListDocumentsOutput struct {
	DocumentIDs []string `json:"document_ids"`
	Count       int      `json:"count"`
}

// RetrievalStatsInput defines input for retrieval_stats tool
type RetrievalStatsInput struct{}

// RetrievalStatsOutput defines output for retrieval_stats tool
type RetrievalStatsOutput struct {
	DocumentCount  int    `json:"document_count"`
	LiveChunkCount int    `json:"live_chunk_count"`
	IndexReady     bool   `json:"index_ready"`
	Revision       int64  `json:"revision"`
	Persisted      bool   `json:"persisted"`
	Metric         string `json:"metric"`
	Model          string `json:"model"`
}

// Retrieval serves the retrieval tools from one engine.
type Retrieval struct {
	engine *rag.Engine
	topK   int
}

// NewRetrieval creates the tool handlers; topK <= 0 falls back to
// rag.DefaultTopK.
func NewRetrieval(engine *rag.Engine, topK int) *Retrieval {
	if topK <= 0 {
		topK = rag.DefaultTopK
	}
	return &Retrieval{engine: engine, topK: topK}
}

// SearchDocuments returns the chunks nearest to the query.
func (r *Retrieval) SearchDocuments(ctx context.Context, req *mcp.CallToolRequest, input SearchDocumentsInput) (*mcp.CallToolResult, SearchDocumentsOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, SearchDocumentsOutput{}, errors.New("query is required")
	}
	k := input.MaxResults
	if k <= 0 {
		k = r.topK
	}
	if k > maxResults {
		k = maxResults
	}
	hits, err := r.engine.Search(ctx, query, k)
	if err != nil {
		return nil, SearchDocumentsOutput{}, fmt.Errorf("search failed: %w", err)
	}
	if hits == nil {
		hits = []rag.Hit{}
	}
	return nil, SearchDocumentsOutput{Query: query, Results: hits}, nil
}

// ListDocuments returns the indexed document identifiers.
func (r *Retrieval) ListDocuments(ctx context.Context, req *mcp.CallToolRequest, input ListDocumentsInput) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	ids := r.engine.ListDocumentIDs()
	if ids == nil {
		ids = []string{}
	}
	return nil, ListDocumentsOutput{DocumentIDs: ids, Count: len(ids)}, nil
}

// RetrievalStats reports engine counters.
func (r *Retrieval) RetrievalStats(ctx context.Context, req *mcp.CallToolRequest, input RetrievalStatsInput) (*mcp.CallToolResult, RetrievalStatsOutput, error) {
	stats := r.engine.Stats()
	return nil, RetrievalStatsOutput{
		DocumentCount:  stats.DocumentCount,
		LiveChunkCount: stats.LiveChunkCount,
		IndexReady:     stats.IndexReady,
		Revision:       stats.Revision,
		Persisted:      stats.Persisted,
		Metric:         string(r.engine.Metric()),
		Model:          r.engine.ModelInfo(),
	}, nil
}

// Register adds the retrieval tools to server.
func (r *Retrieval) Register(server *mcp.Server) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "search_documents",
			Description: "Semantic search over the ingested documents. Returns the most similar chunks, best first.",
		},
		r.SearchDocuments,
	)
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "list_documents",
			Description: "List the identifiers of all ingested documents",
		},
		r.ListDocuments,
	)
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "retrieval_stats",
			Description: "Report document and chunk counts, index readiness and the embedding model",
		},
		r.RetrievalStats,
	)
	log.Printf("Retrieval tools registered: 3")
}
