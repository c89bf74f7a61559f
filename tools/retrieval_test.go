package tools

import (
	"context"
	"io"
	"log"
	"sort"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/viant/docrag/embedding"
	"github.com/viant/docrag/rag"
)

func newTestEngine(t *testing.T) *rag.Engine {
	t.Helper()
	ctx := context.Background()
	engine, err := rag.Open(ctx, embedding.NewHashing(64),
		rag.WithChunkSize(4),
		rag.WithLogger(log.New(io.Discard, "", 0)),
	)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	docs := map[string]string{
		"go":     "goroutines channels select statements and the go scheduler",
		"cook":   "flour butter sugar eggs whisk bake the cake",
		"garden": "tomatoes need sun water and compost every week",
	}
	for id, text := range docs {
		if err := engine.Ingest(ctx, id, text); err != nil {
			t.Fatalf("Ingest(%s) failed: %v", id, err)
		}
	}
	return engine
}

func TestSearchDocuments(t *testing.T) {
	r := NewRetrieval(newTestEngine(t), 2)
	testCases := []struct {
		description string
		input       SearchDocumentsInput
		expectLen   int
		expectErr   bool
	}{
		{description: "default k", input: SearchDocumentsInput{Query: "bake a cake"}, expectLen: 2},
		{description: "explicit k", input: SearchDocumentsInput{Query: "bake a cake", MaxResults: 1}, expectLen: 1},
		{description: "k above live chunks", input: SearchDocumentsInput{Query: "cake", MaxResults: 15}, expectLen: 6},
		{description: "empty query", input: SearchDocumentsInput{Query: "  "}, expectErr: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			_, out, err := r.SearchDocuments(context.Background(), nil, testCase.input)
			if testCase.expectErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("SearchDocuments failed: %v", err)
			}
			if len(out.Results) != testCase.expectLen {
				t.Fatalf("got %d results, want %d", len(out.Results), testCase.expectLen)
			}
		})
	}

	_, out, err := r.SearchDocuments(context.Background(), nil, SearchDocumentsInput{Query: "flour butter sugar eggs", MaxResults: 1})
	if err != nil {
		t.Fatalf("SearchDocuments failed: %v", err)
	}
	if out.Results[0].DocumentID != "cook" {
		t.Fatalf("top hit = %+v, want document cook", out.Results[0])
	}
}

func TestListDocumentsAndStats(t *testing.T) {
	r := NewRetrieval(newTestEngine(t), 0)
	_, list, err := r.ListDocuments(context.Background(), nil, ListDocumentsInput{})
	if err != nil {
		t.Fatalf("ListDocuments failed: %v", err)
	}
	if list.Count != 3 || !sort.StringsAreSorted(list.DocumentIDs) {
		t.Fatalf("ListDocuments = %+v", list)
	}
	_, stats, err := r.RetrievalStats(context.Background(), nil, RetrievalStatsInput{})
	if err != nil {
		t.Fatalf("RetrievalStats failed: %v", err)
	}
	if stats.DocumentCount != 3 || stats.LiveChunkCount != 6 || !stats.IndexReady || stats.Persisted || stats.Metric != "l2" || stats.Model != "hashing-64" {
		t.Fatalf("RetrievalStats = %+v", stats)
	}
}

func TestRegister_ServesTools(t *testing.T) {
	ctx := context.Background()
	server := mcp.NewServer(&mcp.Implementation{Name: "test-server", Version: "v0"}, nil)
	NewRetrieval(newTestEngine(t), 3).Register(server)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	if _, err := server.Connect(ctx, serverTransport, nil); err != nil {
		t.Fatalf("server Connect failed: %v", err)
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client Connect failed: %v", err)
	}
	defer session.Close()

	listed, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools failed: %v", err)
	}
	var names []string
	for _, tool := range listed.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	want := []string{"list_documents", "retrieval_stats", "search_documents"}
	if len(names) != len(want) {
		t.Fatalf("tools = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("tools = %v, want %v", names, want)
		}
	}

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "search_documents",
		Arguments: map[string]any{"query": "sun water compost", "max_results": 1},
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("CallTool returned tool error: %+v", result.Content)
	}
}
