package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/storyline/internal/logging"
	"github.com/aretw0/storyline/internal/presentation/graph"
	"github.com/aretw0/storyline/internal/runtime"
	"github.com/aretw0/storyline/pkg/domain"
	"github.com/aretw0/storyline/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// StoryURI is the resource holding the inspected story.
const StoryURI = "storyline://story"

// PassageSummary is one entry of list_passages.
type PassageSummary struct {
	Name     string   `json:"name" jsonschema_description:"Passage name"`
	Tags     []string `json:"tags,omitempty" jsonschema_description:"Passage tags"`
	Links    int      `json:"links" jsonschema_description:"Number of outgoing links"`
	Start    bool     `json:"start" jsonschema_description:"Whether this is the start passage"`
	Terminal bool     `json:"terminal" jsonschema_description:"Whether the passage offers no choice"`
}

// PassageList is the result of list_passages.
type PassageList struct {
	Title    string           `json:"title" jsonschema_description:"Story title"`
	Passages []PassageSummary `json:"passages" jsonschema_description:"Passages in source order"`
}

// RenderInput is the argument of render_passage.
type RenderInput struct {
	Name string `json:"name" jsonschema:"required" jsonschema_description:"Passage to render"`
}

// ProgressInput is the argument of get_progress. Reader ids are passed as
// strings because they may exceed the float64 integer range.
type ProgressInput struct {
	ReaderID string `json:"reader_id" jsonschema:"required" jsonschema_description:"Reader id (base 10)"`
}

// Server exposes read-only story inspection as an MCP server.
type Server struct {
	story     *domain.Story
	store     ports.ProgressStore
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a server over story. store may be nil, in which case
// get_progress reports an error.
func NewServer(story *domain.Story, store ports.ProgressStore, version string, opts ...Option) *Server {
	s := &Server{
		story:     story,
		store:     store,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("storyline-mcp", version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_passages",
		mcp.WithDescription("List every passage of the story in source order."),
		mcp.WithOutputSchema[PassageList](),
	), s.listPassages)

	s.mcpServer.AddTool(mcp.NewTool("render_passage",
		mcp.WithDescription("Render one passage as a reader would see it, with its links."),
		mcp.WithInputSchema[RenderInput](),
		mcp.WithOutputSchema[runtime.PassageView](),
	), s.renderPassage)

	s.mcpServer.AddTool(mcp.NewTool("get_progress",
		mcp.WithDescription("Get the stored passage of a reader."),
		mcp.WithInputSchema[ProgressInput](),
		mcp.WithOutputSchema[domain.ReaderProgress](),
	), s.getProgress)

	s.mcpServer.AddTool(mcp.NewTool("story_graph",
		mcp.WithDescription("Get the story as a Mermaid flowchart."),
	), s.storyGraph)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(StoryURI, "Inspected story",
		mcp.WithMIMEType("application/json"),
	), s.readStory)
}

func (s *Server) listPassages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out := PassageList{Title: s.story.Title()}
	for _, v := range runtime.Inspect(s.story) {
		out.Passages = append(out.Passages, PassageSummary{
			Name:     v.Name,
			Tags:     v.Tags,
			Links:    len(v.Links),
			Start:    v.Name == s.story.Start(),
			Terminal: len(v.Links) == 0,
		})
	}
	return mcp.NewToolResultStructuredOnly(out), nil
}

func (s *Server) renderPassage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input RenderInput
	if err := request.BindArguments(&input); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid render_passage arguments", err), nil
	}
	if input.Name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}
	view, err := runtime.InspectPassage(s.story, input.Name)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("render failed", err), nil
	}
	return mcp.NewToolResultStructuredOnly(view), nil
}

func (s *Server) getProgress(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.store == nil {
		return mcp.NewToolResultError("no progress store configured"), nil
	}
	var input ProgressInput
	if err := request.BindArguments(&input); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid get_progress arguments", err), nil
	}
	reader, err := domain.ParseReaderID(input.ReaderID)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("invalid reader_id", err), nil
	}

	passage, err := s.store.Get(ctx, reader)
	if errors.Is(err, domain.ErrProgressNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("reader %d has no progress", int64(reader))), nil
	}
	if err != nil {
		s.logger.Error("MCP get_progress failed", "reader_id", int64(reader), "err", err)
		return mcp.NewToolResultErrorFromErr("progress lookup failed", err), nil
	}
	return mcp.NewToolResultStructuredOnly(domain.ReaderProgress{ReaderID: reader, CurrentPassage: passage}), nil
}

func (s *Server) storyGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(graph.GenerateMermaid(s.story, nil)), nil
}

func (s *Server) readStory(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	payload, err := json.Marshal(map[string]any{
		"title":    s.story.Title(),
		"start":    s.story.Start(),
		"passages": runtime.Inspect(s.story),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode story: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      StoryURI,
			MIMEType: "application/json",
			Text:     string(payload),
		},
	}, nil
}
