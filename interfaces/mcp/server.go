// Package mcp exposes the chart service as Model Context Protocol tools.
// It wraps github.com/felixgeelhaar/mcp-go.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	mcpgo "github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/chartforge/interfaces/api"
)

// Tool names.
const (
	ToolListDatasets    = "list_datasets"
	ToolDescribeDataset = "describe_dataset"
	ToolCompileChart    = "compile_chart"
	ToolComposeCharts   = "compose_charts"
	ToolExportChart     = "export_chart"
	ToolPublishChart    = "publish_chart"
)

// ErrUnknownTool is returned when calling a tool that is not registered.
var ErrUnknownTool = errors.New("unknown tool")

// handler runs one tool on raw JSON input and returns its JSON output.
type handler func(ctx context.Context, input json.RawMessage) (string, error)

// Config configures the MCP server.
type Config struct {
	// Name is the server name (default: chartforge).
	Name string

	// Version is the server version.
	Version string

	// Instructions provides usage instructions for clients.
	Instructions string
}

// Server serves chart tools over MCP.
type Server struct {
	srv   *mcpgo.Server
	svc   *api.Service
	tools map[string]handler
}

// New creates a server exposing svc. Publishing is only offered when the
// service has an artifact store.
func New(svc *api.Service, cfg Config) *Server {
	if cfg.Name == "" {
		cfg.Name = "chartforge"
	}

	info := mcpgo.ServerInfo{
		Name:        cfg.Name,
		Version:     cfg.Version,
		Description: "Compile, compose and export charts from configured datasets",
		Capabilities: mcpgo.Capabilities{
			Tools: true,
		},
	}

	var opts []mcpgo.Option
	if cfg.Instructions != "" {
		opts = append(opts, mcpgo.WithInstructions(cfg.Instructions))
	}

	s := &Server{
		srv:   mcpgo.NewServer(info, opts...),
		svc:   svc,
		tools: make(map[string]handler),
	}

	s.register(ToolListDatasets, "List the configured datasets", s.listDatasets)
	s.register(ToolDescribeDataset, `Summarise the columns of a dataset. Input: {"dataset": "<name>"}`, s.describeDataset)
	s.register(ToolCompileChart, "Compile a chart request document into a chart specification", s.compileChart)
	s.register(ToolComposeCharts, "Compose up to four charts of one dataset into a subplot grid", s.composeCharts)
	s.register(ToolExportChart, "Export a chart request document as an image; data is base64 encoded", s.exportChart)
	if svc.PublishingEnabled() {
		s.register(ToolPublishChart, "Export a chart request document and store it as an artifact", s.publishChart)
	}

	return s
}

func (s *Server) register(name, description string, h handler) {
	s.tools[name] = h
	s.srv.Tool(name).
		Description(description).
		Handler(func(ctx context.Context, input json.RawMessage) (string, error) {
			return h(ctx, input)
		})
}

// Tools returns the registered tool names in order.
func (s *Server) Tools() []string {
	names := make([]string, 0, len(s.tools))
	for name := range s.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call runs a tool directly.
func (s *Server) Call(ctx context.Context, name string, input json.RawMessage) (string, error) {
	h, ok := s.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return h(ctx, input)
}

// MCP returns the underlying mcp-go server.
func (s *Server) MCP() *mcpgo.Server {
	return s.srv
}

// ServeStdio runs the server over stdin/stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcpgo.ServeStdio(ctx, s.srv)
}

// ServeHTTP runs the server over HTTP with SSE.
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcpgo.ServeHTTP(ctx, s.srv, addr)
}

func (s *Server) listDatasets(_ context.Context, _ json.RawMessage) (string, error) {
	return encode(s.svc.Datasets())
}

type describeInput struct {
	Dataset string `json:"dataset"`
}

func (s *Server) describeDataset(ctx context.Context, input json.RawMessage) (string, error) {
	var in describeInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("%w: %w", api.ErrInvalidDocument, err)
	}
	summary, err := s.svc.Describe(ctx, in.Dataset)
	if err != nil {
		return "", err
	}
	return encode(summary)
}

func (s *Server) compileChart(ctx context.Context, input json.RawMessage) (string, error) {
	doc, err := decode(input)
	if err != nil {
		return "", err
	}
	spec, err := s.svc.Compile(ctx, doc)
	if err != nil {
		return "", err
	}
	return encode(spec)
}

func (s *Server) composeCharts(ctx context.Context, input json.RawMessage) (string, error) {
	doc, err := decode(input)
	if err != nil {
		return "", err
	}
	composite, err := s.svc.Compose(ctx, doc)
	if err != nil {
		return "", err
	}
	return encode(composite)
}

// ExportResult is the output of the export tool. Data is empty when the
// chart has no data.
type ExportResult struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Bytes       int    `json:"bytes"`
	Data        []byte `json:"data,omitempty"`
}

func (s *Server) exportChart(ctx context.Context, input json.RawMessage) (string, error) {
	doc, err := decode(input)
	if err != nil {
		return "", err
	}
	rendered, err := s.svc.Export(ctx, doc)
	if err != nil {
		return "", err
	}
	return encode(ExportResult{
		FileName:    rendered.FileName,
		ContentType: rendered.ContentType(),
		Bytes:       len(rendered.Data),
		Data:        rendered.Data,
	})
}

func (s *Server) publishChart(ctx context.Context, input json.RawMessage) (string, error) {
	doc, err := decode(input)
	if err != nil {
		return "", err
	}
	ref, err := s.svc.Publish(ctx, doc)
	if err != nil {
		return "", err
	}
	return encode(ref)
}

func decode(input json.RawMessage) (api.Document, error) {
	return api.DecodeDocument(bytes.NewReader(input), api.DocumentJSON)
}

func encode(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(data), nil
}
