package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func registerResources(srv *server.MCPServer, svc *Service) {
	registerDatesResource(srv, svc)
	registerSessionTemplate(srv, svc)
}

func registerDatesResource(srv *server.MCPServer, svc *Service) {
	resource := mcp.NewResource(
		"tranquil://journal/dates",
		"Journal dates",
		mcp.WithResourceDescription("Dates that have a journal entry."),
		mcp.WithMIMEType("application/json"),
	)

	srv.AddResource(resource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		dates, err := svc.JournalDates(ctx)
		if err != nil {
			return nil, err
		}
		return encodeResourceJSON(request.Params.URI, map[string]any{
			"dates": dates,
			"count": len(dates),
		})
	})
}

func registerSessionTemplate(srv *server.MCPServer, svc *Service) {
	template := mcp.NewResourceTemplate(
		"tranquil://chat/sessions/{id}",
		"Reflection session",
		mcp.WithTemplateDescription("Transcript of one reflection chat session."),
		mcp.WithTemplateMIMEType("application/json"),
	)

	srv.AddResourceTemplate(template, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		id := templateArg(request.Params.Arguments["id"])
		msgs, err := svc.History(ctx, id)
		if err != nil {
			return nil, err
		}
		return encodeResourceJSON(request.Params.URI, map[string]any{
			"session":  id,
			"messages": msgs,
			"count":    len(msgs),
		})
	})
}

// templateArg unwraps a URI template variable, which the server may hand
// over as a string or a one-element list.
func templateArg(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []string:
		if len(t) > 0 {
			return t[0]
		}
	}
	return ""
}

func encodeResourceJSON(uri string, payload any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
