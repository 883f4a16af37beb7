package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func registerTools(srv *server.MCPServer, svc *Service) {
	registerJournalDatesTool(srv, svc)
	registerJournalSaveTool(srv, svc)
	registerChatSessionsTool(srv, svc)
	registerChatHistoryTool(srv, svc)
	registerChatSendTool(srv, svc)
	registerJournalSummaryTool(srv, svc)
	registerProfileTool(srv, svc)
}

func registerJournalDatesTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"journal_dates",
		mcp.WithDescription("List every date (YYYY-MM-DD) that has a journal entry."),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dates, err := svc.JournalDates(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{
			"dates": dates,
			"count": len(dates),
		})
	})
}

func registerJournalSaveTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"journal_save",
		mcp.WithDescription("Write the journal entry for a date, replacing any existing entry."),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Entry text."),
		),
		mcp.WithString("date",
			mcp.Description("Date as YYYY-MM-DD. Defaults to today."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		content, err := request.RequireString("content")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		dto, err := svc.SaveJournal(ctx, request.GetString("date", ""), content)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerChatSessionsTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"chat_sessions",
		mcp.WithDescription("List reflection chat sessions, newest first. Today's session is created when missing."),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessions, err := svc.ChatSessions(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{
			"sessions": sessions,
			"count":    len(sessions),
		})
	})
}

func registerChatHistoryTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"chat_history",
		mcp.WithDescription("Read the transcript of a reflection session."),
		mcp.WithString("session",
			mcp.Description("Session id. Defaults to today's session."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		msgs, err := svc.History(ctx, request.GetString("session", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{
			"messages": msgs,
			"count":    len(msgs),
		})
	})
}

func registerChatSendTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"chat_send",
		mcp.WithDescription("Send a message to today's reflection session and return the reply."),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("What to say."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := request.RequireString("message")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		msgs, err := svc.ChatSend(ctx, message)
		if err != nil {
			if len(msgs) == 0 {
				return mcp.NewToolResultError(err.Error()), nil
			}
			res, _ := toJSONResult(map[string]any{"messages": msgs, "error": err.Error()})
			res.IsError = true
			return res, nil
		}
		return toJSONResult(map[string]any{"messages": msgs})
	})
}

func registerJournalSummaryTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"journal_summary",
		mcp.WithDescription("Summarize the journal entries written between two dates, inclusive."),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("First date as YYYY-MM-DD."),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("Last date as YYYY-MM-DD."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start, err := request.RequireString("start")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		end, err := request.RequireString("end")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		sum, err := svc.JournalSummary(ctx, start, end)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{
			"start":   sum.StartDate.String(),
			"end":     sum.EndDate.String(),
			"summary": sum.SummaryText,
		})
	})
}

func registerProfileTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"profile",
		mcp.WithDescription("Read the user's profile and latest insights."),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		p, err := svc.Profile(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(p)
	})
}

func toJSONResult(data any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal error: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
