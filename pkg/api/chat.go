package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// Chat sends a free-standing message (outside any session) and returns the
// assistant's response.
func (c *Client) Chat(ctx context.Context, message, chatContext string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", Validation("chat", "Message cannot be empty.")
	}
	body := struct {
		Message string  `json:"message"`
		Context *string `json:"context"`
	}{Message: message}
	if chatContext != "" {
		body.Context = &chatContext
	}
	var out struct {
		Response string `json:"response"`
	}
	err := c.do(ctx, call{op: "chat", method: http.MethodPost, path: "/chat", body: body, out: &out})
	return out.Response, err
}

// ChatHistory returns the free-standing chat history, oldest first.
func (c *Client) ChatHistory(ctx context.Context) ([]ChatMessage, error) {
	var body json.RawMessage
	if err := c.do(ctx, call{op: "chat history", method: http.MethodGet, path: "/chat-history", out: &body}); err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}
	msgs, err := decodeMessages(body)
	if err != nil {
		return nil, &Error{Kind: KindServer, Op: "chat history", Message: "Unexpected response from server.", Err: err}
	}
	return msgs, nil
}

// ChatSessions lists the user's sessions, newest first.
func (c *Client) ChatSessions(ctx context.Context) ([]ChatSession, error) {
	var body json.RawMessage
	if err := c.do(ctx, call{op: "chat sessions", method: http.MethodGet, path: "/chat-sessions", out: &body}); err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}

	var list []rawSession
	if err := json.Unmarshal(body, &list); err != nil {
		var wrapped struct {
			Sessions []rawSession `json:"sessions"`
		}
		if err2 := json.Unmarshal(body, &wrapped); err2 != nil {
			return nil, &Error{Kind: KindServer, Op: "chat sessions", Message: "Unexpected response from server.", Err: err}
		}
		list = wrapped.Sessions
	}

	out := make([]ChatSession, 0, len(list))
	for _, s := range list {
		out = append(out, s.normalize())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt.Time)
	})
	return out, nil
}

// CreateChatSession starts a new session.
func (c *Client) CreateChatSession(ctx context.Context) (ChatSession, error) {
	var body json.RawMessage
	if err := c.do(ctx, call{op: "create chat session", method: http.MethodPost, path: "/chat-sessions", out: &body}); err != nil {
		return ChatSession{}, err
	}

	var wrapped struct {
		Session *rawSession `json:"session"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Session != nil {
		return wrapped.Session.normalize(), nil
	}
	var bare rawSession
	if err := json.Unmarshal(body, &bare); err == nil {
		if s := bare.normalize(); s.ID != "" {
			return s, nil
		}
	}
	return ChatSession{}, &Error{Kind: KindServer, Op: "create chat session", Message: "The server did not return a session."}
}

// SessionMessages returns a session's messages, oldest first.
func (c *Client) SessionMessages(ctx context.Context, sessionID string) ([]ChatMessage, error) {
	if sessionID == "" {
		return nil, Validation("session messages", "A session is required.")
	}
	var body json.RawMessage
	err := c.do(ctx, call{
		op:     "session messages",
		method: http.MethodGet,
		path:   "/chat-sessions/" + url.PathEscape(sessionID) + "/messages",
		route:  "/chat-sessions/{id}/messages",
		out:    &body,
	})
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}
	msgs, err := decodeMessages(body)
	if err != nil {
		return nil, &Error{Kind: KindServer, Op: "session messages", Message: "Unexpected response from server.", Err: err}
	}
	for i := range msgs {
		if msgs[i].SessionID == "" {
			msgs[i].SessionID = sessionID
		}
	}
	return msgs, nil
}

// SendSessionMessage posts text to a session and returns the stored user
// message and assistant reply.
func (c *Client) SendSessionMessage(ctx context.Context, sessionID, text string) (Exchange, error) {
	if sessionID == "" {
		return Exchange{}, Validation("send message", "A session is required.")
	}
	if strings.TrimSpace(text) == "" {
		return Exchange{}, Validation("send message", "Message cannot be empty.")
	}
	var raw rawExchange
	err := c.do(ctx, call{
		op:     "send message",
		method: http.MethodPost,
		path:   "/chat-sessions/" + url.PathEscape(sessionID) + "/messages",
		route:  "/chat-sessions/{id}/messages",
		body:   map[string]string{"message": text},
		out:    &raw,
	})
	if err != nil {
		return Exchange{}, err
	}
	return raw.normalize(sessionID), nil
}

// ChatSummary fetches the stored summary for a session, KindNotFound if none.
func (c *Client) ChatSummary(ctx context.Context, sessionID string) (ChatSummary, error) {
	if sessionID == "" {
		return ChatSummary{}, Validation("chat summary", "A session is required.")
	}
	var body json.RawMessage
	err := c.do(ctx, call{
		op:     "chat summary",
		method: http.MethodGet,
		path:   "/chat-summaries",
		query:  map[string]string{"session_id": sessionID},
		out:    &body,
	})
	if err != nil {
		return ChatSummary{}, err
	}
	var one ChatSummary
	if err := json.Unmarshal(body, &one); err == nil && one.SummaryText != "" {
		return one, nil
	}
	var list []ChatSummary
	if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 && list[0].SummaryText != "" {
		return list[0], nil
	}
	return ChatSummary{}, &Error{Kind: KindNotFound, Status: http.StatusNotFound, Op: "chat summary", Message: "No summary for this session yet."}
}

// CreateChatSummary asks the server to summarize a session.
func (c *Client) CreateChatSummary(ctx context.Context, sessionID string) (ChatSummary, error) {
	if sessionID == "" {
		return ChatSummary{}, Validation("create chat summary", "A session is required.")
	}
	var out ChatSummary
	err := c.do(ctx, call{
		op:     "create chat summary",
		method: http.MethodPost,
		path:   "/chat-summaries",
		body:   map[string]string{"session_id": sessionID},
		out:    &out,
	})
	return out, err
}
