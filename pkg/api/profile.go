package api

import (
	"context"
	"net/http"
)

// UserProfile returns the server's profile document for the user.
func (c *Client) UserProfile(ctx context.Context) (Profile, error) {
	var out Profile
	err := c.do(ctx, call{op: "user profile", method: http.MethodGet, path: "/user-profile", out: &out})
	return out, err
}

// UpdateUserProfile replaces the profile document.
func (c *Client) UpdateUserProfile(ctx context.Context, data map[string]any) (Profile, error) {
	if data == nil {
		return Profile{}, Validation("update profile", "Profile data is required.")
	}
	var out Profile
	err := c.do(ctx, call{
		op:     "update profile",
		method: http.MethodPut,
		path:   "/user-profile",
		body:   map[string]any{"profile_data": data},
		out:    &out,
	})
	return out, err
}

type insightsResponse struct {
	Insights string `json:"insights"`
}

// GenerateInsights asks the server to analyze new journals and goals.
func (c *Client) GenerateInsights(ctx context.Context) (string, error) {
	var out insightsResponse
	err := c.do(ctx, call{op: "generate insights", method: http.MethodPost, path: "/generate-insights", out: &out})
	return out.Insights, err
}

// Insights returns the most recent insights text.
func (c *Client) Insights(ctx context.Context) (string, error) {
	var out insightsResponse
	err := c.do(ctx, call{op: "insights", method: http.MethodGet, path: "/insights", out: &out})
	return out.Insights, err
}
