package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type channelTopicPayload struct {
	Topic string `json:"topic"`
}

// UpdateMarker rewrites the offers channel topic with a relative
// "Last update" timestamp so readers can tell the bot is alive. It is
// a no-op unless both a bot token and a channel ID are configured.
func (c *Client) UpdateMarker(ctx context.Context, at time.Time) error {
	if c.botToken == "" || c.channelID == "" {
		return nil
	}

	payload := channelTopicPayload{Topic: fmt.Sprintf("Last update <t:%d:R>", at.Unix())}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	patchURL := fmt.Sprintf("%s/channels/%s", c.apiBaseURL, c.channelID)
	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPatch, patchURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bot "+c.botToken)
		return req, nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("discord topic update failed: %s: %s", resp.Status, respBody)
	}
	return nil
}
