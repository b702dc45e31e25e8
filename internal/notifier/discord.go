// Package notifier delivers offer notifications to Discord.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/mhradil/flatbot/internal/models"
	"github.com/mhradil/flatbot/internal/util"
)

const maxSendAttempts = 3

// SourceMeta carries the presentation details of the source an offer
// came from: embed color and the author line of the notification.
type SourceMeta struct {
	Name    string
	Color   int
	LogoURL string
}

type Client struct {
	webhookURL string
	botToken   string
	channelID  string
	apiBaseURL string
	client     *http.Client
	log        zerolog.Logger

	// Discord allows 5 webhook requests per 2 seconds; stay under that.
	rateLimiter *rate.Limiter
}

func New(webhookURL, botToken, channelID string, log zerolog.Logger) *Client {
	return &Client{
		webhookURL:  webhookURL,
		botToken:    botToken,
		channelID:   channelID,
		apiBaseURL:  "https://discord.com/api/v10",
		client:      &http.Client{Timeout: 10 * time.Second},
		log:         log,
		rateLimiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 2),
	}
}

// Announce posts one offer to the offers webhook. An empty webhook URL
// disables delivery without error.
func (c *Client) Announce(ctx context.Context, offer models.Offer, meta SourceMeta) error {
	if c.webhookURL == "" {
		return nil
	}

	payload := discordWebhookPayload{Embeds: []discordEmbed{formatOfferEmbed(offer, meta)}}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	parsedURL, err := url.Parse(c.webhookURL)
	if err != nil {
		return err
	}
	q := parsedURL.Query()
	q.Set("wait", "true")
	parsedURL.RawQuery = q.Encode()

	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, parsedURL.String(), bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("discord status %s: %s", resp.Status, respBody)
	}
	return nil
}

// Internal structures

type discordWebhookPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds"`
}

type discordEmbedAuthor struct {
	Name    string `json:"name,omitempty"`
	IconURL string `json:"icon_url,omitempty"`
}

type discordEmbedImage struct {
	URL string `json:"url,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	URL         string              `json:"url,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Author      discordEmbedAuthor  `json:"author,omitempty"`
	Image       discordEmbedImage   `json:"image,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
}

func formatOfferEmbed(offer models.Offer, meta SourceMeta) discordEmbed {
	embed := discordEmbed{
		Title:       offer.Title,
		URL:         offer.Link,
		Description: offer.Location,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Color:       meta.Color,
		Author:      discordEmbedAuthor{Name: meta.Name, IconURL: meta.LogoURL},
		Fields: []discordEmbedField{
			{Name: "Cena", Value: offer.Price.Format(), Inline: true},
		},
	}
	// Broken image URLs must not sink the whole notification; the embed
	// just goes out without a picture.
	if util.IsWebURL(offer.ImageURL) {
		embed.Image = discordEmbedImage{URL: offer.ImageURL}
	}
	return embed
}

// doWithRetry sends the request, retrying on 429 (honoring Retry-After)
// and on 5xx. Other statuses are returned to the caller as-is.
func (c *Client) doWithRetry(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	var resp *http.Response
	for attempt := 0; attempt < maxSendAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := build()
		if err != nil {
			return nil, err
		}
		resp, err = c.client.Do(req)
		if err != nil {
			return nil, err
		}

		delay := retryBackoff(resp.StatusCode, resp.Header.Get("Retry-After"), attempt)
		if delay == 0 || attempt == maxSendAttempts-1 {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		c.log.Warn().Int("status", resp.StatusCode).Dur("delay", delay).Msg("discord request retried")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return resp, nil
}

// retryBackoff returns how long to wait before retrying a request that
// got the given status, or 0 when the status is not retryable.
func retryBackoff(statusCode int, retryAfter string, attempt int) time.Duration {
	switch {
	case statusCode == http.StatusTooManyRequests:
		if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
		return time.Duration(1<<attempt) * time.Second
	case statusCode >= 500:
		return time.Duration(1<<attempt) * time.Second
	default:
		return 0
	}
}
