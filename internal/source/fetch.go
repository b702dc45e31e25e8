package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/PuerkitoBio/goquery"

	"github.com/mhradil/flatbot/internal/util"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36"

// fetchMaxRetries bounds transient-failure retries inside one fetch; the
// surrounding per-source timeout still caps the total time spent.
const fetchMaxRetries = 2

// getJSON issues a GET and decodes the JSON response into out, retrying
// transient failures with backoff.
func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	return util.RetryWithBackoff(ctx, fetchMaxRetries, func(int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")
		return doJSON(client, req, out)
	})
}

// postJSON issues a POST with a JSON body and decodes the JSON response
// into out, retrying transient failures with backoff.
func postJSON(ctx context.Context, client *http.Client, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request body: %w", err)
	}
	return util.RetryWithBackoff(ctx, fetchMaxRetries, func(int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return doJSON(client, req, out)
	})
}

func doJSON(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("fetching %s: status %d", req.URL, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", req.URL, err)
	}
	return nil
}

// getDocument issues a GET and parses the response as an HTML document.
func getDocument(ctx context.Context, client *http.Client, url string) (*goquery.Document, error) {
	var doc *goquery.Document
	err := util.RetryWithBackoff(ctx, fetchMaxRetries, func(int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("fetching %s: %w", url, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			return fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
		}

		parsed, err := goquery.NewDocumentFromReader(resp.Body)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", url, err)
		}
		doc = parsed
		return nil
	})
	return doc, err
}
