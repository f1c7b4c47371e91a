// Package uploader transmits the encrypted artifact and constructs the
// shareable link. The decryption key only ever appears in the link
// fragment, never in anything sent to the server.
package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"msgwrapped/internal/domain"
)

const defaultTimeout = 30 * time.Second

// Client uploads artifacts over a pooled HTTP transport. One attempt per
// upload; the pipeline has no retry layer anywhere.
type Client struct {
	http   *http.Client
	logger *slog.Logger
}

func New(logger *slog.Logger, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &Client{
		http:   &http.Client{Timeout: timeout, Transport: transport},
		logger: logger,
	}
}

// Upload POSTs the ciphertext to {baseURL}/api/upload and returns the
// server-assigned artifact identifier. A 2xx JSON body without an id yields
// an empty identifier, not a failure.
func (c *Client) Upload(ctx context.Context, baseURL string, ciphertext []byte) (string, error) {
	uploadURL := baseURL + "/api/upload"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(ciphertext))
	if err != nil {
		return "", domain.NetError(domain.NetConnectionFailed, fmt.Sprintf("build upload request for %s", uploadURL), err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", domain.NetError(domain.NetTimeout,
				fmt.Sprintf("request timed out while uploading to %s", uploadURL), err)
		}
		return "", domain.NetError(domain.NetConnectionFailed,
			fmt.Sprintf("failed to connect to %s, check your internet connection", uploadURL), err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := string(body)
		if detail == "" {
			detail = "no error details provided"
		}
		return "", domain.HTTPStatusError(resp.StatusCode,
			fmt.Sprintf("upload failed with status %d: %s. Server response: %s",
				resp.StatusCode, http.StatusText(resp.StatusCode), detail))
	}
	if readErr != nil {
		return "", domain.NetError(domain.NetMalformedResponse, "read upload response", readErr)
	}

	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", domain.NetError(domain.NetMalformedResponse, "parse upload response", err)
	}
	if parsed.ID == "" {
		c.logger.Warn("upload response carried no artifact id")
	}
	return parsed.ID, nil
}

// ShareLink builds {base}/s/{id}#{key}. keyB64 is the URL-safe base64 key;
// as a URL fragment it stays client-side.
func ShareLink(baseURL, id, keyB64 string) string {
	return fmt.Sprintf("%s/s/%s#%s", baseURL, id, keyB64)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
