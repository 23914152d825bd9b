package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type errorDTO struct {
	Type string `json:"type"`
	Msg  string `json:"message"`
}

var defaultClient = &http.Client{Timeout: 30 * time.Second}

func Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("client Get: %w", err)
	}

	return do(defaultClient, req)
}

// PostJSON encodes payload, posts it and decodes the response body into out.
func PostJSON(ctx context.Context, client *http.Client, url string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("PostJSON: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("PostJSON: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if client == nil {
		client = defaultClient
	}

	resBody, err := do(client, req)
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(resBody, out); err != nil {
		return fmt.Errorf("PostJSON: unmarshal: %w", err)
	}

	return nil
}

func do(client *http.Client, req *http.Request) ([]byte, error) {
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", req.Method, req.URL.Path, err)
	}

	if res.StatusCode >= 400 {
		var errDTO errorDTO
		if jsonErr := json.Unmarshal(body, &errDTO); jsonErr != nil || errDTO.Msg == "" {
			return nil, fmt.Errorf("%s %s: status %d", req.Method, req.URL.Path, res.StatusCode)
		}

		return nil, fmt.Errorf("%s %s: status %d: %v", req.Method, req.URL.Path, res.StatusCode, errDTO.Msg)
	}

	return body, nil
}
