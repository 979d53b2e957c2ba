package donations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"port/nets"
)

// HTTPSink posts each donation to a collection endpoint.
type HTTPSink struct {
	URL    string
	Client nets.HTTPClient
}

var _ Sink = new(HTTPSink)

func (s *HTTPSink) Donate(ctx context.Context, key string, jsonString string) error {
	body, err := json.Marshal(struct {
		Key        string `json:"key"`
		JSONString string `json:"json_string"`
	}{
		Key:        key,
		JSONString: jsonString,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("donate %q: %s", key, resp.Status)
	}
	return nil
}
