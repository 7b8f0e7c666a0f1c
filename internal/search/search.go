package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// Result is one page of matching documents plus the exact total.
type Result struct {
	Items []Document
	Total int64
}

func (c *Client) Search(ctx context.Context, p Params) (*Result, error) {
	body, err := json.Marshal(BuildSearchBody(p))
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search: %s", res.String())
	}

	var decoded struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := &Result{Total: decoded.Hits.Total.Value}
	out.Items = make([]Document, 0, len(decoded.Hits.Hits))
	for _, h := range decoded.Hits.Hits {
		out.Items = append(out.Items, h.Source)
	}
	return out, nil
}
