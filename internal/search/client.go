// Package search owns the Elasticsearch projection of the master store:
// index bootstrap, document upserts keyed by source_url, and the query
// surface behind the public API.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	elasticsearch "github.com/elastic/go-elasticsearch/v9"
)

type Client struct {
	es    *elasticsearch.Client
	index string
}

func New(addr, index string) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("search client: %w", err)
	}
	return &Client{es: es, index: index}, nil
}

func (c *Client) Index() string { return c.index }

func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("search ping: %s", res.Status())
	}
	return nil
}

// EnsureIndex creates the index with its mapping when missing. Safe to run
// on every start.
func (c *Client) EnsureIndex(ctx context.Context) error {
	res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index exists check: %w", err)
	}
	res.Body.Close()
	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		// fall through to create
	default:
		return fmt.Errorf("index exists check: %s", res.Status())
	}

	created, err := c.es.Indices.Create(
		c.index,
		c.es.Indices.Create.WithBody(strings.NewReader(indexMapping)),
		c.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index create: %w", err)
	}
	defer created.Body.Close()
	if created.IsError() {
		return fmt.Errorf("index create: %s", created.String())
	}
	return nil
}

// IndexListing upserts the search document under its source_url, mirroring
// the relational upsert key so both writes stay idempotent together.
func (c *Client) IndexListing(ctx context.Context, doc Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	res, err := c.es.Index(
		c.index,
		bytes.NewReader(body),
		c.es.Index.WithDocumentID(doc.SourceURL),
		c.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index %s: %w", doc.SourceURL, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index %s: %s", doc.SourceURL, res.String())
	}
	return nil
}
