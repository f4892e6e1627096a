package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"
)

// SearchIndexer mirrors product snapshots into an Elasticsearch index. It
// ignores events that carry no product state. A renamed category is written
// through to the category_name of its indexed products.
type SearchIndexer struct {
	client *elasticsearch.Client
	index  string
}

// NewSearchIndexer creates an Elasticsearch client and checks the cluster is reachable.
func NewSearchIndexer(ctx context.Context, url, username, password, index string) (*SearchIndexer, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  username,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("create Elasticsearch client: %w", err)
	}
	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("Elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("Elasticsearch error: %s", res.Status())
	}
	return &SearchIndexer{client: client, index: index}, nil
}

func (s *SearchIndexer) Publish(ctx context.Context, event Event) error {
	switch event.Type {
	case ProductCreated, ProductUpdated:
		doc, ok := event.Payload.(ProductDocument)
		if !ok {
			return fmt.Errorf("elasticsearch: %s without product document", event.Type)
		}
		return s.indexProduct(ctx, doc)
	case ProductDeleted:
		return s.deleteProduct(ctx, event.ID)
	case CategoryUpdated:
		payload, ok := event.Payload.(CategoryPayload)
		if !ok {
			return fmt.Errorf("elasticsearch: %s without category payload", event.Type)
		}
		return s.renameCategory(ctx, payload)
	case CategoryDeleted:
		payload, ok := event.Payload.(CategoryPayload)
		if !ok {
			return nil
		}
		for _, id := range payload.ProductIDs {
			if err := s.deleteProduct(ctx, id); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *SearchIndexer) indexProduct(ctx context.Context, doc ProductDocument) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("elasticsearch: encode product %d: %w", doc.ID, err)
	}
	res, err := s.client.Index(
		s.index,
		&buf,
		s.client.Index.WithContext(ctx),
		s.client.Index.WithDocumentID(strconv.FormatUint(uint64(doc.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: index product %d: %w", doc.ID, err)
	}
	return checkResponse(res, "index product", doc.ID)
}

func (s *SearchIndexer) renameCategory(ctx context.Context, category CategoryPayload) error {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"category_id": category.ID},
		},
		"script": map[string]interface{}{
			"lang":   "painless",
			"source": "ctx._source.category_name = params.name",
			"params": map[string]interface{}{"name": category.Name},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return fmt.Errorf("elasticsearch: encode category %d update: %w", category.ID, err)
	}
	res, err := s.client.UpdateByQuery(
		[]string{s.index},
		s.client.UpdateByQuery.WithContext(ctx),
		s.client.UpdateByQuery.WithBody(&buf),
		s.client.UpdateByQuery.WithConflicts("proceed"),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: update category %d: %w", category.ID, err)
	}
	return checkResponse(res, "update category", category.ID)
}

func (s *SearchIndexer) deleteProduct(ctx context.Context, id uint) error {
	res, err := s.client.Delete(
		s.index,
		strconv.FormatUint(uint64(id), 10),
		s.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: delete product %d: %w", id, err)
	}
	if res.StatusCode == http.StatusNotFound {
		res.Body.Close()
		return nil
	}
	return checkResponse(res, "delete product", id)
}

func (s *SearchIndexer) Close() error { return nil }

func checkResponse(res *esapi.Response, op string, id uint) error {
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("elasticsearch: %s %d: %s: %s", op, id, res.Status(), body)
	}
	return nil
}
