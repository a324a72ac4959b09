package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"

	"storefront_back_end/internal/models"
)

const DefaultProductIndex = "products"

// ProductIndex mirrors the catalog into Elasticsearch for title search.
// With a nil client every method is a no-op and Enabled reports false.
type ProductIndex struct {
	client *elasticsearch.Client
	index  string
	log    *zap.Logger
}

func NewProductIndex(client *elasticsearch.Client, index string, log *zap.Logger) *ProductIndex {
	if index == "" {
		index = DefaultProductIndex
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ProductIndex{client: client, index: index, log: log}
}

func (pi *ProductIndex) Enabled() bool {
	return pi != nil && pi.client != nil
}

type productDocument struct {
	ID           uint   `json:"id"`
	Title        string `json:"title"`
	Slug         string `json:"slug"`
	Description  string `json:"description,omitempty"`
	CollectionID uint   `json:"collection_id"`
	UnitPrice    string `json:"unit_price"`
	Inventory    int    `json:"inventory"`
}

func toDocument(p models.Product) productDocument {
	doc := productDocument{
		ID:           p.ID,
		Title:        p.Title,
		Slug:         p.Slug,
		CollectionID: p.CollectionID,
		UnitPrice:    p.UnitPrice.StringFixed(2),
		Inventory:    p.Inventory,
	}
	if p.Description != nil {
		doc.Description = *p.Description
	}
	return doc
}

// IndexProduct upserts the product document.
func (pi *ProductIndex) IndexProduct(ctx context.Context, p models.Product) error {
	if !pi.Enabled() {
		return nil
	}
	data, err := json.Marshal(toDocument(p))
	if err != nil {
		return fmt.Errorf("encode product %d: %w", p.ID, err)
	}
	req := esapi.IndexRequest{
		Index:      pi.index,
		DocumentID: strconv.FormatUint(uint64(p.ID), 10),
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, pi.client)
	if err != nil {
		return fmt.Errorf("index product %d: %w", p.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index product %d: %s", p.ID, res.String())
	}
	pi.log.Debug("product indexed", zap.Uint("product_id", p.ID))
	return nil
}

// RemoveProduct deletes the product document. A missing document is not an error.
func (pi *ProductIndex) RemoveProduct(ctx context.Context, id uint) error {
	if !pi.Enabled() {
		return nil
	}
	req := esapi.DeleteRequest{
		Index:      pi.index,
		DocumentID: strconv.FormatUint(uint64(id), 10),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, pi.client)
	if err != nil {
		return fmt.Errorf("remove product %d: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("remove product %d: %s", id, res.String())
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source productDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// SearchProductIDs matches the query against title and description and returns ids by relevance.
func (pi *ProductIndex) SearchProductIDs(ctx context.Context, query string, limit int) ([]uint, error) {
	if !pi.Enabled() {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	var buf bytes.Buffer
	body := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"title^3", "slug", "description"},
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode search query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{pi.index},
		Body:  &buf,
	}
	res, err := req.Do(ctx, pi.client)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search products: %s", res.String())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	ids := make([]uint, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		ids = append(ids, hit.Source.ID)
	}
	return ids, nil
}
