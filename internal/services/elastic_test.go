package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"storefront_back_end/internal/models"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

// fakeNode answers like a minimal Elasticsearch node.
func fakeNode(t *testing.T, searchHits string) (*elasticsearch.Client, *[]recordedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recordedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: string(body)})
		mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/_search"):
			_, _ = io.WriteString(w, `{"hits":{"hits":[`+searchHits+`]}}`)
		case r.Method == http.MethodDelete && strings.HasSuffix(r.URL.Path, "/404"):
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"result":"not_found"}`)
		default:
			_, _ = io.WriteString(w, `{"result":"created"}`)
		}
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client, &reqs
}

func TestIndexProduct(t *testing.T) {
	client, reqs := fakeNode(t, "")
	pi := NewProductIndex(client, "", zaptest.NewLogger(t))

	desc := "Loose leaf"
	p := models.Product{ID: 7, Title: "Green Tea", Slug: "green-tea", Description: &desc,
		UnitPrice: decimal.RequireFromString("4.5"), Inventory: 12, CollectionID: 2}
	require.NoError(t, pi.IndexProduct(context.Background(), p))

	require.Len(t, *reqs, 1)
	got := (*reqs)[0]
	assert.Equal(t, http.MethodPut, got.Method)
	assert.Equal(t, "/products/_doc/7", got.Path)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(got.Body), &doc))
	assert.Equal(t, "Green Tea", doc["title"])
	assert.Equal(t, "4.50", doc["unit_price"])
	assert.Equal(t, "Loose leaf", doc["description"])
}

func TestRemoveProductToleratesMissingDocument(t *testing.T) {
	client, reqs := fakeNode(t, "")
	pi := NewProductIndex(client, "catalog", zaptest.NewLogger(t))

	require.NoError(t, pi.RemoveProduct(context.Background(), 404))
	require.Len(t, *reqs, 1)
	assert.Equal(t, "/catalog/_doc/404", (*reqs)[0].Path)
}

func TestSearchProductIDs(t *testing.T) {
	client, reqs := fakeNode(t, `{"_source":{"id":3,"title":"Tea"}},{"_source":{"id":1,"title":"Teapot"}}`)
	pi := NewProductIndex(client, "", zaptest.NewLogger(t))

	ids, err := pi.SearchProductIDs(context.Background(), "tea", 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 1}, ids)

	require.Len(t, *reqs, 1)
	assert.Contains(t, (*reqs)[0].Body, `"multi_match"`)
	assert.Contains(t, (*reqs)[0].Body, `"tea"`)
}

func TestDisabledIndex(t *testing.T) {
	pi := NewProductIndex(nil, "", nil)
	assert.False(t, pi.Enabled())
	assert.NoError(t, pi.IndexProduct(context.Background(), models.Product{ID: 1}))
	assert.NoError(t, pi.RemoveProduct(context.Background(), 1))
	ids, err := pi.SearchProductIDs(context.Background(), "x", 0)
	assert.NoError(t, err)
	assert.Nil(t, ids)
}
