// Package search indexe les commandes dans Elasticsearch pour la recherche admin.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"cedra_orders/internal/models"
)

const (
	DefaultIndex = "orders"
	maxResults   = 100
)

type OrderIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewOrderIndex(client *elasticsearch.Client, index string) *OrderIndex {
	if index == "" {
		index = DefaultIndex
	}
	return &OrderIndex{client: client, index: index}
}

func (o *OrderIndex) IndexOrder(ctx context.Context, order models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("sérialisation commande: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      o.index,
		DocumentID: order.ID,
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, o.client)
	if err != nil {
		return fmt.Errorf("envoi Elastic: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("Elastic a refusé la commande %s: %s", order.ID, res.String())
	}
	log.Printf("🔎 Commande indexée: %s", order.ID)
	return nil
}

func (o *OrderIndex) SearchOrders(ctx context.Context, query string) ([]models.Order, error) {
	body, err := searchBody(query)
	if err != nil {
		return nil, err
	}

	req := esapi.SearchRequest{
		Index: []string{o.index},
		Body:  body,
	}
	res, err := req.Do(ctx, o.client)
	if err != nil {
		return nil, fmt.Errorf("requête Elastic: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("Elastic: %s", res.String())
	}
	return decodeHits(res.Body)
}

func searchBody(query string) (io.Reader, error) {
	q := map[string]interface{}{
		"size": maxResults,
		"sort": []interface{}{map[string]interface{}{"created_at": "desc"}},
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"name", "phone_number", "address", "order_items.name", "id", "user"},
			},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("encodage requête: %w", err)
	}
	return &buf, nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.Order `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func decodeHits(r io.Reader) ([]models.Order, error) {
	var resp searchResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("décodage réponse Elastic: %w", err)
	}
	orders := make([]models.Order, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		orders = append(orders, hit.Source)
	}
	return orders, nil
}
