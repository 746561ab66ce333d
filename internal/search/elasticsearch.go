package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"excentrica/internal/config"
	"excentrica/internal/logger"
	"excentrica/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ActivityIndex хранит журнал активности в Elasticsearch для полнотекстового поиска
type ActivityIndex struct {
	client *elasticsearch.Client
	config config.ElasticsearchConfig
}

// activityDocument is the indexed form of an activity entry.
// details keeps the raw JSON, details_text makes it searchable.
type activityDocument struct {
	ID          int64           `json:"id"`
	ActorID     int64           `json:"actor_id"`
	Action      string          `json:"action"`
	EntityType  string          `json:"entity_type"`
	EntityID    int64           `json:"entity_id"`
	Details     json.RawMessage `json:"details,omitempty"`
	DetailsText string          `json:"details_text,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NewActivityIndex создает клиент и индекс, если его еще нет
func NewActivityIndex(cfg config.ElasticsearchConfig) (*ActivityIndex, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     []string{cfg.URL},
		Username:      cfg.Username,
		Password:      cfg.Password,
		RetryOnStatus: []int{502, 503, 504, 429},
		MaxRetries:    cfg.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	index := &ActivityIndex{
		client: es,
		config: cfg,
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	if err := index.ensureIndex(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure index exists: %w", err)
	}

	return index, nil
}

// ensureIndex создает индекс с испанским анализатором
func (c *ActivityIndex) ensureIndex(ctx context.Context) error {
	req := esapi.IndicesExistsRequest{
		Index: []string{c.config.Index},
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		logger.Get().Info("Elasticsearch index already exists", "index", c.config.Index)
		return nil
	}

	mapping := map[string]interface{}{
		"settings": map[string]interface{}{
			"number_of_shards":   1,
			"number_of_replicas": 0,
			"analysis": map[string]interface{}{
				"analyzer": map[string]interface{}{
					"activity_analyzer": map[string]interface{}{
						"type":      "custom",
						"tokenizer": "standard",
						"filter":    []string{"lowercase", "asciifolding", "spanish_stop"},
					},
				},
				"filter": map[string]interface{}{
					"spanish_stop": map[string]interface{}{
						"type":      "stop",
						"stopwords": "_spanish_",
					},
				},
			},
		},
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"id":          map[string]interface{}{"type": "long"},
				"actor_id":    map[string]interface{}{"type": "long"},
				"entity_id":   map[string]interface{}{"type": "long"},
				"entity_type": map[string]interface{}{"type": "keyword"},
				"action": map[string]interface{}{
					"type":     "text",
					"analyzer": "activity_analyzer",
					"fields": map[string]interface{}{
						"keyword": map[string]interface{}{
							"type":         "keyword",
							"ignore_above": 256,
						},
					},
				},
				"details": map[string]interface{}{
					"type":    "object",
					"enabled": false,
				},
				"details_text": map[string]interface{}{
					"type":     "text",
					"analyzer": "activity_analyzer",
				},
				"created_at": map[string]interface{}{"type": "date"},
			},
		},
	}

	body, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	createReq := esapi.IndicesCreateRequest{
		Index: c.config.Index,
		Body:  bytes.NewReader(body),
	}

	createRes, err := createReq.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("failed to create index: %s", createRes.String())
	}

	logger.Get().Info("Created Elasticsearch index", "index", c.config.Index)
	return nil
}

// IndexActivity индексирует запись журнала под ее id из базы
func (c *ActivityIndex) IndexActivity(ctx context.Context, entry *models.ActivityLog) error {
	doc := activityDocument{
		ID:         entry.ID,
		ActorID:    entry.ActorID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Details:    entry.Details,
		CreatedAt:  entry.CreatedAt,
	}
	if len(entry.Details) > 0 {
		doc.DetailsText = string(entry.Details)
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal activity: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      c.config.Index,
		DocumentID: strconv.FormatInt(entry.ID, 10),
		Body:       bytes.NewReader(body),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to index activity: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("indexing error: %s", res.String())
	}

	return nil
}

// SearchActivity выполняет поиск по журналу, новые записи первыми
func (c *ActivityIndex) SearchActivity(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, error) {
	page, pageSize := filter.Page, filter.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if page <= 0 {
		page = 1
	}

	searchRequest := map[string]interface{}{
		"query": buildActivityQuery(filter),
		"sort": []map[string]interface{}{
			{"created_at": map[string]interface{}{"order": "desc"}},
			{"id": map[string]interface{}{"order": "desc"}},
		},
		"from": (page - 1) * pageSize,
		"size": pageSize,
	}

	body, err := json.Marshal(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{c.config.Index},
		Body:  bytes.NewReader(body),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.String())
	}

	var response struct {
		Hits struct {
			Hits []struct {
				Source activityDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	items := make([]models.ActivityLog, len(response.Hits.Hits))
	for i, hit := range response.Hits.Hits {
		doc := hit.Source
		items[i] = models.ActivityLog{
			ID:         doc.ID,
			ActorID:    doc.ActorID,
			Action:     doc.Action,
			EntityType: doc.EntityType,
			EntityID:   doc.EntityID,
			Details:    doc.Details,
			CreatedAt:  doc.CreatedAt,
		}
	}

	return items, nil
}

// buildActivityQuery строит bool-запрос из фильтров
func buildActivityQuery(filter models.ActivityFilter) map[string]interface{} {
	must := []map[string]interface{}{}
	filters := []map[string]interface{}{}

	if filter.Query != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     filter.Query,
				"fields":    []string{"action^2", "details_text"},
				"fuzziness": "AUTO",
			},
		})
	}
	if filter.EntityType != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"entity_type": filter.EntityType},
		})
	}
	if filter.ActorID != nil {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"actor_id": *filter.ActorID},
		})
	}

	if len(must) == 0 && len(filters) == 0 {
		return map[string]interface{}{
			"match_all": map[string]interface{}{},
		}
	}

	query := map[string]interface{}{}
	if len(must) > 0 {
		query["must"] = must
	}
	if len(filters) > 0 {
		query["filter"] = filters
	}
	return map[string]interface{}{"bool": query}
}

// HealthCheck проверяет состояние Elasticsearch
func (c *ActivityIndex) HealthCheck(ctx context.Context) error {
	req := esapi.ClusterHealthRequest{
		WaitForStatus: "yellow",
		Timeout:       10 * time.Second,
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("health check error: %s", res.String())
	}

	return nil
}
