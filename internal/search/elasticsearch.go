package search

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strconv"

	"example.com/backstage/foodshare/config"
	"example.com/backstage/foodshare/internal/models"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const defaultSearchSize = 25

// searchFields are the listing fields matched by free-text queries
var searchFields = []string{"food_name^3", "location^2", "provider_type", "food_type", "meal_type"}

// ListingDocument is the indexed form of a food listing
type ListingDocument struct {
	FoodID       int    `json:"food_id"`
	FoodName     string `json:"food_name"`
	Quantity     int    `json:"quantity"`
	ExpiryDate   string `json:"expiry_date,omitempty"`
	ProviderID   int    `json:"provider_id"`
	ProviderType string `json:"provider_type"`
	Location     string `json:"location"`
	FoodType     string `json:"food_type"`
	MealType     string `json:"meal_type"`
}

// NewListingDocument builds the indexed form of a listing
func NewListingDocument(l *models.FoodListing) ListingDocument {
	return ListingDocument{
		FoodID:       l.FoodID,
		FoodName:     l.FoodName,
		Quantity:     l.Quantity,
		ExpiryDate:   l.ExpiryDate.String(),
		ProviderID:   l.ProviderID,
		ProviderType: l.ProviderType,
		Location:     l.Location,
		FoodType:     l.FoodType,
		MealType:     l.MealType,
	}
}

// ElasticClient provides integration with Elasticsearch
type ElasticClient struct {
	client *elasticsearch.Client
	config config.ElasticConfig
}

// NewElasticClient creates a new Elasticsearch client
func NewElasticClient(cfg config.ElasticConfig) (*ElasticClient, error) {
	esConfig := elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	}

	client, err := elasticsearch.NewClient(esConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Elasticsearch client")
	}

	return &ElasticClient{
		client: client,
		config: cfg,
	}, nil
}

func (c *ElasticClient) indexName() string {
	return config.FormatIndex(c.config, c.config.Index)
}

// IndexListing indexes or replaces one listing
func (c *ElasticClient) IndexListing(ctx context.Context, listing *models.FoodListing) error {
	docJSON, err := json.Marshal(NewListingDocument(listing))
	if err != nil {
		return errors.Wrap(err, "failed to marshal listing document")
	}

	req := esapi.IndexRequest{
		Index:      c.indexName(),
		DocumentID: strconv.Itoa(listing.FoodID),
		Body:       bytes.NewReader(docJSON),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch index request")
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("index", res)
	}

	log.Debug().Int("food_id", listing.FoodID).Msg("listing indexed")
	return nil
}

// DeleteListing removes a listing from the index. Missing documents are
// not an error.
func (c *ElasticClient) DeleteListing(ctx context.Context, foodID int) error {
	req := esapi.DeleteRequest{
		Index:      c.indexName(),
		DocumentID: strconv.Itoa(foodID),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch delete request")
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return responseError("delete", res)
	}
	return nil
}

// ReplaceListings rebuilds the index from the given listings
func (c *ElasticClient) ReplaceListings(ctx context.Context, listings []models.FoodListing) error {
	ignore := true
	delReq := esapi.IndicesDeleteRequest{
		Index:             []string{c.indexName()},
		IgnoreUnavailable: &ignore,
	}
	res, err := delReq.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch index delete request")
	}
	res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return errors.Errorf("Elasticsearch index delete error: %s", res.Status())
	}

	if len(listings) == 0 {
		return nil
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for i := range listings {
		meta := map[string]interface{}{
			"index": map[string]interface{}{"_id": strconv.Itoa(listings[i].FoodID)},
		}
		if err := enc.Encode(meta); err != nil {
			return errors.Wrap(err, "failed to encode bulk metadata")
		}
		if err := enc.Encode(NewListingDocument(&listings[i])); err != nil {
			return errors.Wrap(err, "failed to encode listing document")
		}
	}

	bulkReq := esapi.BulkRequest{
		Index:   c.indexName(),
		Body:    &body,
		Refresh: "true",
	}
	res, err = bulkReq.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch bulk request")
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("bulk", res)
	}

	var result struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return errors.Wrap(err, "failed to parse Elasticsearch bulk response")
	}
	if result.Errors {
		return errors.New("Elasticsearch bulk request reported item errors")
	}

	log.Info().Int("count", len(listings)).Str("index", c.indexName()).Msg("listings reindexed")
	return nil
}

// SearchListings runs a free-text query over the listing index
func (c *ElasticClient) SearchListings(ctx context.Context, q string, size int) ([]ListingDocument, error) {
	if size <= 0 {
		size = defaultSearchSize
	}

	query := map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     q,
				"fields":    searchFields,
				"fuzziness": "AUTO",
			},
		},
	}
	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal search query")
	}

	req := esapi.SearchRequest{
		Index: []string{c.indexName()},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute Elasticsearch search request")
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, responseError("search", res)
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source ListingDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "failed to parse Elasticsearch search response")
	}

	docs := make([]ListingDocument, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		docs = append(docs, hit.Source)
	}
	return docs, nil
}

func responseError(op string, res *esapi.Response) error {
	var e map[string]interface{}
	body, _ := io.ReadAll(res.Body)
	if err := json.Unmarshal(body, &e); err != nil {
		return errors.Errorf("Elasticsearch %s error: %s", op, res.Status())
	}
	return errors.Errorf("Elasticsearch %s error: %v", op, e)
}
