package services

import (
	"context"
	"sync"

	"trinity_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// stubDB implements DB with overridable function fields. Unset readers
// report a miss; unset writers succeed.
type stubDB struct {
	GetItemFunc            func(ctx context.Context, tableName string, key map[string]types.AttributeValue) (map[string]types.AttributeValue, error)
	PutItemFunc            func(ctx context.Context, tableName string, item interface{}) error
	PutItemConditionalFunc func(ctx context.Context, tableName string, item interface{}, conditionExpression string) error
	UpdateItemFunc         func(ctx context.Context, tableName string, updateExpression string, key, values map[string]types.AttributeValue, names map[string]string) (map[string]types.AttributeValue, error)
	QueryItemsFunc         func(ctx context.Context, tableName string, keyCondition string, values map[string]types.AttributeValue, names map[string]string, limit int32) ([]map[string]types.AttributeValue, error)
	QueryWithIndexFunc     func(ctx context.Context, tableName, indexName, keyCondition string, values map[string]types.AttributeValue, names map[string]string, limit int32, latestFirst bool) ([]map[string]types.AttributeValue, error)
	ScanItemsFunc          func(ctx context.Context, tableName string, filterExpression string, values map[string]types.AttributeValue, names map[string]string) ([]map[string]types.AttributeValue, error)
}

var _ DB = (*stubDB)(nil)

func (s *stubDB) GetItem(ctx context.Context, tableName string, key map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	if s.GetItemFunc != nil {
		return s.GetItemFunc(ctx, tableName, key)
	}
	return nil, ErrItemNotFound
}

func (s *stubDB) PutItem(ctx context.Context, tableName string, item interface{}) error {
	if s.PutItemFunc != nil {
		return s.PutItemFunc(ctx, tableName, item)
	}
	return nil
}

func (s *stubDB) PutItemConditional(ctx context.Context, tableName string, item interface{}, conditionExpression string) error {
	if s.PutItemConditionalFunc != nil {
		return s.PutItemConditionalFunc(ctx, tableName, item, conditionExpression)
	}
	return nil
}

func (s *stubDB) UpdateItem(ctx context.Context, tableName string, updateExpression string, key, values map[string]types.AttributeValue, names map[string]string) (map[string]types.AttributeValue, error) {
	if s.UpdateItemFunc != nil {
		return s.UpdateItemFunc(ctx, tableName, updateExpression, key, values, names)
	}
	return map[string]types.AttributeValue{}, nil
}

func (s *stubDB) QueryItems(ctx context.Context, tableName string, keyCondition string, values map[string]types.AttributeValue, names map[string]string, limit int32) ([]map[string]types.AttributeValue, error) {
	if s.QueryItemsFunc != nil {
		return s.QueryItemsFunc(ctx, tableName, keyCondition, values, names, limit)
	}
	return nil, nil
}

func (s *stubDB) QueryItemsWithIndex(ctx context.Context, tableName, indexName, keyCondition string, values map[string]types.AttributeValue, names map[string]string, limit int32, latestFirst bool) ([]map[string]types.AttributeValue, error) {
	if s.QueryWithIndexFunc != nil {
		return s.QueryWithIndexFunc(ctx, tableName, indexName, keyCondition, values, names, limit, latestFirst)
	}
	return nil, nil
}

func (s *stubDB) ScanItems(ctx context.Context, tableName string, filterExpression string, values map[string]types.AttributeValue, names map[string]string) ([]map[string]types.AttributeValue, error) {
	if s.ScanItemsFunc != nil {
		return s.ScanItemsFunc(ctx, tableName, filterExpression, values, names)
	}
	return nil, nil
}

// mustMarshal converts a struct to an attribute map for canned reads.
func mustMarshal(v interface{}) map[string]types.AttributeValue {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		panic(err)
	}
	return item
}

// recordingPublisher captures published events for assertions. Safe for
// concurrent use so threshold races can be exercised in tests.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	RoomID  string
	Event   string
	Payload interface{}
}

func (p *recordingPublisher) Publish(roomID, event string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{RoomID: roomID, Event: event, Payload: payload})
	return nil
}

func (p *recordingPublisher) eventsOf(event string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var matched []publishedEvent
	for _, e := range p.events {
		if e.Event == event {
			matched = append(matched, e)
		}
	}
	return matched
}

// stubCatalog implements CatalogClient with overridable function fields.
type stubCatalog struct {
	DiscoverFunc       func(ctx context.Context, mediaType string, genreIDs []string, page int) ([]models.ContentItem, error)
	ListCategoriesFunc func(ctx context.Context, mediaType string) ([]models.Category, error)
}

func (s *stubCatalog) Discover(ctx context.Context, mediaType string, genreIDs []string, page int) ([]models.ContentItem, error) {
	if s.DiscoverFunc != nil {
		return s.DiscoverFunc(ctx, mediaType, genreIDs, page)
	}
	return nil, nil
}

func (s *stubCatalog) ListCategories(ctx context.Context, mediaType string) ([]models.Category, error) {
	if s.ListCategoriesFunc != nil {
		return s.ListCategoriesFunc(ctx, mediaType)
	}
	return nil, nil
}
