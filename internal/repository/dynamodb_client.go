package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	skDocument = "DOC"
	ownerIndex = "owner-index"
)

// dynamodbAPI is the minimal DynamoDB interface required by DynamoStore.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoStore keeps every collection in one table. Items are keyed
// PK=<collection>#<key>, SK=DOC; the owner-index GSI is keyed on
// ownerKey=<collection>#<owner> and savedAt. Expiring documents carry a "ttl"
// attribute for DynamoDB TTL.
type DynamoStore struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

func NewDynamoStore(api dynamodbAPI, tableName string) (*DynamoStore, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &DynamoStore{api: api, tableName: tableName, now: time.Now}, nil
}

func docPK(collection, key string) string {
	return collection + "#" + key
}

func ownerKey(collection, owner string) string {
	return collection + "#" + owner
}

func (s *DynamoStore) Upsert(ctx context.Context, collection string, doc Document) error {
	if err := validate(collection, doc.Key); err != nil {
		return err
	}
	_, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      documentItem(collection, doc),
	})
	if err != nil {
		return fmt.Errorf("repository: Upsert %s/%s: %w", collection, doc.Key, err)
	}
	return nil
}

func (s *DynamoStore) Get(ctx context.Context, collection, key string) (Document, bool, error) {
	if err := validate(collection, key); err != nil {
		return Document{}, false, err
	}
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: docPK(collection, key)},
			"SK": &types.AttributeValueMemberS{Value: skDocument},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return Document{}, false, fmt.Errorf("repository: Get %s/%s: %w", collection, key, err)
	}
	if out == nil || len(out.Item) == 0 {
		return Document{}, false, nil
	}
	doc, err := itemToDocument(out.Item)
	if err != nil {
		return Document{}, false, fmt.Errorf("repository: Get %s/%s decode: %w", collection, key, err)
	}
	if doc.expired(s.now()) {
		return Document{}, false, nil
	}
	return doc, true, nil
}

func (s *DynamoStore) Delete(ctx context.Context, collection, key string) (bool, error) {
	if err := validate(collection, key); err != nil {
		return false, err
	}
	out, err := s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: docPK(collection, key)},
			"SK": &types.AttributeValueMemberS{Value: skDocument},
		},
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return false, fmt.Errorf("repository: Delete %s/%s: %w", collection, key, err)
	}
	return out != nil && len(out.Attributes) > 0, nil
}

// List reads the owner-index newest first when an owner is given and scans the
// collection otherwise.
func (s *DynamoStore) List(ctx context.Context, collection string, f Filter) ([]Document, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	if f.Owner == "" {
		return s.scan(ctx, collection, f.Limit)
	}

	now := s.now()
	var (
		docs  []Document
		start map[string]types.AttributeValue
	)
	for {
		out, err := s.api.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			IndexName:              aws.String(ownerIndex),
			KeyConditionExpression: aws.String("ownerKey = :ok"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":ok": &types.AttributeValueMemberS{Value: ownerKey(collection, f.Owner)},
			},
			ScanIndexForward:  aws.Bool(false),
			ExclusiveStartKey: start,
		})
		if err != nil {
			return nil, fmt.Errorf("repository: List %s query: %w", collection, err)
		}
		for _, item := range out.Items {
			doc, err := itemToDocument(item)
			if err != nil {
				return nil, fmt.Errorf("repository: List %s decode: %w", collection, err)
			}
			if doc.expired(now) {
				continue
			}
			docs = append(docs, doc)
			if f.Limit > 0 && len(docs) == f.Limit {
				sortNewestFirst(docs)
				return docs, nil
			}
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		start = out.LastEvaluatedKey
	}
	sortNewestFirst(docs)
	return docs, nil
}

func (s *DynamoStore) scan(ctx context.Context, collection string, limit int) ([]Document, error) {
	now := s.now()
	var (
		docs  []Document
		start map[string]types.AttributeValue
	)
	for {
		out, err := s.api.Scan(ctx, &dynamodb.ScanInput{
			TableName:        aws.String(s.tableName),
			FilterExpression: aws.String("#c = :c"),
			ExpressionAttributeNames: map[string]string{
				"#c": "collection",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":c": &types.AttributeValueMemberS{Value: collection},
			},
			ExclusiveStartKey: start,
		})
		if err != nil {
			return nil, fmt.Errorf("repository: List %s scan: %w", collection, err)
		}
		for _, item := range out.Items {
			doc, err := itemToDocument(item)
			if err != nil {
				return nil, fmt.Errorf("repository: List %s decode: %w", collection, err)
			}
			if !doc.expired(now) {
				docs = append(docs, doc)
			}
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		start = out.LastEvaluatedKey
	}
	sortNewestFirst(docs)
	return applyLimit(docs, limit), nil
}

func documentItem(collection string, doc Document) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		"PK":         &types.AttributeValueMemberS{Value: docPK(collection, doc.Key)},
		"SK":         &types.AttributeValueMemberS{Value: skDocument},
		"collection": &types.AttributeValueMemberS{Value: collection},
		"key":        &types.AttributeValueMemberS{Value: doc.Key},
		"savedAt":    &types.AttributeValueMemberS{Value: formatSavedAt(doc.SavedAt)},
		"doc":        &types.AttributeValueMemberS{Value: string(doc.Body)},
	}
	// GSI key attributes must be absent rather than empty.
	if doc.Owner != "" {
		item["owner"] = &types.AttributeValueMemberS{Value: doc.Owner}
		item["ownerKey"] = &types.AttributeValueMemberS{Value: ownerKey(collection, doc.Owner)}
	}
	if !doc.ExpiresAt.IsZero() {
		item["ttl"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(doc.ExpiresAt.Unix(), 10)}
	}
	return item
}

func itemToDocument(item map[string]types.AttributeValue) (Document, error) {
	key, err := strAttr(item, "key")
	if err != nil {
		return Document{}, err
	}
	body, err := strAttr(item, "doc")
	if err != nil {
		return Document{}, err
	}
	if !json.Valid([]byte(body)) {
		return Document{}, fmt.Errorf("repository: attribute %q is not valid JSON", "doc")
	}
	savedRaw, err := strAttr(item, "savedAt")
	if err != nil {
		return Document{}, err
	}
	savedAt, err := time.Parse(savedAtLayout, savedRaw)
	if err != nil {
		return Document{}, fmt.Errorf("repository: parse attribute %q: %w", "savedAt", err)
	}
	owner, _ := strAttr(item, "owner") // absent for ownerless documents

	doc := Document{
		Key:     key,
		Owner:   owner,
		SavedAt: savedAt,
		Body:    json.RawMessage(body),
	}
	if _, ok := item["ttl"]; ok {
		ttl, err := int64Attr(item, "ttl")
		if err != nil {
			return Document{}, err
		}
		doc.ExpiresAt = time.Unix(ttl, 0).UTC()
	}
	return doc, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func int64Attr(item map[string]types.AttributeValue, key string) (int64, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
