package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"advisor-chat/internal/domain"
)

const (
	skPrefixExchange = "EXCHANGE#"
	ttlDuration      = 7 * 24 * time.Hour
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Client writes relay exchange metadata to a DynamoDB table partitioned by
// UTC day. Items expire after seven days.
type Client struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName, now: time.Now}, nil
}

// dayPK returns the partition key for all exchanges recorded on the given day.
func dayPK(ts time.Time) string {
	return "DAY#" + ts.UTC().Format("2006-01-02")
}

// exchangeSK orders exchanges chronologically within a day.
func exchangeSK(ts time.Time, exchangeID string) string {
	return skPrefixExchange + ts.UTC().Format(time.RFC3339Nano) + "#" + exchangeID
}

// RecordExchange stamps keys, timestamp and TTL onto ex and writes it.
func (c *Client) RecordExchange(ctx context.Context, ex domain.Exchange) error {
	if strings.TrimSpace(ex.ExchangeID) == "" {
		return errors.New("repository: RecordExchange: exchange id is required")
	}
	now := c.now().UTC()
	ex.PK = dayPK(now)
	ex.SK = exchangeSK(now, ex.ExchangeID)
	ex.CreatedAt = now.Format(time.RFC3339)
	ex.TTL = now.Add(ttlDuration).Unix()

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                exchangeItem(ex),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: RecordExchange: %w", err)
	}
	return nil
}

// ListExchanges returns up to limit exchanges recorded on day, newest first.
func (c *Client) ListExchanges(ctx context.Context, day time.Time, limit int) ([]domain.Exchange, error) {
	if limit <= 0 {
		limit = 50
	}
	out, err := c.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: dayPK(day)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixExchange},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("repository: ListExchanges query: %w", err)
	}

	exchanges := make([]domain.Exchange, 0, len(out.Items))
	for _, item := range out.Items {
		ex, err := itemToExchange(item)
		if err != nil {
			return nil, fmt.Errorf("repository: ListExchanges unmarshal: %w", err)
		}
		exchanges = append(exchanges, ex)
	}
	return exchanges, nil
}

func exchangeItem(ex domain.Exchange) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":             &types.AttributeValueMemberS{Value: ex.PK},
		"SK":             &types.AttributeValueMemberS{Value: ex.SK},
		"exchangeId":     &types.AttributeValueMemberS{Value: ex.ExchangeID},
		"correlationId":  &types.AttributeValueMemberS{Value: ex.CorrelationID},
		"category":       &types.AttributeValueMemberS{Value: string(ex.Category)},
		"outcome":        &types.AttributeValueMemberS{Value: ex.Outcome},
		"model":          &types.AttributeValueMemberS{Value: ex.Model},
		"durationMs":     &types.AttributeValueMemberN{Value: strconv.FormatInt(ex.DurationMillis, 10)},
		"responseLength": &types.AttributeValueMemberN{Value: strconv.Itoa(ex.ResponseLength)},
		"createdAt":      &types.AttributeValueMemberS{Value: ex.CreatedAt},
		"ttl":            &types.AttributeValueMemberN{Value: strconv.FormatInt(ex.TTL, 10)},
	}
}

func itemToExchange(item map[string]types.AttributeValue) (domain.Exchange, error) {
	pk, err := strAttr(item, "PK")
	if err != nil {
		return domain.Exchange{}, err
	}
	sk, err := strAttr(item, "SK")
	if err != nil {
		return domain.Exchange{}, err
	}
	id, err := strAttr(item, "exchangeId")
	if err != nil {
		return domain.Exchange{}, err
	}
	outcome, err := strAttr(item, "outcome")
	if err != nil {
		return domain.Exchange{}, err
	}
	correlationID, _ := strAttr(item, "correlationId") // allow empty
	category, _ := strAttr(item, "category")
	model, _ := strAttr(item, "model")
	createdAt, _ := strAttr(item, "createdAt")
	duration, _ := intAttr(item, "durationMs")
	length, _ := intAttr(item, "responseLength")
	ttl, _ := intAttr(item, "ttl")

	return domain.Exchange{
		PK:             pk,
		SK:             sk,
		ExchangeID:     id,
		CorrelationID:  correlationID,
		Category:       domain.Category(category),
		Outcome:        outcome,
		Model:          model,
		DurationMillis: duration,
		ResponseLength: int(length),
		CreatedAt:      createdAt,
		TTL:            ttl,
	}, nil
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

func intAttr(item map[string]types.AttributeValue, key string) (int64, error) {
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
