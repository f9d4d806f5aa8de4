package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"advisor-chat/internal/domain"
)

type fakeDynamo struct {
	putErr       error
	queryOut     *dynamodb.QueryOutput
	queryErr     error
	lastPutInput *dynamodb.PutItemInput
	lastQueryIn  *dynamodb.QueryInput
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPutInput = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.lastQueryIn = in
	return f.queryOut, f.queryErr
}

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func mustNewClient(t *testing.T, db *fakeDynamo) *Client {
	t.Helper()
	c, err := New(db, "test-table")
	require.NoError(t, err)
	c.now = func() time.Time { return fixedNow }
	return c
}

func sAttr(item map[string]types.AttributeValue, key string) string {
	return item[key].(*types.AttributeValueMemberS).Value
}

func nAttr(item map[string]types.AttributeValue, key string) string {
	return item[key].(*types.AttributeValueMemberN).Value
}

func TestNew_Validates(t *testing.T) {
	_, err := New(nil, "table")
	require.Error(t, err)

	_, err = New(&fakeDynamo{}, "  ")
	require.Error(t, err)
}

func TestRecordExchange_HappyPath(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)

	err := c.RecordExchange(context.Background(), domain.Exchange{
		ExchangeID:     "ex-1",
		CorrelationID:  "corr-1",
		Category:       domain.CategoryFinance,
		Outcome:        "ok",
		Model:          "gemini-test",
		DurationMillis: 1234,
		ResponseLength: 42,
	})
	require.NoError(t, err)
	require.NotNil(t, db.lastPutInput)
	require.Equal(t, "test-table", *db.lastPutInput.TableName)
	require.NotNil(t, db.lastPutInput.ConditionExpression)

	item := db.lastPutInput.Item
	require.Equal(t, "DAY#2026-03-14", sAttr(item, "PK"))
	require.Equal(t, "EXCHANGE#2026-03-14T09:26:53Z#ex-1", sAttr(item, "SK"))
	require.Equal(t, "corr-1", sAttr(item, "correlationId"))
	require.Equal(t, "finance", sAttr(item, "category"))
	require.Equal(t, "1234", nAttr(item, "durationMs"))
	require.Equal(t, "42", nAttr(item, "responseLength"))
	require.Equal(t, "2026-03-14T09:26:53Z", sAttr(item, "createdAt"))
	require.Equal(t, "1774085213", nAttr(item, "ttl"))
}

func TestRecordExchange_NeverStoresContent(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)
	require.NoError(t, c.RecordExchange(context.Background(), domain.Exchange{ExchangeID: "ex-1"}))

	for key := range db.lastPutInput.Item {
		require.NotContains(t, []string{"text", "answer", "content", "prompt"}, key)
	}
}

func TestRecordExchange_MissingID(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{})
	err := c.RecordExchange(context.Background(), domain.Exchange{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "exchange id is required")
}

func TestRecordExchange_PutError(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{putErr: errors.New("boom")})
	err := c.RecordExchange(context.Background(), domain.Exchange{ExchangeID: "ex-1"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "RecordExchange")
	require.ErrorContains(t, err, "boom")
}

func TestListExchanges_RoundTrip(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)
	require.NoError(t, c.RecordExchange(context.Background(), domain.Exchange{
		ExchangeID: "ex-1", Category: domain.CategoryLegal, Outcome: "fallback", Model: "m", DurationMillis: 7, ResponseLength: 3,
	}))
	db.queryOut = &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{db.lastPutInput.Item}}

	got, err := c.ListExchanges(context.Background(), fixedNow, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "ex-1", got[0].ExchangeID)
	require.Equal(t, domain.CategoryLegal, got[0].Category)
	require.Equal(t, "fallback", got[0].Outcome)
	require.Equal(t, int64(7), got[0].DurationMillis)
	require.Equal(t, 3, got[0].ResponseLength)

	require.Equal(t, "DAY#2026-03-14", db.lastQueryIn.ExpressionAttributeValues[":pk"].(*types.AttributeValueMemberS).Value)
	require.False(t, *db.lastQueryIn.ScanIndexForward)
	require.Equal(t, int32(10), *db.lastQueryIn.Limit)
}

func TestListExchanges_DefaultLimit(t *testing.T) {
	db := &fakeDynamo{queryOut: &dynamodb.QueryOutput{}}
	c := mustNewClient(t, db)
	_, err := c.ListExchanges(context.Background(), fixedNow, 0)
	require.NoError(t, err)
	require.Equal(t, int32(50), *db.lastQueryIn.Limit)
}

func TestListExchanges_MalformedItem(t *testing.T) {
	db := &fakeDynamo{queryOut: &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{
		{"PK": &types.AttributeValueMemberS{Value: "DAY#2026-03-14"}},
	}}}
	c := mustNewClient(t, db)
	_, err := c.ListExchanges(context.Background(), fixedNow, 10)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unmarshal")
}

func TestListExchanges_QueryError(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{queryErr: errors.New("boom")})
	_, err := c.ListExchanges(context.Background(), fixedNow, 10)
	require.Error(t, err)
	require.Contains(t, err.Error(), "ListExchanges query")
}
