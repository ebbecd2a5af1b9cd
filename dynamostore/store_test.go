package dynamostore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/go-dedupe"
)

type fakeAPI struct {
	updateItem func(ctx context.Context, in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error)
}

func (f fakeAPI) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	return f.updateItem(ctx, in)
}

func TestStore_Claim_NoPriorRecord(t *testing.T) {
	api := fakeAPI{updateItem: func(_ context.Context, in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
		assert.Equal(t, types.ReturnValueAllOld, in.ReturnValues)
		return &dynamodb.UpdateItemOutput{}, nil
	}}
	s := newTestStore(t, api)

	p, err := s.Claim(context.Background(), "order-1", "orders", time.Now())
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestStore_Claim_PriorRecord(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	api := fakeAPI{updateItem: func(_ context.Context, in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
		return &dynamodb.UpdateItemOutput{
			Attributes: map[string]types.AttributeValue{
				attrID:          &types.AttributeValueMemberS{Value: "order-1"},
				attrProcessorID: &types.AttributeValueMemberS{Value: "orders"},
				attrStartedAt:   millisAttr(now),
			},
		}, nil
	}}
	s := newTestStore(t, api)

	p, err := s.Claim(context.Background(), "order-1", "orders", now)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "order-1", p.ID)
	assert.Equal(t, "orders", p.ProcessorID)
	assert.True(t, now.Equal(p.StartedAt))
	assert.True(t, p.CompletedAt.IsZero())
}

func TestStore_Claim_MissingRequiredAttribute(t *testing.T) {
	api := fakeAPI{updateItem: func(_ context.Context, _ *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
		return &dynamodb.UpdateItemOutput{
			Attributes: map[string]types.AttributeValue{
				attrID:          &types.AttributeValueMemberS{Value: "order-1"},
				attrProcessorID: &types.AttributeValueMemberS{Value: "orders"},
				// startedAt missing: corrupt
			},
		}, nil
	}}
	s := newTestStore(t, api)

	_, err := s.Claim(context.Background(), "order-1", "orders", time.Now())
	require.Error(t, err)
	var corrupt *dedupe.CorruptRecordError
	assert.ErrorAs(t, err, &corrupt)
}

func TestStore_Claim_ExplicitNullRejected(t *testing.T) {
	now := time.Now()
	api := fakeAPI{updateItem: func(_ context.Context, _ *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
		return &dynamodb.UpdateItemOutput{
			Attributes: map[string]types.AttributeValue{
				attrID:          &types.AttributeValueMemberS{Value: "order-1"},
				attrProcessorID: &types.AttributeValueMemberS{Value: "orders"},
				attrStartedAt:   millisAttr(now),
				attrCompletedAt: &types.AttributeValueMemberNULL{Value: true},
			},
		}, nil
	}}
	s := newTestStore(t, api)

	_, err := s.Claim(context.Background(), "order-1", "orders", now)
	require.Error(t, err)
	var corrupt *dedupe.CorruptRecordError
	assert.ErrorAs(t, err, &corrupt)
}

func TestStore_Claim_TransportError(t *testing.T) {
	sentinel := errors.New("throttled")
	api := fakeAPI{updateItem: func(_ context.Context, _ *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
		return nil, sentinel
	}}
	s := newTestStore(t, api)

	_, err := s.Claim(context.Background(), "order-1", "orders", time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
}

func TestStore_Commit(t *testing.T) {
	now := time.Now()
	var captured *dynamodb.UpdateItemInput
	api := fakeAPI{updateItem: func(_ context.Context, in *dynamodb.UpdateItemInput) (*dynamodb.UpdateItemOutput, error) {
		captured = in
		return &dynamodb.UpdateItemOutput{}, nil
	}}
	s := newTestStore(t, api)

	err := s.Commit(context.Background(), "order-1", "orders", now, time.Hour)
	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Nil(t, captured.ConditionExpression)
	vals := captured.ExpressionAttributeValues
	assert.Contains(t, vals, ":completedAt")
	assert.Contains(t, vals, ":expiresOn")
}

func newTestStore(t *testing.T, api updateItemAPI) *Store[string, string] {
	t.Helper()
	s := &Store[string, string]{
		client:         api,
		table:          "dedupe-test",
		idCodec:        StringCodec{},
		processorCodec: StringCodec{},
	}
	return s
}
