// Package dynamostore implements dedupe.Store against Amazon DynamoDB,
// exercising the wire protocol spec.md describes: a "set if absent" update
// on claim (SET startedAt = if_not_exists(startedAt, :now), with no
// ConditionExpression), ReturnValues: ALL_OLD to observe
// prior state atomically, an unconditional update on commit, and a
// numeric-seconds TTL attribute for store-driven eviction.
//
// The table is assumed to already exist, keyed by a partition key "id" and
// sort key "processorId" (or vice versa — DynamoDB doesn't distinguish for
// this package's purposes, as long as both are declared key attributes);
// provisioning the table is out of scope, per spec.md §1.
package dynamostore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/example/go-dedupe"
)

const (
	attrID          = "id"
	attrProcessorID = "processorId"
	attrStartedAt   = "startedAt"
	attrCompletedAt = "completedAt"
	attrExpiresOn   = "expiresOn"
)

// updateItemAPI is the subset of *dynamodb.Client this package depends on,
// narrowed so tests can supply a fake without spinning up DynamoDB Local.
type updateItemAPI interface {
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// Store implements dedupe.Store against a single DynamoDB table.
type Store[ID, ProcessorID any] struct {
	client         updateItemAPI
	table          string
	idCodec        ScalarCodec[ID]
	processorCodec ScalarCodec[ProcessorID]
}

// New constructs a Store. client is typically a *dynamodb.Client; idCodec
// and processorCodec supply the "encodable to/decodable from a store
// scalar" capability for the caller's chosen ID and ProcessorID types.
func New[ID, ProcessorID any](client *dynamodb.Client, table string, idCodec ScalarCodec[ID], processorCodec ScalarCodec[ProcessorID]) *Store[ID, ProcessorID] {
	if client == nil {
		panic(`dynamostore: nil client`)
	}
	if table == "" {
		panic(`dynamostore: empty table`)
	}
	return &Store[ID, ProcessorID]{
		client:         client,
		table:          table,
		idCodec:        idCodec,
		processorCodec: processorCodec,
	}
}

func (s *Store[ID, ProcessorID]) key(id ID, processorID ProcessorID) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrID:          s.idCodec.Encode(id),
		attrProcessorID: s.processorCodec.Encode(processorID),
	}
}

// Claim implements dedupe.Store.
func (s *Store[ID, ProcessorID]) Claim(ctx context.Context, id ID, processorID ProcessorID, now time.Time) (*dedupe.Process[ID, ProcessorID], error) {
	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.table),
		Key:              s.key(id, processorID),
		UpdateExpression: aws.String("SET " + attrStartedAt + " = if_not_exists(" + attrStartedAt + ", :now)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": millisAttr(now),
		},
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return nil, fmt.Errorf("dynamostore: claim: %w", err)
	}
	if len(out.Attributes) == 0 {
		return nil, nil
	}

	p, err := s.decode(out.Attributes)
	if err != nil {
		return nil, &dedupe.CorruptRecordError{Err: err}
	}
	return &p, nil
}

// Commit implements dedupe.Store.
func (s *Store[ID, ProcessorID]) Commit(ctx context.Context, id ID, processorID ProcessorID, now time.Time, ttl time.Duration) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.table),
		Key:              s.key(id, processorID),
		UpdateExpression: aws.String("SET " + attrCompletedAt + " = :completedAt, " + attrExpiresOn + " = :expiresOn"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":completedAt": millisAttr(now),
			":expiresOn":   secondsAttr(now.Add(ttl)),
		},
		ReturnValues: types.ReturnValueNone,
	})
	if err != nil {
		return fmt.Errorf("dynamostore: commit: %w", err)
	}
	return nil
}

func (s *Store[ID, ProcessorID]) decode(attrs map[string]types.AttributeValue) (dedupe.Process[ID, ProcessorID], error) {
	var p dedupe.Process[ID, ProcessorID]

	idAttr, ok := attrs[attrID]
	if !ok {
		return p, fmt.Errorf("dynamostore: missing required attribute %q", attrID)
	}
	id, err := s.idCodec.Decode(idAttr)
	if err != nil {
		return p, fmt.Errorf("dynamostore: decoding %q: %w", attrID, err)
	}
	p.ID = id

	processorAttr, ok := attrs[attrProcessorID]
	if !ok {
		return p, fmt.Errorf("dynamostore: missing required attribute %q", attrProcessorID)
	}
	processorID, err := s.processorCodec.Decode(processorAttr)
	if err != nil {
		return p, fmt.Errorf("dynamostore: decoding %q: %w", attrProcessorID, err)
	}
	p.ProcessorID = processorID

	startedAt, ok := attrs[attrStartedAt]
	if !ok {
		return p, fmt.Errorf("dynamostore: missing required attribute %q", attrStartedAt)
	}
	p.StartedAt, err = decodeMillis(startedAt)
	if err != nil {
		return p, fmt.Errorf("dynamostore: decoding %q: %w", attrStartedAt, err)
	}

	if completedAt, ok := attrs[attrCompletedAt]; ok {
		p.CompletedAt, err = decodeMillis(completedAt)
		if err != nil {
			return p, fmt.Errorf("dynamostore: decoding %q: %w", attrCompletedAt, err)
		}
	}

	if expiresOn, ok := attrs[attrExpiresOn]; ok {
		p.ExpiresOn, err = decodeSeconds(expiresOn)
		if err != nil {
			return p, fmt.Errorf("dynamostore: decoding %q: %w", attrExpiresOn, err)
		}
	}

	return p, nil
}

func millisAttr(t time.Time) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(t.UnixMilli(), 10)}
}

func secondsAttr(t time.Time) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(t.Unix(), 10)}
}

// decodeMillis and decodeSeconds reject an explicit stored null rather than
// silently treating it as absent — the open question spec.md §9 leaves to
// implementers, resolved here in favor of the recommended representation
// (attribute-absent means absent; null is a decode error).
func decodeMillis(av types.AttributeValue) (time.Time, error) {
	if _, isNull := av.(*types.AttributeValueMemberNULL); isNull {
		return time.Time{}, fmt.Errorf("explicit null, expected absent or N")
	}
	n, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return time.Time{}, fmt.Errorf("expected N, got %T", av)
	}
	ms, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed N %q: %w", n.Value, err)
	}
	return time.UnixMilli(ms).UTC(), nil
}

func decodeSeconds(av types.AttributeValue) (time.Time, error) {
	if _, isNull := av.(*types.AttributeValueMemberNULL); isNull {
		return time.Time{}, fmt.Errorf("explicit null, expected absent or N")
	}
	n, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return time.Time{}, fmt.Errorf("expected N, got %T", av)
	}
	s, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed N %q: %w", n.Value, err)
	}
	return time.Unix(s, 0).UTC(), nil
}
