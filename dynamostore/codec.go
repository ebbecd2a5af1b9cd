package dynamostore

import (
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ScalarCodec is the capability set spec.md calls for: "encodable to and
// decodable from a store scalar". A Store is polymorphic over ID and
// ProcessorID via a pair of ScalarCodec values passed at construction,
// rather than reflection.
type ScalarCodec[T any] interface {
	Encode(v T) types.AttributeValue
	Decode(av types.AttributeValue) (T, error)
}

// StringCodec encodes a string as a DynamoDB string attribute (S).
type StringCodec struct{}

func (StringCodec) Encode(v string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: v}
}

func (StringCodec) Decode(av types.AttributeValue) (string, error) {
	s, ok := av.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("dynamostore: expected S attribute, got %T", av)
	}
	return s.Value, nil
}

// Int64Codec encodes an int64 as a DynamoDB number attribute (N).
type Int64Codec struct{}

func (Int64Codec) Encode(v int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(v, 10)}
}

func (Int64Codec) Decode(av types.AttributeValue) (int64, error) {
	n, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("dynamostore: expected N attribute, got %T", av)
	}
	v, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("dynamostore: malformed N attribute %q: %w", n.Value, err)
	}
	return v, nil
}
