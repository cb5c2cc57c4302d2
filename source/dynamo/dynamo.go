// Package dynamo implements a cachedict.Source backed by a DynamoDB
// table, using aws-sdk-go-v2's BatchGetItem. The Client interface lists
// only the one operation used, so tests can supply a fake without a
// live table.
package dynamo

import (
	"context"
	"fmt"
	"strconv"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/geowatson/cachedict"
)

// batchGetLimit is DynamoDB's hard cap on keys per BatchGetItem request.
const batchGetLimit = 100

// Client is the subset of the DynamoDB API this Source depends on.
type Client interface {
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
}

// Source reads rows from a DynamoDB table keyed by a numeric attribute
// keyAttr, projecting columns in schema order.
type Source struct {
	client    Client
	table     string
	keyAttr   string
	columns   []string
}

// New builds a Source over an already-constructed Client.
func New(client Client, table, keyAttr string, columns []string) *Source {
	return &Source{client: client, table: table, keyAttr: keyAttr, columns: columns}
}

// NewDefault loads the default AWS config (environment/shared profile)
// and returns a Source over it.
func NewDefault(ctx context.Context, table, keyAttr string, columns []string) (*Source, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("cachedict/source/dynamo: load AWS config: %w", err)
	}
	return New(dynamodb.NewFromConfig(cfg), table, keyAttr, columns), nil
}

func (s *Source) SupportsSelectiveLoad() bool { return true }

// Clone returns a new Source sharing the same client handle, per the
// Source.Clone contract used by Dictionary.Clone; the DynamoDB SDK
// client is itself safe for concurrent use, so no deep copy is needed.
func (s *Source) Clone() (cachedict.Source, error) {
	return New(s.client, s.table, s.keyAttr, s.columns), nil
}

// Load issues one BatchGetItem per batchGetLimit-sized slice of keys.
func (s *Source) Load(ctx context.Context, keys []uint64) (cachedict.BlockStream, error) {
	var rows []cachedict.Row

	for start := 0; start < len(keys); start += batchGetLimit {
		end := start + batchGetLimit
		if end > len(keys) {
			end = len(keys)
		}
		chunk, err := s.batchGet(ctx, keys[start:end])
		if err != nil {
			return nil, fmt.Errorf("%w: %s", cachedict.ErrSourceFailure, err)
		}
		rows = append(rows, chunk...)
	}

	block := cachedict.NewSimpleBlock(rows)
	return cachedict.NewSimpleBlockStream([]*cachedict.SimpleBlock{block}), nil
}

func (s *Source) batchGet(ctx context.Context, keys []uint64) ([]cachedict.Row, error) {
	keysAV := make([]map[string]types.AttributeValue, len(keys))
	for i, k := range keys {
		keysAV[i] = map[string]types.AttributeValue{
			s.keyAttr: &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", k)},
		}
	}

	out, err := s.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
		RequestItems: map[string]types.KeysAndAttributes{
			s.table: {Keys: keysAV},
		},
	})
	if err != nil {
		return nil, err
	}

	items := out.Responses[s.table]
	rows := make([]cachedict.Row, 0, len(items))
	for _, item := range items {
		key, err := attributeValueToUint64(item[s.keyAttr])
		if err != nil {
			return nil, fmt.Errorf("%w: key attribute %q: %s", cachedict.ErrTypeMismatch, s.keyAttr, err)
		}

		values := make([]any, len(s.columns))
		for i, col := range s.columns {
			values[i] = attributeValueToAny(item[col])
		}
		rows = append(rows, cachedict.Row{Key: key, Values: values})
	}
	return rows, nil
}

func attributeValueToUint64(av types.AttributeValue) (uint64, error) {
	n, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("expected numeric attribute value, got %T", av)
	}
	var v uint64
	if _, err := fmt.Sscanf(n.Value, "%d", &v); err != nil {
		return 0, err
	}
	return v, nil
}

func attributeValueToAny(av types.AttributeValue) any {
	switch v := av.(type) {
	case *types.AttributeValueMemberN:
		if i, err := strconv.ParseInt(v.Value, 10, 64); err == nil {
			return i
		}
		if u, err := strconv.ParseUint(v.Value, 10, 64); err == nil {
			return u
		}
		if f, err := strconv.ParseFloat(v.Value, 64); err == nil {
			return f
		}
		return nil
	case *types.AttributeValueMemberS:
		return v.Value
	case *types.AttributeValueMemberBOOL:
		return v.Value
	default:
		return nil
	}
}
