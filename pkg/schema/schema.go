// Package schema holds the Avro schemas of the published events and their
// schema registry serdes.
package schema

import (
	"context"
	"fmt"

	"github.com/hamba/avro/v2"
	"github.com/twmb/franz-go/pkg/sr"
)

// A SchemaIdentifier returns the registry ID of the schema text under
// subject.
type SchemaIdentifier interface {
	DetermineID(ctx context.Context, subject string, avroSchemaText string) (int, error)
}

// SchemaCreater registers schemas in the schema registry. Registering an
// existing schema returns its ID.
type SchemaCreater struct {
	cl *sr.Client
}

func NewSchemaCreater(cl *sr.Client) SchemaCreater {
	if cl == nil {
		panic("schema.NewSchemaCreater: client is nil") // develop mistake
	}
	return SchemaCreater{cl}
}

func (c SchemaCreater) DetermineID(
	ctx context.Context, subject string, avroSchemaText string,
) (int, error) {
	const op = "SchemaCreater.DetermineID"

	ss, err := c.cl.CreateSchema(ctx, subject, sr.Schema{
		Schema: avroSchemaText,
		Type:   sr.TypeAvro,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return ss.ID, nil
}

func AvroEncodeFn(s avro.Schema) func(v any) ([]byte, error) {
	return func(v any) ([]byte, error) {
		return avro.Marshal(s, v)
	}
}

func AvroDecodeFn(s avro.Schema) func([]byte, any) error {
	return func(data []byte, v any) error {
		return avro.Unmarshal(s, data, v)
	}
}
