package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/hamba/avro/v2"
	"github.com/twmb/franz-go/pkg/sr"
)

var (
	ErrTooFewOpts = errors.New("too few options")
)

type Serde interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

type serde struct {
	srSerde *sr.Serde
}

func (s serde) Encode(v any) ([]byte, error) {
	return s.srSerde.Encode(v)
}

func (s serde) Decode(data []byte, v any) error {
	return s.srSerde.Decode(data, v)
}

type Opt func(*serdeOpts) error

type serdeOpts struct {
	subject string
	si      SchemaIdentifier
}

func SubjectOpt(subject string) Opt {
	return func(so *serdeOpts) error {
		if subject == "" {
			return errors.New("subject is empty string")
		}
		so.subject = subject
		return nil
	}
}

func SchemaIdentifierOpt(sc SchemaIdentifier) Opt {
	return func(so *serdeOpts) error {
		if sc == nil {
			return errors.New("schema creater is nil")
		}
		so.si = sc
		return nil
	}
}

// NewSerdeCheckoutV1 registers [CheckoutSchemaTextV1] under the subject
// and returns the serde of [CheckoutV1] in the registry wire format.
func NewSerdeCheckoutV1(ctx context.Context, opts ...Opt) (Serde, error) {
	const op = "NewSerdeCheckoutV1"
	return serdeConstructor(
		ctx,
		CheckoutSchemaTextV1,
		CheckoutV1{},
		op,
		opts...,
	)
}

func allRequiredOpts(opts []Opt) bool {
	return len(opts) == 2
}

func serdeConstructor(
	ctx context.Context,
	schemaText string,
	example any,
	op string,
	opts ...Opt,
) (Serde, error) {
	if !allRequiredOpts(opts) {
		return serde{}, fmt.Errorf("%s: %w", op, ErrTooFewOpts)
	}

	var serdeOpts serdeOpts
	for _, o := range opts {
		if err := o(&serdeOpts); err != nil {
			return serde{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	avroSchema, err := avro.Parse(schemaText)
	if err != nil {
		return serde{}, fmt.Errorf("%s: %w", op, err)
	}

	srID, err := serdeOpts.si.DetermineID(
		ctx, serdeOpts.subject, schemaText,
	)
	if err != nil {
		return serde{}, fmt.Errorf("%s: %w", op, err)
	}

	srSerde := new(sr.Serde)
	srSerde.Register(
		srID,
		example,
		sr.EncodeFn(AvroEncodeFn(avroSchema)),
		sr.DecodeFn(AvroDecodeFn(avroSchema)),
	)

	return serde{srSerde: srSerde}, nil
}
