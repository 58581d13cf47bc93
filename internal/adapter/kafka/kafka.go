// Package kafka publishes storefront events to Kafka.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/twmb/franz-go/pkg/kgo"
)

var (
	ErrTooFewOpts = errors.New("too few options")
)

type ProducerOpt func(*producerOpts) error

type producerOpts struct {
	cl      ProducerClient
	encoder Encoder
}

// ProducerClientOpt connects a [kgo.Client] producing to topic. extra is
// appended to the client options, e.g. [kgo.DialTLSConfig].
func ProducerClientOpt(
	ctx context.Context, seedBrokers []string, topic string, extra ...kgo.Opt,
) ProducerOpt {
	return func(opts *producerOpts) error {
		kopts := append([]kgo.Opt{
			kgo.SeedBrokers(seedBrokers...),
			kgo.DefaultProduceTopicAlways(),
			kgo.DefaultProduceTopic(topic),
			kgo.RequiredAcks(kgo.AllISRAcks()),
		}, extra...)

		cl, err := kgo.NewClient(kopts...)
		if err != nil {
			return err
		}

		if err := cl.Ping(ctx); err != nil {
			cl.Close()
			return err
		}
		opts.cl = cl
		return nil
	}
}

// ProducerClientInstanceOpt sets a client built elsewhere.
func ProducerClientInstanceOpt(cl ProducerClient) ProducerOpt {
	return func(opts *producerOpts) error {
		if cl == nil {
			return errors.New("client is nil")
		}
		opts.cl = cl
		return nil
	}
}

func ProducerEncoderOpt(encoder Encoder) ProducerOpt {
	return func(opts *producerOpts) error {
		if encoder == nil {
			return errors.New("encoder is nil")
		}
		opts.encoder = encoder
		return nil
	}
}

type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

type Encoder interface {
	Encode(v any) ([]byte, error)
}

func makeOp(s ...string) string {
	return strings.Join(s, ".")
}

func opErr(err error, op ...string) error {
	return fmt.Errorf("%s: %w", makeOp(op...), err)
}
