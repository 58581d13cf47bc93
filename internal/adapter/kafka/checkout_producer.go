package kafka

import (
	"context"
	"log/slog"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ port.CheckoutProducer = (*CheckoutProducer)(nil)

// A CheckoutProducer publishes completed checkouts keyed by checkout ID.
type CheckoutProducer struct {
	cl       ProducerClient
	encoder  Encoder
	opPrefix string
}

func NewCheckoutProducer(opts ...ProducerOpt) (CheckoutProducer, error) {
	const op = "NewCheckoutProducer"

	if len(opts) != 2 {
		panic(opErr(ErrTooFewOpts, op)) // develop mistake
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return CheckoutProducer{}, opErr(err, op)
		}
	}

	return CheckoutProducer{
		cl:       options.cl,
		encoder:  options.encoder,
		opPrefix: "CheckoutProducer",
	}, nil
}

func (p CheckoutProducer) Close() {
	const op = "Close"
	log := slog.With("op", makeOp(p.opPrefix, op))
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

func (p CheckoutProducer) ProduceCheckout(
	ctx context.Context, co domain.Checkout,
) error {
	const op = "ProduceCheckout"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	r, err := p.createRecord(co)
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	res := p.cl.ProduceSync(ctx, r)
	if err := res.FirstErr(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	slog.Debug("checkout produced",
		"op", makeOp(p.opPrefix, op), "checkoutID", co.ID)
	return nil
}

func (p CheckoutProducer) createRecord(co domain.Checkout) (*kgo.Record, error) {
	const op = "createRecord"

	s := p.toSchema(co)
	b, err := p.encoder.Encode(s)
	if err != nil {
		return nil, opErr(err, p.opPrefix, op)
	}
	return &kgo.Record{Key: []byte(s.CheckoutID), Value: b}, nil
}

func (CheckoutProducer) toSchema(co domain.Checkout) (s schema.CheckoutV1) {
	s.CheckoutID = co.ID
	s.Total = co.Total
	s.CreatedAt = co.CreatedAt

	s.Lines = make([]schema.CheckoutLineV1, len(co.Lines))
	for i, l := range co.Lines {
		s.Lines[i].ProductID = int64(l.ProductID)
		s.Lines[i].Title = l.Title
		s.Lines[i].Quantity = int64(l.Quantity)
		s.Lines[i].UnitPrice = l.UnitPrice
		s.Lines[i].ImageURL = l.ImageURL
	}
	return
}
