package schema

import "time"

const CheckoutSchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront",
	"name": "checkout",
	"fields": [
		{"name": "checkout_id", "type": "string"},
		{"name": "lines", "type": {
			"type": "array",
			"items": {
				"type": "record",
				"name": "checkout_line",
				"fields": [
					{"name": "product_id", "type": "long"},
					{"name": "title", "type": "string"},
					{"name": "quantity", "type": "long"},
					{"name": "unit_price", "type": "double"},
					{"name": "image_url", "type": "string"}
				]
			}
		}},
		{"name": "total", "type": "double"},
		{"name": "created_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

type (
	CheckoutV1 struct {
		CheckoutID string           `avro:"checkout_id"`
		Lines      []CheckoutLineV1 `avro:"lines"`
		Total      float64          `avro:"total"`
		CreatedAt  time.Time        `avro:"created_at"`
	}

	CheckoutLineV1 struct {
		ProductID int64   `avro:"product_id"`
		Title     string  `avro:"title"`
		Quantity  int64   `avro:"quantity"`
		UnitPrice float64 `avro:"unit_price"`
		ImageURL  string  `avro:"image_url"`
	}
)
