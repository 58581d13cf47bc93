package domain

import (
	"errors"
)

var (
	ErrDatabase     = errors.New("database error")
	ErrAssetLoad    = errors.New("asset load error")
	ErrJSONParse    = errors.New("json parse error")
	ErrConnectivity = errors.New("connectivity error")

	ErrAssetNotFound   = errors.New("seed asset not found")
	ErrNotFound        = errors.New("not found")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrEmptyCart       = errors.New("cart is empty")
)

// An ErrorKind discriminates failures for the view layer.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindDatabase
	KindAssetLoad
	KindJSONParse
	KindConnectivity
	KindUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindDatabase:
		return "database_error"
	case KindAssetLoad:
		return "asset_load_error"
	case KindJSONParse:
		return "json_parse_error"
	case KindConnectivity:
		return "connectivity_error"
	default:
		return "unknown_error"
	}
}

// KindOf classifies err. Parse and asset failures take precedence over
// database ones since they are wrapped the most specifically.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrJSONParse):
		return KindJSONParse
	case errors.Is(err, ErrAssetLoad), errors.Is(err, ErrAssetNotFound):
		return KindAssetLoad
	case errors.Is(err, ErrConnectivity):
		return KindConnectivity
	case errors.Is(err, ErrDatabase):
		return KindDatabase
	default:
		return KindUnknown
	}
}
