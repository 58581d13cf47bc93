package domain

type LoadStatus int

const (
	StatusLoading LoadStatus = iota
	StatusReady
	StatusFailed
)

func (s LoadStatus) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	default:
		return "failed"
	}
}

// CatalogState is what the product list shows: a loading indicator, an error
// panel keyed by kind, or the live products.
type CatalogState struct {
	Status   LoadStatus
	Products []Product
	ErrKind  ErrorKind
	ErrMsg   string
}

// CartState keeps the last good cart while ErrMsg reports a failed mutation.
type CartState struct {
	Status LoadStatus
	Cart   Cart
	ErrMsg string
}
