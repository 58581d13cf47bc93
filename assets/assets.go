// Package assets bundles the seed catalog into the binary.
package assets

import "embed"

// Products is the file name of the bundled catalog in FS.
const Products = "products.json"

//go:embed products.json
var FS embed.FS
