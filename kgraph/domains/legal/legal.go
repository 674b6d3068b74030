// Package legal provides the built-in "legal" knowledge domain: legal-case
// extraction (parties, representation, courts, rulings) with an advisory
// entity/relation schema. Import it for its side effect to register the
// domain:
//
//	import _ "github.com/kgconstruct/kgraph/domains/legal"
package legal

import (
	"embed"

	"github.com/kgconstruct/kgraph"
)

//go:embed extraction augmentation schema.json
var resources embed.FS

func init() {
	kgraph.RegisterDomain(kgraph.NewKnowledgeDomain("legal", resources))
}
