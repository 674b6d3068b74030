// Package def provides the built-in "default" knowledge domain: open-ended
// entity/relation extraction with no advisory schema. Import it for its
// side effect to register the domain:
//
//	import _ "github.com/kgconstruct/kgraph/domains/default"
package def

import (
	"embed"

	"github.com/kgconstruct/kgraph"
)

//go:embed extraction augmentation
var resources embed.FS

func init() {
	kgraph.RegisterDomain(kgraph.NewKnowledgeDomain("default", resources))
}
