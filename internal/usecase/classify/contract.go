package classify

import (
	"github.com/podscout/podscout/internal/tagindex"
)

// TagLookup matches query text against the keyword→tag table.
type TagLookup interface {
	Lookup(text string) []tagindex.Match
}
