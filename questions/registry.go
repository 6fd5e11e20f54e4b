package questions

import (
	"fmt"
	"sort"
)

// registry maps type tags to their implementations. It is populated once by
// package init, before any request handling can begin, and is read-only
// afterwards.
var registry = map[string]Definition{}

func init() {
	Register(SingleChoice{})
	Register(MultipleChoice{})
	Register(Text{})
	Register(Rating{})
	Register(Scale{})
}

// Register adds a question type implementation. Registering the same tag
// twice is a programming error.
func Register(def Definition) {
	if _, dup := registry[def.Tag()]; dup {
		panic(fmt.Sprintf("questions: duplicate registration of type %q", def.Tag()))
	}
	registry[def.Tag()] = def
}

// Get returns the implementation for a type tag. A survey may reference a
// tag this version does not recognize: callers are expected to skip such
// questions with a warning rather than fail.
func Get(tag string) (Definition, bool) {
	def, found := registry[tag]
	return def, found
}

// All returns the registered definitions, ordered by tag.
func All() []Definition {
	defs := make([]Definition, 0, len(registry))
	for _, def := range registry {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Tag() < defs[j].Tag() })
	return defs
}
