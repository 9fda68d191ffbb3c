package layout

import "zen/internal/types"

type cache struct {
	byType map[types.TypeID]*TaggedUnionLayout
}

func newCache() *cache {
	return &cache{byType: make(map[types.TypeID]*TaggedUnionLayout, 64)}
}

func (c *cache) get(id types.TypeID) (*TaggedUnionLayout, bool) {
	if c == nil {
		return nil, false
	}
	l, ok := c.byType[id]
	return l, ok
}

func (c *cache) put(id types.TypeID, l *TaggedUnionLayout) {
	if c == nil || l == nil {
		return
	}
	c.byType[id] = l
}
