package router

import (
	"fmt"

	"github.com/dmitrymomot/waypoint/core/handler"
)

// route is a registered endpoint. Its chain is compiled once at
// registration and never changes afterwards.
type route[C handler.Context] struct {
	method  string
	pattern string
	handler handler.HandlerFunc[C]
	chain   handler.HandlerFunc[C]
}

// node is a trie node keyed by whole path segments. A node has at most one
// parameter child, and that child's key is fixed when it is first created.
type node[C handler.Context] struct {
	children map[string]*node[C]
	param    *node[C]
	paramKey string
	wildcard *node[C]
	routes   map[string]*route[C]
}

// insert walks the segments, creating nodes as needed, and stores rt under
// method at the final node.
func (n *node[C]) insert(method string, segs []string, rt *route[C]) error {
	cur := n
	for _, seg := range segs {
		switch kindOf(seg) {
		case segStatic:
			if cur.children == nil {
				cur.children = make(map[string]*node[C])
			}
			child, ok := cur.children[seg]
			if !ok {
				child = &node[C]{}
				cur.children[seg] = child
			}
			cur = child

		case segParam:
			key := seg[1:]
			if cur.param == nil {
				cur.param = &node[C]{}
				cur.paramKey = key
			} else if cur.paramKey != key {
				return fmt.Errorf("%w: ':%s' conflicts with ':%s' in '%s'", ErrParamConflict, key, cur.paramKey, rt.pattern)
			}
			cur = cur.param

		case segWildcard:
			if cur.wildcard == nil {
				cur.wildcard = &node[C]{}
			}
			cur = cur.wildcard
		}
	}

	if cur.routes == nil {
		cur.routes = make(map[string]*route[C])
	}
	if _, exists := cur.routes[method]; exists {
		return fmt.Errorf("%w: %s %s", ErrRouteExists, method, rt.pattern)
	}
	cur.routes[method] = rt
	return nil
}

// match resolves segs against the trie. At each level an exact child wins
// over the parameter child, which wins over the wildcard. A wildcard ends the
// walk immediately and captures nothing. There is no backtracking: once a
// branch is chosen a dead end is a miss.
func (n *node[C]) match(method string, segs []string) (*route[C], map[string]string) {
	var params map[string]string
	cur := n

walk:
	for i, seg := range segs {
		if child, ok := cur.children[seg]; ok {
			cur = child
			continue
		}
		if cur.param != nil {
			if params == nil {
				params = make(map[string]string, len(segs)-i)
			}
			params[cur.paramKey] = seg
			cur = cur.param
			continue
		}
		if cur.wildcard != nil {
			cur = cur.wildcard
			break walk
		}
		return nil, nil
	}

	rt, ok := cur.routes[method]
	if !ok {
		return nil, nil
	}
	return rt, params
}
