// ABOUTME: WidgetRequest and callback maps for a single embedded discussion thread
// ABOUTME: Callbacks travel through lazy args as JSON; malformed input decodes to an empty map

package disqus

import (
	"encoding/json"
)

// Callbacks maps a widget event name (e.g. "onNewComment") to the ordered
// list of client-side function references to invoke.
type Callbacks map[string][]string

// Clone returns a deep copy. A nil map clones to an empty one.
func (c Callbacks) Clone() Callbacks {
	out := make(Callbacks, len(c))
	for event, refs := range c {
		out[event] = append([]string(nil), refs...)
	}
	return out
}

// EncodeCallbacks serializes callbacks for transport in a lazy unit.
func EncodeCallbacks(c Callbacks) string {
	if len(c) == 0 {
		return "{}"
	}
	data, err := json.Marshal(c)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// DecodeCallbacks parses the output of EncodeCallbacks. Anything that does
// not decode to an event map yields an empty map.
func DecodeCallbacks(s string) Callbacks {
	var c Callbacks
	if err := json.Unmarshal([]byte(s), &c); err != nil || c == nil {
		return Callbacks{}
	}
	return c
}

// WidgetRequest describes one thread to embed. It is built once per render
// and never modified.
type WidgetRequest struct {
	Title      string
	URL        string
	Identifier string
	Callbacks  Callbacks
}

// args flattens the request into lazy builder args.
func (r WidgetRequest) args() []string {
	return []string{r.Title, r.URL, r.Identifier, EncodeCallbacks(r.Callbacks)}
}

// requestFromArgs is the inverse of args. Missing trailing args are empty.
func requestFromArgs(args []string) WidgetRequest {
	get := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}
	return WidgetRequest{
		Title:      get(0),
		URL:        get(1),
		Identifier: get(2),
		Callbacks:  DecodeCallbacks(get(3)),
	}
}
