package disqus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallbacks_RoundTrip(t *testing.T) {
	in := Callbacks{
		"onNewComment": {"first", "site.other.second"},
		"onReady":      {"ready"},
		"onIdentify":   {},
	}

	out := DecodeCallbacks(EncodeCallbacks(in))
	assert.Equal(t, in, out)

	out["onNewComment"][0] = "mutated"
	out["onReady"] = append(out["onReady"], "extra")
	assert.Equal(t, "first", in["onNewComment"][0], "decoded map must not alias the input")
	assert.Equal(t, []string{"ready"}, in["onReady"])
}

func TestDecodeCallbacks_Malformed(t *testing.T) {
	for _, s := range []string{"", "not json", "[1,2]", `{"onReady": "x"}`, "null", `{"a": [1]}`} {
		t.Run(s, func(t *testing.T) {
			got := DecodeCallbacks(s)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestCallbacks_Clone(t *testing.T) {
	in := Callbacks{"onNewComment": {"a"}}
	out := in.Clone()
	out["onNewComment"] = append(out["onNewComment"], "b")
	out["onReady"] = []string{"c"}

	assert.Equal(t, Callbacks{"onNewComment": {"a"}}, in)
	assert.NotNil(t, Callbacks(nil).Clone())
}

func TestRequestFromArgs_Short(t *testing.T) {
	req := requestFromArgs([]string{"T"})
	assert.Equal(t, "T", req.Title)
	assert.Empty(t, req.URL)
	assert.Empty(t, req.Identifier)
	assert.Empty(t, req.Callbacks)
}
