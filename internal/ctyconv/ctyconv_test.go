package ctyconv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestRender(t *testing.T) {
	testCases := []struct {
		name string
		in   cty.Value
		want string
	}{
		{"string verbatim", cty.StringVal("17 years"), "17 years"},
		{"integer", cty.NumberIntVal(42), "42"},
		{"fraction", cty.NumberFloatVal(2.5), "2.5"},
		{"bool", cty.True, "true"},
		{"null", cty.NullVal(cty.String), ""},
		{"tuple as json", cty.TupleVal([]cty.Value{cty.StringVal("a"), cty.NumberIntVal(1)}), `["a",1]`},
		{"object as json", cty.ObjectVal(map[string]cty.Value{"k": cty.StringVal("v")}), `{"k":"v"}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Render(tc.in))
		})
	}
}

func TestNativeRoundTrip(t *testing.T) {
	in := map[string]any{
		"title": "Cookie",
		"age":   float64(83),
		"alive": false,
		"tags":  []any{"cockatoo", "zoo"},
	}
	v, err := FromNative(in)
	require.NoError(t, err)
	assert.True(t, v.Type().IsObjectType())

	out, err := ToNative(v)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestFromNative_Unsupported(t *testing.T) {
	_, err := FromNative(struct{}{})
	assert.ErrorContains(t, err, "unsupported type")
}

func TestFromJSON(t *testing.T) {
	v, err := FromJSON([]byte(`{"results":[{"content":"parrots"}]}`))
	require.NoError(t, err)
	results := v.GetAttr("results")
	require.Equal(t, 1, results.LengthInt())
	assert.Equal(t, "parrots", results.Index(cty.NumberIntVal(0)).GetAttr("content").AsString())

	_, err = FromJSON([]byte(`{not json`))
	assert.Error(t, err)
}
