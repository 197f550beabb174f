package json

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

func TestMarshalRoundTrip(t *testing.T) {
	in := sample{Name: "thermal", Values: []float64{1.5, -2}}
	data, err := Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"thermal","values":[1.5,-2]}`, string(data))

	var out sample
	require.NoError(t, Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestEncoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(map[string]int{"a": 1}))
	assert.JSONEq(t, `{"a":1}`, buf.String())

	indented, err := MarshalIndent(map[string]int{"a": 1}, "", "  ")
	require.NoError(t, err)
	assert.Contains(t, string(indented), "\n")
}
