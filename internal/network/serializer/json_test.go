package serializer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/matprops-go/pkg/util/merr"
)

func TestJSONSerializerStatus(t *testing.T) {
	var ser Serializer = JSONSerializer{}
	data, err := ser.Marshal(merr.NewStatus(merr.WrapErrProtocolInvalidEndianness("elastic", 2)))
	require.NoError(t, err)

	var status merr.Status
	require.NoError(t, ser.Unmarshal(data, &status))
	assert.Equal(t, merr.Code(merr.ErrProtocolInvalidEndianness), status.Code)
	assert.Equal(t, "input_error", status.Type)
	assert.ErrorIs(t, merr.Error(&status), merr.ErrProtocolInvalidEndianness)
	assert.Equal(t, "application/json; charset=utf-8", ser.ContentType())
}

func TestJSONSerializerIndent(t *testing.T) {
	data, err := JSONSerializer{Indent: "  "}.Marshal(map[string]int{"size": 48})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"size\": 48\n}", string(data))
}
