package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataValue_JSONRoundTrip(t *testing.T) {
	meta := Metadata{
		"source":  StringValue("slack"),
		"weight":  NumberValue(1.5),
		"curated": BoolValue(true),
	}

	data, err := json.Marshal(meta)
	require.NoError(t, err)

	var decoded Metadata
	require.NoError(t, json.Unmarshal(data, &decoded))

	s, ok := decoded["source"].String()
	assert.True(t, ok)
	assert.Equal(t, "slack", s)

	n, ok := decoded["weight"].Number()
	assert.True(t, ok)
	assert.Equal(t, 1.5, n)

	b, ok := decoded["curated"].Bool()
	assert.True(t, ok)
	assert.True(t, b)
}

func TestMetadataValue_UnmarshalRejectsCompositeTypes(t *testing.T) {
	var meta Metadata
	err := json.Unmarshal([]byte(`{"nested": {"a": 1}}`), &meta)
	assert.Error(t, err)

	err = json.Unmarshal([]byte(`{"list": [1, 2]}`), &meta)
	assert.Error(t, err)
}
