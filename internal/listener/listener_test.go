package listener

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	c, err := Parse(`{"key":"hijri_adjustment","value":"-1","ts":1772400000}`)
	require.NoError(t, err)
	assert.Equal(t, SettingChange{Key: "hijri_adjustment", Value: "-1", Timestamp: 1772400000}, c)

	_, err = Parse(`{"value":"1"}`)
	require.Error(t, err)

	_, err = Parse(`not json`)
	require.Error(t, err)
}
