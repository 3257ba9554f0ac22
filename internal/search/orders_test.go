package search

import (
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchBody(t *testing.T) {
	r, err := searchBody("Cầu Giấy")
	require.NoError(t, err)
	raw, err := io.ReadAll(r)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	mm := decoded["query"].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "Cầu Giấy", mm["query"])
	assert.Contains(t, mm["fields"], "address")
	assert.Contains(t, mm["fields"], "order_items.name")
	assert.EqualValues(t, maxResults, decoded["size"])
}

func TestDecodeHits(t *testing.T) {
	body := `{"hits":{"total":{"value":2},"hits":[
		{"_id":"o1","_source":{"id":"o1","user":"u1","status":"paid","total":"190"}},
		{"_id":"o2","_source":{"id":"o2","user":"u2","status":"pending","total":190.5}}
	]}}`

	orders, err := decodeHits(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "o1", orders[0].ID)
	assert.Equal(t, "paid", orders[0].Status)
	assert.Equal(t, "190", orders[0].Total.String())
	assert.Equal(t, "190.5", orders[1].Total.String())

	_, err = decodeHits(strings.NewReader("not json"))
	assert.Error(t, err)
}
