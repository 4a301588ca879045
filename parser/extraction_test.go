package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFragmentFilledKeys(t *testing.T) {
	raw := `{"qa_pairs":[{"question":"Do you encrypt data at rest?","answer":"Yes, AES-256.","domain":"Security","type":"yes/no"}],"narrative_content":"Intro prose.","meta_data":{"company_name":"Acme Corp","category":"RFP"}}`

	frag, err := decodeFragment(raw)

	require.NoError(t, err)
	require.Len(t, frag.Items, 1)
	assert.Equal(t, "Do you encrypt data at rest?", frag.Items[0].Question)
	assert.Equal(t, "Yes, AES-256.", frag.Items[0].Answer)
	assert.Equal(t, "Intro prose.", frag.Narrative)
	require.NotNil(t, frag.Meta)
	assert.Equal(t, "Acme Corp", frag.Meta.CompanyName)
}

func TestDecodeFragmentBlankKeysAndFence(t *testing.T) {
	raw := "```json\n{\"questions\":[{\"question\":\"Describe your SLA.\",\"domain\":\"Operations\"}],\"description\":\"Instructions here.\"}\n```"

	frag, err := decodeFragment(raw)

	require.NoError(t, err)
	require.Len(t, frag.Items, 1)
	assert.Equal(t, "Describe your SLA.", frag.Items[0].Question)
	assert.Equal(t, "Instructions here.", frag.Narrative)
	assert.Nil(t, frag.Meta)
}

func TestDecodeFragmentMalformedJSON(t *testing.T) {
	_, err := decodeFragment("the model rambled instead of emitting JSON")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode extraction JSON")
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences(`{"a":1}`))
}
