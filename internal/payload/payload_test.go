package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": Auto, "RAW": Raw, " chat ": Chat, "yaml": YAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestExtract_Chat(t *testing.T) {
	body := `{"model":"gpt-4o","user":"u-1","messages":[
		{"role":"system","content":"be brief"},
		{"role":"user","content":[{"type":"text","text":"my email is bob@example.com"},{"type":"image_url","image_url":{"url":"x"}}]}
	]}`
	req, err := Extract([]byte(body), Chat)
	require.NoError(t, err)
	assert.Equal(t, "be brief my email is bob@example.com ", req.Text)
	assert.Equal(t, map[string]string{
		"model": "gpt-4o", "user": "u-1", "messages": "2", "roles": "system,user",
	}, req.Meta)
}

func TestExtract_ChatErrors(t *testing.T) {
	_, err := Extract([]byte(`{"model":"x"}`), Chat)
	assert.ErrorContains(t, err, "no messages")

	_, err = Extract([]byte(`[1,2`), Chat)
	assert.Error(t, err)
}

func TestExtract_AutoFallsBackToRaw(t *testing.T) {
	req, err := Extract([]byte(`{"messages":[{"role":"user","content":"hi"}]}`), Auto)
	require.NoError(t, err)
	assert.Equal(t, "hi ", req.Text)

	for _, in := range []string{`{"a":1}`, "plain text {", `{"broken":`} {
		req, err = Extract([]byte(in), Auto)
		require.NoError(t, err)
		assert.Equal(t, in, req.Text)
		assert.Nil(t, req.Meta)
	}
}

func TestExtract_YAML(t *testing.T) {
	y := "" +
		"prompt:\n" +
		"  system: you are helpful\n" +
		"  examples:\n" +
		"    - ssn 123-45-6789\n" +
		"empty: \"\"\n"
	req, err := Extract([]byte(y), YAML)
	require.NoError(t, err)
	assert.Equal(t, "you are helpful\nssn 123-45-6789", req.Text)
	assert.Equal(t, "2", req.Meta["prompt.system"])
	assert.Equal(t, "4", req.Meta["prompt.examples"])

	_, err = Extract([]byte("a: [b"), YAML)
	assert.Error(t, err)
}

func TestExtract_Unknown(t *testing.T) {
	_, err := Extract([]byte("x"), Format("xml"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
