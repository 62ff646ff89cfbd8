package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadResource_Languages(t *testing.T) {
	srv := newTestServer(t, t.TempDir())

	res, err := srv.readResource(context.Background(), languagesURI)

	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, "application/json", res.Contents[0].MIMEType)

	var out ListLanguagesOutput
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &out))
	assert.NotEmpty(t, out.Languages)
}

func TestReadResource_Config(t *testing.T) {
	srv := newTestServer(t, t.TempDir())

	res, err := srv.readResource(context.Background(), configURI)

	require.NoError(t, err)
	assert.Equal(t, "text/x-yaml", res.Contents[0].MIMEType)
	assert.Contains(t, res.Contents[0].Text, "style: xml")
}

func TestReadResource_Unknown(t *testing.T) {
	srv := newTestServer(t, t.TempDir())

	_, err := srv.readResource(context.Background(), "amanpack://nope")

	require.Error(t, err)
	assert.Equal(t, ErrCodeMethodNotFound, MapError(err).Code)
}
