package fetch_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nanowc/wcedit/fetch"
)

type stubCallback struct {
	content []byte
	props   map[string]string
	err     error
}

func (s stubCallback) Fetch(ctx context.Context, relpath string, rev int64, dst io.Writer) (map[string]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	if _, err := dst.Write(s.content); err != nil {
		return nil, err
	}
	return s.props, nil
}

func TestCallback_Fetch(t *testing.T) {
	t.Parallel()

	var cb fetch.Callback = stubCallback{
		content: []byte("pristine bytes"),
		props:   map[string]string{"svn:mime-type": "text/plain"},
	}

	var buf bytes.Buffer
	props, err := cb.Fetch(context.Background(), "trunk/a.txt", 17, &buf)
	require.NoError(t, err)
	require.Equal(t, "pristine bytes", buf.String())
	require.Equal(t, "text/plain", props["svn:mime-type"])
}

func TestCallback_Fetch_Error(t *testing.T) {
	t.Parallel()

	var cb fetch.Callback = stubCallback{err: errors.New("copyfrom path not found")}
	var buf bytes.Buffer
	_, err := cb.Fetch(context.Background(), "trunk/missing.txt", 17, &buf)
	require.Error(t, err)
}
