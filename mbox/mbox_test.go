package mbox

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhcgn/contact-cleaner/archive"
	"github.com/dhcgn/contact-cleaner/model"
)

const sampleMbox = `From jane@x.com Mon Jan  2 15:04:05 2006
From: Jane Doe <jane@x.com>
To: Bob <bob@y.com>, carl@z.com
Subject: first

hello

From bob@y.com Mon Jan  2 16:04:05 2006
From: bob@y.com
To: Jane Doe <jane@x.com>
Cc: dee@z.com
Subject: second

>From the body, escaped

From broken@x.com Mon Jan  2 17:04:05 2006
From: "Carl" <carl@z.com>
Subject: third

bye
`

func writeMbox(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Archive.mbox")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func stream(t *testing.T, src *Source) ([]model.MessageRecord, error) {
	t.Helper()

	out := make(chan model.Envelope, 10)
	done := make(chan error, 1)
	go func() {
		done <- src.Stream(context.Background(), out)
		close(out)
	}()

	var recs []model.MessageRecord
	for env := range out {
		if env.Err != nil {
			t.Logf("Error encountered: %v", env.Err)
			continue
		}
		recs = append(recs, *env.Record)
	}
	return recs, <-done
}

func TestStream(t *testing.T) {
	src, err := New(Options{Path: writeMbox(t, sampleMbox)}, nil)
	require.NoError(t, err)

	recs, err := stream(t, src)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "Jane Doe <jane@x.com>", recs[0].Sender)
	assert.Equal(t, "Bob <bob@y.com>, carl@z.com", recs[0].Recipients)
	assert.Equal(t, "first", recs[0].Subject)
	assert.Equal(t, "Archive", recs[0].Folder)

	assert.Equal(t, "bob@y.com", recs[1].Sender)
	assert.Equal(t, "Jane Doe <jane@x.com>, dee@z.com", recs[1].Recipients)

	assert.Equal(t, `"Carl" <carl@z.com>`, recs[2].Sender)
	assert.Empty(t, recs[2].Recipients)
}

func TestStreamFolderOverride(t *testing.T) {
	src, err := New(Options{Path: writeMbox(t, sampleMbox), Folder: "Sent"}, nil)
	require.NoError(t, err)

	recs, err := stream(t, src)
	require.NoError(t, err)
	require.NotEmpty(t, recs)
	assert.Equal(t, "Sent", recs[0].Folder)
}

func TestStreamMissingFile(t *testing.T) {
	src, err := New(Options{Path: filepath.Join(t.TempDir(), "missing.mbox")}, nil)
	require.NoError(t, err)

	_, err = stream(t, src)
	assert.True(t, errors.Is(err, archive.ErrSourceUnavailable))
}

func TestNewEmptyPath(t *testing.T) {
	_, err := New(Options{Path: "  "}, nil)
	assert.Error(t, err)
}

func TestSniff(t *testing.T) {
	assert.True(t, Sniff(writeMbox(t, sampleMbox)))

	other := filepath.Join(t.TempDir(), "x.txt")
	require.NoError(t, os.WriteFile(other, []byte("Subject: x\n"), 0o644))
	assert.False(t, Sniff(other))
	assert.False(t, Sniff(filepath.Join(t.TempDir(), "missing")))
}
