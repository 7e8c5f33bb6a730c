package main

import (
	"bytes"
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	recursivehasher "github.com/mattkeenan/recursivehasher/pkg"
)

func TestReporterPrintsExceptionsInOrder(t *testing.T) {
	session, err := recursivehasher.NewSession(nil, nil)
	require.NoError(t, err)
	defer session.Close()

	var out bytes.Buffer
	rep := newReporter(session, &out)
	rep.Start()
	session.Sink().Report(recursivehasher.StageHashing, "", &fs.PathError{Op: "open", Path: "/srv/first.txt", Err: unix.EACCES})
	session.Sink().Report(recursivehasher.StageCopy, "/srv/second.txt", errors.New("disk full"))
	rep.Stop()

	text := out.String()
	first := bytes.Index(out.Bytes(), []byte("hashing failed: AccessDenied - first.txt"))
	second := bytes.Index(out.Bytes(), []byte("copy failed: Other - second.txt"))
	require.NotEqual(t, -1, first, text)
	require.NotEqual(t, -1, second, text)
	assert.Less(t, first, second)
	assert.Equal(t, 2, rep.FailureTotal())

	out.Reset()
	rep.PrintFailureTable()
	assert.Contains(t, out.String(), "AccessDenied")
	assert.Contains(t, out.String(), "TOTAL")
}

func TestReporterNoFailuresNoTable(t *testing.T) {
	session, err := recursivehasher.NewSession(nil, nil)
	require.NoError(t, err)
	defer session.Close()

	var out bytes.Buffer
	rep := newReporter(session, &out)
	rep.Start()
	rep.Stop()

	rep.PrintFailureTable()
	assert.Empty(t, out.String())
	assert.Zero(t, rep.FailureTotal())
}
