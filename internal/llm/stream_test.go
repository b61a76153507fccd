package llm

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedStream struct {
	fragments []string
	failWith  error
	closed    bool
}

func (s *scriptedStream) Recv() (string, error) {
	if len(s.fragments) == 0 {
		if s.failWith != nil {
			return "", s.failWith
		}
		return "", io.EOF
	}
	fragment := s.fragments[0]
	s.fragments = s.fragments[1:]
	return fragment, nil
}

func (s *scriptedStream) Close() error {
	s.closed = true
	return nil
}

func TestCollect(t *testing.T) {
	s := &scriptedStream{fragments: []string{"The ", "answer ", "is ECG."}}
	out, err := Collect(s)
	require.NoError(t, err)
	assert.Equal(t, "The answer is ECG.", out)
	assert.True(t, s.closed)
}

func TestCollectEmptyStream(t *testing.T) {
	s := &scriptedStream{}
	out, err := Collect(s)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCollectPropagatesError(t *testing.T) {
	s := &scriptedStream{fragments: []string{"partial "}, failWith: errors.New("connection reset")}
	_, err := Collect(s)
	assert.Error(t, err)
	assert.True(t, s.closed, "stream must be closed even on failure")
}
