package tagstore

import (
	"context"
	"errors"
	"testing"

	"github.com/c360studio/semstreams/metric"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	calls map[string][]string
	err   error
}

func (r *recordingNotifier) TagsChanged(_ context.Context, url string, labels []string) error {
	if r.calls == nil {
		r.calls = make(map[string][]string)
	}
	r.calls[url] = labels
	return r.err
}

func TestInstrumentCountsOutcomes(t *testing.T) {
	registry := metric.NewMetricsRegistry()
	m, err := NewMetrics(registry)
	require.NoError(t, err)

	inner, _ := newIndexedStore(t, fileA)
	s := Instrument(inner, m)
	ctx := context.Background()

	_, err = s.Associate(ctx, fileA, "work")
	require.NoError(t, err)
	_, err = s.Associate(ctx, fileA, "bad,label")
	require.Error(t, err)
	_, err = s.ListTags(ctx, fileA)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("associate", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("associate", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("list_tags", "ok")))

	_, err = NewMetrics(registry)
	assert.Error(t, err, "duplicate registration")
}

func TestNotifyReportsNewTagList(t *testing.T) {
	inner, _ := newIndexedStore(t, fileA)
	n := &recordingNotifier{}
	s := Notify(inner, n, nil)
	ctx := context.Background()

	_, err := s.Associate(ctx, fileA, "x")
	require.NoError(t, err)
	_, err = s.Associate(ctx, fileA, "y")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, n.calls[fileA])

	require.NoError(t, s.Disassociate(ctx, fileA, "x"))
	assert.Equal(t, []string{"y"}, n.calls[fileA])
}

func TestNotifyFailureDoesNotFailMutation(t *testing.T) {
	inner, _ := newIndexedStore(t, fileA)
	s := Notify(inner, &recordingNotifier{err: errors.New("down")}, nil)

	ok, err := s.Associate(context.Background(), fileA, "x")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNotifySkipsFailedMutation(t *testing.T) {
	inner, _ := newIndexedStore(t, fileA)
	n := &recordingNotifier{}
	s := Notify(inner, n, nil)

	_, err := s.Associate(context.Background(), fileA, "")
	require.ErrorIs(t, err, ErrInvalidLabel)
	assert.Empty(t, n.calls)
}
