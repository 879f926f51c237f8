package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/buoy-placefile/internal/domain"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func testPublisher(w messageWriter) *Publisher {
	return &Publisher{writer: w, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func ptr(f float64) *float64 { return &f }

func testSnapshot() domain.Snapshot {
	return domain.NewSnapshot(
		time.Date(2023, 9, 23, 16, 20, 0, 0, time.UTC),
		domain.Catalog{},
		domain.Observations{
			"B-46026": {StationID: "46026", Lat: ptr(37.755), Lon: ptr(-122.839), UTC: "2023-09-23T16:00:00+00:00"},
			"B-sfxc1": {StationID: "sfxc1", UTC: "2023-09-23T16:06:00+00:00"},
		},
	)
}

func TestSerializeToMessage(t *testing.T) {
	snap := testSnapshot()

	msg, err := serializeToMessage("B-sfxc1", snap.Observations["B-sfxc1"], snap)
	require.NoError(t, err)

	assert.Equal(t, []byte("B-SFXC1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"station_id":"sfxc1"`)
	assert.Len(t, msg.Headers, 2)
	assert.Equal(t, "generation", msg.Headers[0].Key)
	assert.Equal(t, []byte(snap.Generation), msg.Headers[0].Value)
	assert.Equal(t, "refreshed_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2023-09-23T16:20:00Z"), msg.Headers[1].Value)
}

func TestPublisher_PublishSnapshot(t *testing.T) {
	w := &fakeWriter{}
	p := testPublisher(w)

	n, err := p.PublishSnapshot(context.Background(), testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, w.msgs, 2)
	assert.Equal(t, []byte("B-46026"), w.msgs[0].Key)
	assert.Equal(t, []byte("B-SFXC1"), w.msgs[1].Key)
	assert.JSONEq(t,
		`{"station_id":"46026","lat":37.755,"lon":-122.839,"utc":"2023-09-23T16:00:00+00:00"}`,
		string(w.msgs[0].Value))
}

func TestPublisher_EmptySnapshot(t *testing.T) {
	w := &fakeWriter{}
	n, err := testPublisher(w).PublishSnapshot(context.Background(), domain.Snapshot{})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, w.msgs)
}

func TestPublisher_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	_, err := testPublisher(w).PublishSnapshot(context.Background(), testSnapshot())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish observations")
}

func TestPublisher_Close(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, testPublisher(w).Close())
	assert.True(t, w.closed)
}
