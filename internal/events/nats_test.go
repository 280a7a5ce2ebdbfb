package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"doclib/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	err      error
	drained  bool
}

func (f *fakeConn) Publish(subj string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subj)
	f.payloads = append(f.payloads, data)
	return nil
}

func (f *fakeConn) Drain() error {
	f.drained = true
	return nil
}

func TestNATSPublisher_Publish(t *testing.T) {
	conn := &fakeConn{}
	p := newNATSPublisher(conn, "library")

	err := p.Publish(context.Background(), Uploaded(model.Document{ID: "a", Name: "a.pdf", Size: "1.00 KB"}))
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), Deleted("a")))

	assert.Equal(t, []string{"library.uploaded", "library.deleted"}, conn.subjects)

	var ev DocumentEvent
	require.NoError(t, json.Unmarshal(conn.payloads[0], &ev))
	assert.Equal(t, TypeUploaded, ev.Type)
	assert.Equal(t, "a", ev.DocumentID)
	assert.Equal(t, "a.pdf", ev.Name)

	require.NoError(t, p.Close())
	assert.True(t, conn.drained)
}

func TestNATSPublisher_Errors(t *testing.T) {
	conn := &fakeConn{err: errors.New("nats: connection closed")}
	p := newNATSPublisher(conn, "")

	assert.Equal(t, "documents.deleted", p.Subject(TypeDeleted))
	assert.ErrorContains(t, p.Publish(context.Background(), Deleted("x")), "connection closed")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, Deleted("x")), context.Canceled)
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.Publish(context.Background(), Deleted("x")))
	assert.NoError(t, p.Close())
}
