package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/interfaces"
)

func TestPublishSyncDeliversToAllSubscribers(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	defer svc.Close()

	var count int32
	handler := func(ctx context.Context, event interfaces.Event) error {
		atomic.AddInt32(&count, 1)
		return nil
	}

	require.NoError(t, svc.Subscribe(interfaces.EventAnalysisStarted, handler))
	require.NoError(t, svc.Subscribe(interfaces.EventAnalysisStarted, handler))

	err := svc.PublishSync(context.Background(), interfaces.Event{
		Type:    interfaces.EventAnalysisStarted,
		Payload: map[string]string{"symbol": "AAPL"},
	})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&count))
}

func TestPublishSyncReportsHandlerErrors(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	defer svc.Close()

	require.NoError(t, svc.Subscribe(interfaces.EventScanCompleted, func(ctx context.Context, event interfaces.Event) error {
		return errors.New("handler broke")
	}))

	err := svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventScanCompleted})
	assert.Error(t, err)
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	defer svc.Close()

	assert.NoError(t, svc.Publish(context.Background(), interfaces.Event{Type: interfaces.EventScanStarted}))
}

func TestSubscribeRejectsNilHandler(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	defer svc.Close()

	assert.Error(t, svc.Subscribe(interfaces.EventAnalysisCompleted, nil))
}
