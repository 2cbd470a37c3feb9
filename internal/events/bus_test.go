package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBusPublishReachesSubscribers(t *testing.T) {
	bus := &Bus{}
	var got []Change
	unsubscribe := bus.Subscribe(TopicPincodeChanged, func(_ context.Context, change Change) {
		got = append(got, change)
	})
	defer unsubscribe()

	err := bus.Publish(context.Background(), TopicPincodeChanged, Change{Key: "pincode", NewValue: "560001"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "560001", got[0].NewValue)
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := &Bus{}
	calls := 0
	unsubscribe := bus.Subscribe(TopicPincodeChanged, func(_ context.Context, _ Change) { calls++ })
	unsubscribe()

	require.NoError(t, bus.Publish(context.Background(), TopicPincodeChanged, Change{Key: "pincode"}))
	require.Zero(t, calls)
}

func TestBusTopicsAreIsolated(t *testing.T) {
	bus := &Bus{}
	calls := 0
	defer bus.Subscribe("other.topic", func(_ context.Context, _ Change) { calls++ })()

	require.NoError(t, bus.Publish(context.Background(), TopicPincodeChanged, Change{Key: "pincode"}))
	require.Zero(t, calls)
}

func TestBusPublishRequiresTopic(t *testing.T) {
	bus := &Bus{}
	require.Error(t, bus.Publish(context.Background(), "  ", Change{}))
}
