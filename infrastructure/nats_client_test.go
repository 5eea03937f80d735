package infrastructure

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNATSClient_Offline(t *testing.T) {
	t.Parallel()

	client := NewNATSClient([]string{"nats://127.0.0.1:4222"}, "fintrack-test")

	assert.False(t, client.IsConnected())
	assert.ErrorIs(t, client.Publish(context.Background(), "fintrack.schedule.executed", []byte("{}")), ErrEventBusOffline)
	assert.ErrorIs(t, client.EnsureStream(DomainEventStream, []string{"fintrack.>"}), ErrEventBusOffline)
	assert.NoError(t, client.Close())
}

func TestNATSClient_ConnectWithoutServers(t *testing.T) {
	t.Parallel()

	err := NewNATSClient(nil, "fintrack-test").Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no event bus servers")
}

func TestMissingSubjects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		existing []string
		wanted   []string
		expected []string
	}{
		{"all present", []string{"a", "b"}, []string{"b", "a"}, nil},
		{"new subject", []string{"a"}, []string{"a", "b", "c"}, []string{"b", "c"}},
		{"duplicates collapsed", nil, []string{"a", "a"}, []string{"a"}},
		{"nothing wanted", []string{"a"}, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, missingSubjects(tt.existing, tt.wanted))
		})
	}
}
