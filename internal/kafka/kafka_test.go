package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

func TestTopicsReady(t *testing.T) {
	require.True(t, topicsReady(map[string]error{}))
	require.True(t, topicsReady(map[string]error{"tasks": nil, "old": kafkago.TopicAlreadyExists}))
	require.False(t, topicsReady(map[string]error{"tasks": nil, "bad": errors.New("boom")}))
}

func TestWaitKafkaReadyCanceled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// nothing listens on port 1
	err := WaitKafkaReady(ctx, "127.0.0.1:1", 10*time.Millisecond)
	require.Error(t, err)
}
