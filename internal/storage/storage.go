// Package storage connects the app to the object storage holding sources, watermarks and results
package storage

import (
	"context"
	"log"
	"time"

	"github.com/UnendingLoop/Watermarker/internal/storage/miniostorage"
	"github.com/wb-go/wbf/config"
)

// NewObjectStorage retries the connection every delay until it succeeds or ctx is done.
func NewObjectStorage(ctx context.Context, cfg *config.Config, delay time.Duration) (*miniostorage.MinioObjectStorage, error) {
	for {
		log.Println("Connecting to object storage...")
		client, err := miniostorage.NewMinioClient(ctx, cfg)
		if err == nil {
			log.Println("Successfully connected to object storage!")
			return client, nil
		}

		log.Printf("Failed to init connection to object storage: %v\nNext retry in %v...", err, delay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}
