package miniostorage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEndpoint(t *testing.T) {
	tests := []struct {
		name      string
		explicit  string
		container string
		want      string
	}{
		{"explicit wins", "s3.local:9443", "minio", "s3.local:9443"},
		{"container on default port", "", "minio", "minio:9000"},
		{"blank explicit", "   ", "minio", "minio:9000"},
		{"nothing set", "", "", "localhost:9000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Endpoint(tt.explicit, tt.container))
		})
	}
}
