package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"messagewall/internal/config"
)

func TestPublicObjectURL(t *testing.T) {
	assert.Equal(t, "http://localhost:9000/message-images/abc.png",
		PublicObjectURL("http://localhost:9000/", "message-images", "abc.png"))
	assert.Equal(t, "https://cdn.example.com/b/k.jpg",
		PublicObjectURL("https://cdn.example.com", "b", "/k.jpg"))
}

func TestPublicBaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.MinIO
		want string
	}{
		{"plain endpoint", config.MinIO{Endpoint: "localhost:9000"}, "http://localhost:9000"},
		{"ssl endpoint", config.MinIO{Endpoint: "s3.local", UseSSL: true}, "https://s3.local"},
		{"explicit public url", config.MinIO{Endpoint: "minio:9000", PublicURL: "https://img.example.com/"}, "https://img.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, publicBaseURL(tt.cfg))
		})
	}
}
