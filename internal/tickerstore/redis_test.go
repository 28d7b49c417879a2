package tickerstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "secfilter:ticker:320193", Key("320193"))
}

func TestOpenInvalidURL(t *testing.T) {
	_, err := Open(context.Background(), "not a url", time.Hour)
	assert.Error(t, err)
}

// TestRoundTrip needs a live server: SECFILTER_TEST_REDIS_URL=redis://localhost:6379/15
func TestRoundTrip(t *testing.T) {
	url := os.Getenv("SECFILTER_TEST_REDIS_URL")
	if url == "" {
		t.Skip("SECFILTER_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, url, time.Minute)
	require.NoError(t, err)
	defer s.Close()

	cik := "test-" + time.Now().Format("150405.000000")
	_, ok, err := s.Get(ctx, cik)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, cik, "TEST"))
	got, ok, err := s.Get(ctx, cik)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "TEST", got)
}
