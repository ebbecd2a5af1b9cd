package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_ClaimThenClaimReturnsPrior(t *testing.T) {
	s := New[string, string]()
	now := time.Now()

	prior, err := s.Claim(context.Background(), "k", "p", now)
	require.NoError(t, err)
	assert.Nil(t, prior)

	prior, err = s.Claim(context.Background(), "k", "p", now.Add(time.Second))
	require.NoError(t, err)
	require.NotNil(t, prior)
	assert.True(t, now.Equal(prior.StartedAt))
}

func TestStore_CommitThenClaimSeesCompleted(t *testing.T) {
	s := New[string, string]()
	now := time.Now()

	_, err := s.Claim(context.Background(), "k", "p", now)
	require.NoError(t, err)
	require.NoError(t, s.Commit(context.Background(), "k", "p", now.Add(time.Second), time.Hour))

	prior, err := s.Claim(context.Background(), "k", "p", now.Add(2*time.Second))
	require.NoError(t, err)
	require.NotNil(t, prior)
	assert.False(t, prior.CompletedAt.IsZero())
	assert.True(t, prior.ExpiresOn.After(prior.CompletedAt))
}

func TestStore_DistinctKeysAreIndependent(t *testing.T) {
	s := New[string, string]()
	now := time.Now()

	_, err := s.Claim(context.Background(), "k", "p1", now)
	require.NoError(t, err)

	prior, err := s.Claim(context.Background(), "k", "p2", now)
	require.NoError(t, err)
	assert.Nil(t, prior, "different processorID is a distinct record")

	assert.Equal(t, 2, s.Len())
}

func TestStore_Reset(t *testing.T) {
	s := New[string, string]()
	_, err := s.Claim(context.Background(), "k", "p", time.Now())
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())

	s.Reset()
	assert.Equal(t, 0, s.Len())
}
