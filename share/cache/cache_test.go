package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func TestGetRefreshesOnceWithinTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)}
	calls := 0
	c := New[string](time.Hour, func(ctx context.Context) (string, error) {
		calls++
		return "203.0.113.7", nil
	}, WithClock[string](clock.Now))

	ctx := context.Background()

	got, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", got)
	assert.Equal(t, 1, calls)

	clock.Advance(3599 * time.Second)
	got, err = c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", got)
	assert.Equal(t, 1, calls)

	clock.Advance(2 * time.Second)
	_, err = c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestGetServesStaleOnRefreshFailure(t *testing.T) {
	clock := &fakeClock{now: time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)}
	calls := 0
	c := New[string](time.Minute, func(ctx context.Context) (string, error) {
		calls++
		if calls > 1 {
			return "", errors.New("lookup failed")
		}
		return "first", nil
	}, WithClock[string](clock.Now))

	ctx := context.Background()

	got, err := c.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "first", got)

	clock.Advance(2 * time.Minute)
	got, err = c.Get(ctx)
	require.ErrorIs(t, err, ErrServedStale)
	assert.Equal(t, "first", got)

	clock.Advance(2 * time.Minute)
	got, err = c.Get(ctx)
	require.ErrorIs(t, err, ErrServedStale)
	assert.Equal(t, "first", got)
	assert.Equal(t, 3, calls)
}

func TestGetReturnsErrorWhenEmpty(t *testing.T) {
	wantErr := errors.New("unreachable")
	c := New[int](time.Minute, func(ctx context.Context) (int, error) {
		return 0, wantErr
	})

	got, err := c.Get(context.Background())
	require.ErrorIs(t, err, wantErr)
	assert.Zero(t, got)

	_, ok := c.Peek()
	assert.False(t, ok)
}

func TestValidatedRefreshesUntilValid(t *testing.T) {
	calls := 0
	values := []string{"", "", "ready"}
	c := NewValidated[string](func(v string) bool {
		return v != ""
	}, func(ctx context.Context) (string, error) {
		v := values[calls]
		calls++
		return v, nil
	})

	ctx := context.Background()

	got, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = c.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ready", got)
	require.Equal(t, 3, calls)

	got, err = c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ready", got)
	assert.Equal(t, 3, calls)
}

func TestInvalidateForcesRefresh(t *testing.T) {
	calls := 0
	c := NewValidated[string](func(v string) bool {
		return true
	}, func(ctx context.Context) (string, error) {
		calls++
		return "v", nil
	})

	ctx := context.Background()

	_, err := c.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	_, err = c.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	c.Invalidate()

	_, ok := c.Peek()
	assert.False(t, ok)

	_, err = c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
