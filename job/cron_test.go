package job

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"convert-gateway/logic/stage"
	"convert-gateway/vars"
)

type fakeSweeper struct {
	cutoff  time.Time
	removed []string
	err     error
}

func (f *fakeSweeper) Sweep(cutoff time.Time) ([]string, error) {
	f.cutoff = cutoff
	return f.removed, f.err
}

type fakeExpirer struct {
	ids []string
	err error
}

func (f *fakeExpirer) ExpireConversions(_ context.Context, ids []string) (int64, error) {
	f.ids = ids
	return int64(len(ids)), f.err
}

func TestSweepJob_Run(t *testing.T) {
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	sweeper := &fakeSweeper{removed: []string{"a", "b"}}
	expirer := &fakeExpirer{}

	j := &SweepJob{
		Scratch:   sweeper,
		Records:   expirer,
		Retention: 24 * time.Hour,
		Now:       func() time.Time { return now },
	}

	n, err := j.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, now.Add(-24*time.Hour), sweeper.cutoff)
	assert.Equal(t, []string{"a", "b"}, expirer.ids)
}

func TestSweepJob_NothingRemovedSkipsHistory(t *testing.T) {
	expirer := &fakeExpirer{}
	j := &SweepJob{Scratch: &fakeSweeper{}, Records: expirer, Retention: time.Hour}

	n, err := j.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Nil(t, expirer.ids)
}

func TestSweepJob_Errors(t *testing.T) {
	sweepErr := errors.New("permission denied")
	j := &SweepJob{Scratch: &fakeSweeper{removed: []string{"a"}, err: sweepErr}, Retention: time.Hour}
	n, err := j.Run(context.Background())
	assert.ErrorIs(t, err, sweepErr)
	assert.Equal(t, 1, n)

	expErr := errors.New("db down")
	j = &SweepJob{
		Scratch:   &fakeSweeper{removed: []string{"a"}},
		Records:   &fakeExpirer{err: expErr},
		Retention: time.Hour,
	}
	_, err = j.Run(context.Background())
	assert.ErrorIs(t, err, expErr)
}

func TestStartCronJob(t *testing.T) {
	j := &SweepJob{Scratch: &fakeSweeper{}, Retention: time.Hour}

	c, err := StartCronJob("0 */30 * * * *", j)
	require.NoError(t, err)
	require.Len(t, c.Entries(), 1)
	<-c.Stop().Done()

	_, err = StartCronJob("not a schedule", j)
	assert.Error(t, err)

	_, err = StartCronJob("0 */30 * * * *", &SweepJob{Scratch: &fakeSweeper{}})
	assert.Error(t, err)
}

func TestSweepJob_RealScratch(t *testing.T) {
	scratch, err := stage.NewScratch(t.TempDir())
	require.NoError(t, err)
	_, err = scratch.Stage("stale", "a.pdf", strings.NewReader("x"))
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	staleDir := filepath.Join(scratch.Root(), vars.UploadsDir, "stale")
	require.NoError(t, os.Chtimes(staleDir, past, past))

	expirer := &fakeExpirer{}
	j := &SweepJob{Scratch: scratch, Records: expirer, Retention: time.Hour}

	n, err := j.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"stale"}, expirer.ids)
	assert.NoDirExists(t, staleDir)
}
