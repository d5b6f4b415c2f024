package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/csvutil/internal/csvutil"
)

func numbered(n int) csvutil.Source {
	recs := make([]*csvutil.Record, n)
	for i := range recs {
		recs[i] = csvutil.RecordOf("n", i+1)
	}
	return csvutil.Records(recs...)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestRunShards_DirSink(t *testing.T) {
	out := filepath.Join(t.TempDir(), "shards")
	sink := DirSink{Dir: out, Base: "orders"}

	shards, err := RunShards(context.Background(), numbered(10), csvutil.WriteOptions{ShardSize: 4, TempDir: t.TempDir()}, sink)
	require.NoError(t, err)
	require.Len(t, shards, 3)

	wantRows := []int{4, 4, 2}
	for i, s := range shards {
		assert.Equal(t, i+1, s.Num)
		assert.Equal(t, wantRows[i], s.Rows)
		assert.Equal(t, filepath.Join(out, fmt.Sprintf("orders-%05d.csv", i+1)), s.Location)
	}
	assert.Equal(t, "n\n9\n10\n", readFile(t, shards[2].Location))
}

func TestRunShards_ExactMultiple(t *testing.T) {
	var got []string
	sink := SinkFunc(func(_ context.Context, path string, num int) (string, error) {
		got = append(got, readFile(t, path))
		return path, os.Remove(path)
	})

	shards, err := RunShards(context.Background(), numbered(4), csvutil.WriteOptions{ShardSize: 2, TempDir: t.TempDir()}, sink)
	require.NoError(t, err)
	assert.Len(t, shards, 2)
	assert.Equal(t, []string{"n\n1\n2\n", "n\n3\n4\n"}, got)
}

func TestRunShards_EmptySource(t *testing.T) {
	sink := SinkFunc(func(context.Context, string, int) (string, error) {
		t.Fatal("sink called for empty source")
		return "", nil
	})

	shards, err := RunShards(context.Background(), numbered(0), csvutil.WriteOptions{ShardSize: 3, TempDir: t.TempDir()}, sink)
	require.NoError(t, err)
	assert.Empty(t, shards)
}

func TestRunShards_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sink := SinkFunc(func(_ context.Context, path string, _ int) (string, error) {
		cancel()
		return path, os.Remove(path)
	})

	shards, err := RunShards(ctx, numbered(10), csvutil.WriteOptions{ShardSize: 3, TempDir: t.TempDir()}, sink)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, shards, 1)
}

func TestRunShards_SinkError(t *testing.T) {
	boom := errors.New("bucket gone")
	sink := SinkFunc(func(context.Context, string, int) (string, error) { return "", boom })

	_, err := RunShards(context.Background(), numbered(5), csvutil.WriteOptions{ShardSize: 2, TempDir: t.TempDir()}, sink)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "deliver shard 1")
}

func TestRunShards_RequiresShardSize(t *testing.T) {
	_, err := RunShards(context.Background(), numbered(1), csvutil.WriteOptions{}, DirSink{Dir: t.TempDir()})
	assert.Error(t, err)
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(in, []byte("\xEF\xBB\xBFid|name|note\n1|a|x\n2|b|y\n"), 0o644))
	out := filepath.Join(dir, "out.csv")

	res, err := Convert(context.Background(), in, out,
		csvutil.ReadOptions{Fields: []string{"name", "id"}},
		csvutil.WriteOptions{Delimiter: ',', TempDir: dir, ShardSize: 1})
	require.NoError(t, err)
	assert.Equal(t, out, res.Path)
	assert.Equal(t, 2, res.Rows)
	assert.False(t, res.More)
	assert.Equal(t, "name,id\na,1\nb,2\n", readFile(t, out))
}

func TestConvert_MissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := Convert(context.Background(), filepath.Join(dir, "none.csv"), filepath.Join(dir, "out.csv"),
		csvutil.ReadOptions{}, csvutil.WriteOptions{TempDir: dir})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDirSink_ShardName(t *testing.T) {
	assert.Equal(t, "shard-00007.csv", DirSink{}.ShardName(7))
	assert.Equal(t, "out-12345.csv", DirSink{Base: "out"}.ShardName(12345))
}
