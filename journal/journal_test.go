package journal

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempJournalFile(t *testing.T) (string, func()) {
	dir, err := ioutil.TempDir("", "journal")
	require.NoError(t, err)
	return filepath.Join(dir, "chat.journal"), func() { os.RemoveAll(dir) }
}

func TestBlockAppendAndRead(t *testing.T) {
	blk := newWriteBlock()
	require.NoError(t, blk.append([]byte("one")))
	require.NoError(t, blk.append([]byte("two")))

	records, err := readBlock(blk.buf).records()
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("one"), []byte("two")}, records)

	assert.False(t, blk.fits(blockSize))
	assert.Equal(t, errBlockFull, blk.append(make([]byte, blockSize)))
}

func TestJournalDrainsEveryRecord(t *testing.T) {
	file, cleanup := tempJournalFile(t)
	defer cleanup()

	const total = 3000
	var mu sync.Mutex
	seen := make(map[string]bool)
	done := make(chan struct{})

	j, err := Open(&Config{
		File:          file,
		FlushInterval: 20 * time.Millisecond,
		Drain: func(records [][]byte) error {
			mu.Lock()
			defer mu.Unlock()
			for _, rec := range records {
				seen[string(rec)] = true
			}
			if len(seen) == total {
				close(done)
			}
			return nil
		},
	})
	require.NoError(t, err)
	defer j.Close()

	for i := 0; i < total; i++ {
		require.NoError(t, j.Append([]byte(fmt.Sprintf("record-%04d", i))))
	}

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("journal did not drain")
	}
	assert.True(t, seen["record-0000"])
	assert.True(t, seen[fmt.Sprintf("record-%04d", total-1)])
}

func TestJournalKeepsBlocksAcrossReopen(t *testing.T) {
	file, cleanup := tempJournalFile(t)
	defer cleanup()

	j, err := Open(&Config{File: file, FlushInterval: time.Hour})
	require.NoError(t, err)
	// the block is only flushed by Close
	require.NoError(t, j.Append([]byte("kept")))
	require.NoError(t, j.Close())
	assert.Equal(t, 1, int(readHeader(t, file)))

	got := make(chan []byte, 1)
	j, err = Open(&Config{
		File:          file,
		FlushInterval: time.Hour,
		Drain: func(records [][]byte) error {
			got <- records[0]
			return nil
		},
	})
	require.NoError(t, err)
	defer j.Close()

	select {
	case rec := <-got:
		assert.Equal(t, "kept", string(rec))
	case <-time.After(5 * time.Second):
		t.Fatal("record written before close was not drained after reopen")
	}
}

func TestAppendDoesNotWaitForWriter(t *testing.T) {
	// no write loop runs here, so each Append has to return by itself
	j := &Journal{appends: make(chan []byte, appendBacklog), quit: make(chan struct{})}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < appendBacklog; i++ {
			assert.NoError(t, j.Append([]byte("rec")))
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Append waited for the write loop")
	}
	assert.Len(t, j.appends, appendBacklog)

	close(j.quit)
	assert.Equal(t, os.ErrClosed, j.Append([]byte("late")))
}

func TestJournalRejectsBadRecords(t *testing.T) {
	file, cleanup := tempJournalFile(t)
	defer cleanup()

	j, err := Open(&Config{File: file})
	require.NoError(t, err)
	defer j.Close()

	assert.Equal(t, ErrRecordTooLarge, j.Append(nil))
	assert.Equal(t, ErrRecordTooLarge, j.Append(make([]byte, maxRecordSize+1)))
}

func readHeader(t *testing.T, file string) uint32 {
	f, err := os.Open(file)
	require.NoError(t, err)
	defer f.Close()
	return readUint32(f, 4)
}
