// Package journal is a durable append only record log. Records are grouped
// into fixed size blocks on disk and handed in batches to a drain function
// running in the background, so producers never wait on the final store.
package journal

import (
	"log"
	"os"
	"sync"
	"time"
)

const (
	defaultFlushInterval = time.Second
	idleWait             = 300 * time.Millisecond
	failWait             = time.Second

	// records queued for the write loop before Append waits
	appendBacklog = 1024
)

// DrainFunc receives the records of one block. A returned error is logged and
// the block is not retried.
type DrainFunc func(records [][]byte) error

// Config Config
type Config struct {
	File          string
	FlushInterval time.Duration
	Drain         DrainFunc
}

// Journal 用于记录数据. File header is two uint32: next block to drain and
// number of blocks written.
type Journal struct {
	mu         sync.Mutex
	readBlock  int
	writeBlock int
	file       *os.File

	drain    DrainFunc
	interval time.Duration

	appends   chan []byte
	quit      chan struct{}
	stop      chan struct{}
	drainDone chan struct{}
	writeDone chan struct{}
	once      sync.Once
}

// Open opens or creates the journal file and starts the write and drain loops
func Open(config *Config) (*Journal, error) {
	// 不能用 os.O_APPEND, 块按偏移写入
	f, err := os.OpenFile(config.File, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	interval := config.FlushInterval
	if interval <= 0 {
		interval = defaultFlushInterval
	}

	j := &Journal{
		file:       f,
		readBlock:  int(readUint32(f, 0)),
		writeBlock: int(readUint32(f, 4)),
		drain:      config.Drain,
		interval:   interval,
		appends:    make(chan []byte, appendBacklog),
		quit:       make(chan struct{}),
		stop:       make(chan struct{}),
		drainDone:  make(chan struct{}),
		writeDone:  make(chan struct{}),
	}
	if j.readBlock > j.writeBlock {
		log.Printf("journal: %s has a bad header, resetting", config.File)
		j.readBlock, j.writeBlock = 0, 0
	}

	go j.writeLoop()
	go j.drainLoop()
	return j, nil
}

// Append queues one record for the write loop and returns without waiting
// for it. It only blocks when appendBacklog records are already queued. The
// record reaches disk on the next flush; rec must not be modified afterwards.
func (j *Journal) Append(rec []byte) error {
	if len(rec) == 0 || len(rec) > maxRecordSize {
		return ErrRecordTooLarge
	}
	select {
	case <-j.quit:
		return os.ErrClosed
	default:
	}
	select {
	case j.appends <- rec:
		return nil
	case <-j.quit:
		return os.ErrClosed
	}
}

func (j *Journal) writeLoop() {
	defer close(j.writeDone)
	t := time.NewTicker(j.interval)
	defer t.Stop()

	blk := newWriteBlock()
	flush := func() {
		if blk.count == 0 {
			return
		}
		if err := j.appendBlock(blk.buf); err != nil {
			log.Println("journal:", err)
		}
		blk.reset()
	}

	add := func(rec []byte) {
		if !blk.fits(len(rec)) {
			flush()
		}
		if err := blk.append(rec); err != nil {
			log.Println("journal:", err)
		}
	}

	for {
		select {
		case rec := <-j.appends:
			add(rec)
		case <-t.C:
			flush()
		case <-j.stop:
			// take whatever is still queued before the last flush
			for {
				select {
				case rec := <-j.appends:
					add(rec)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (j *Journal) appendBlock(b []byte) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	offset := j.writeBlock*blockSize + 8
	if _, err := j.file.WriteAt(b, int64(offset)); err != nil {
		return err
	}
	j.writeBlock++
	return writeUint32(j.file, uint32(j.writeBlock), 4)
}

// nextBlock 读取一个块; 读取之后无论处理是否成功都不再重读
func (j *Journal) nextBlock() ([]byte, bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.readBlock >= j.writeBlock {
		return nil, false, nil
	}
	buf := make([]byte, blockSize)
	if _, err := j.file.ReadAt(buf, int64(j.readBlock*blockSize+8)); err != nil {
		j.readBlock++
		writeUint32(j.file, uint32(j.readBlock), 0)
		return nil, true, err
	}
	j.readBlock++
	if j.readBlock == j.writeBlock {
		j.readBlock, j.writeBlock = 0, 0
		writeUint32(j.file, 0, 4)
		j.file.Truncate(8)
	}
	writeUint32(j.file, uint32(j.readBlock), 0)
	return buf, true, nil
}

func (j *Journal) drainLoop() {
	defer close(j.drainDone)
	for {
		buf, ok, err := j.nextBlock()
		if err != nil {
			log.Println("journal:", err)
		}
		if !ok || err != nil {
			select {
			case <-j.quit:
				return
			case <-time.After(idleWait):
			}
			continue
		}

		records, err := readBlock(buf).records()
		if err != nil {
			log.Println("journal:", err)
		}
		if len(records) == 0 || j.drain == nil {
			continue
		}
		if err := j.drain(records); err != nil {
			log.Println("journal: drain:", err)
			select {
			case <-j.quit:
				return
			case <-time.After(failWait):
			}
		}
	}
}

// Pending number of blocks on disk not yet drained
func (j *Journal) Pending() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.writeBlock - j.readBlock
}

// Close flushes the open block and stops both loops. Blocks not yet drained
// stay in the file for the next Open.
func (j *Journal) Close() error {
	var err error
	j.once.Do(func() {
		// the drain loop stops first so the final flush stays on disk
		close(j.quit)
		<-j.drainDone
		close(j.stop)
		<-j.writeDone
		err = j.file.Close()
	})
	return err
}

func readUint32(file *os.File, offset int64) uint32 {
	buf := make([]byte, 4)
	n, err := file.ReadAt(buf, offset)
	if err != nil || n != 4 {
		return 0
	}
	return littleEndian.Uint32(buf)
}

func writeUint32(file *os.File, val uint32, offset int64) error {
	buf := make([]byte, 4)
	littleEndian.PutUint32(buf, val)
	_, err := file.WriteAt(buf, offset)
	return err
}
