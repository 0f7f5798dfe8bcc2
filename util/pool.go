package util

import "sync"

// ReadBufSize is the size of a single socket read.  Every DataReceived
// payload is at most this long.
const ReadBufSize = 1024

// BufPool provides reusable read buffers for connection handlers.
var BufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, ReadBufSize)
		return &buf
	},
}

// GetBuf retrieves a buffer from the pool.  Callers must return it
// with [PutBuf] when finished and must copy out anything they keep.
func GetBuf() *[]byte {
	return BufPool.Get().(*[]byte)
}

// PutBuf returns a buffer to the pool for reuse.
func PutBuf(buf *[]byte) {
	if buf == nil {
		return
	}
	BufPool.Put(buf)
}
