package ingest

import (
	"sync"
)

const lockShards = 64

// documentLocks serializes work per document id. Each shard owns a map of
// reference-counted mutexes, so unrelated documents never wait on each other
// and idle entries are dropped.
type documentLocks struct {
	shards [lockShards]lockShard
}

type lockShard struct {
	mu    sync.Mutex
	locks map[int64]*refMutex
}

type refMutex struct {
	mu   sync.Mutex
	refs int
}

func newDocumentLocks() *documentLocks {
	l := &documentLocks{}
	for i := range l.shards {
		l.shards[i].locks = make(map[int64]*refMutex)
	}
	return l
}

func (l *documentLocks) shard(documentId int64) *lockShard {
	return &l.shards[uint64(documentId)%lockShards]
}

// Lock blocks until the document is free and returns its unlock function.
func (l *documentLocks) Lock(documentId int64) func() {
	s := l.shard(documentId)

	s.mu.Lock()
	m, ok := s.locks[documentId]
	if !ok {
		m = &refMutex{}
		s.locks[documentId] = m
	}
	m.refs++
	s.mu.Unlock()

	m.mu.Lock()
	return func() {
		m.mu.Unlock()
		s.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(s.locks, documentId)
		}
		s.mu.Unlock()
	}
}

// held reports how many documents currently have a lock entry.
func (l *documentLocks) held() int {
	n := 0
	for i := range l.shards {
		l.shards[i].mu.Lock()
		n += len(l.shards[i].locks)
		l.shards[i].mu.Unlock()
	}
	return n
}
