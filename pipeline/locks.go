package pipeline

import "sync"

// videoLocks hands out one mutex per video id so racing runs for the same
// id serialize instead of interleaving their status transitions and temp
// files. Locks are never reclaimed; the map grows with the number of
// distinct ids seen, which is bounded by the videos table.
type videoLocks struct {
	locks sync.Map
}

func (l *videoLocks) get(videoID int64) *sync.Mutex {
	lock, _ := l.locks.LoadOrStore(videoID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}
