package usecase

import "sync"

// TableLocker はテーブル番号ごとの排他。
// 同じ番号に対する読み取り→書き込みを直列にする。
type TableLocker struct {
	mu    sync.Mutex
	locks map[int]*tableLock
}

type tableLock struct {
	mu   sync.Mutex
	refs int
}

func NewTableLocker() *TableLocker {
	return &TableLocker{locks: map[int]*tableLock{}}
}

// Lock は解放用の関数を返す
func (l *TableLocker) Lock(number int) func() {
	l.mu.Lock()
	tl, ok := l.locks[number]
	if !ok {
		tl = &tableLock{}
		l.locks[number] = tl
	}
	tl.refs++
	l.mu.Unlock()

	tl.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			tl.mu.Unlock()

			l.mu.Lock()
			tl.refs--
			if tl.refs == 0 {
				delete(l.locks, number)
			}
			l.mu.Unlock()
		})
	}
}

func (l *TableLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
