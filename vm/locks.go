package vm

import (
	"sort"
	"sync"

	"vault/utils"
)

// StripedLocks 按地址分段加锁：同一地址永远落在同一段上
type StripedLocks struct {
	stripes []sync.Mutex
}

func NewStripedLocks(n int) *StripedLocks {
	if n <= 0 {
		n = 256
	}
	return &StripedLocks{stripes: make([]sync.Mutex, n)}
}

func (l *StripedLocks) stripe(addr string) int {
	return int(utils.Murmur64([]byte(addr)) % uint64(len(l.stripes)))
}

// Lock 锁住所有地址对应的段（去重、升序，避免死锁），返回解锁函数
func (l *StripedLocks) Lock(addrs ...string) func() {
	idx := make([]int, 0, len(addrs))
	seen := make(map[int]struct{}, len(addrs))
	for _, a := range addrs {
		if a == "" {
			continue
		}
		s := l.stripe(a)
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		idx = append(idx, s)
	}
	sort.Ints(idx)

	for _, s := range idx {
		l.stripes[s].Lock()
	}
	return func() {
		for i := len(idx) - 1; i >= 0; i-- {
			l.stripes[idx[i]].Unlock()
		}
	}
}
