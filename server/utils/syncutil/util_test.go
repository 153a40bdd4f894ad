package syncutil

import (
	"sync"
	"sync/atomic"
	"testing"
)

type orderLocker struct {
	name string
	log  *[]string
}

func (l orderLocker) Lock()   { *l.log = append(*l.log, "lock "+l.name) }
func (l orderLocker) Unlock() { *l.log = append(*l.log, "unlock "+l.name) }

func TestSchedLockersOrder(t *testing.T) {
	var log []string
	unlock := SchedLockers(orderLocker{"a", &log}, orderLocker{"b", &log})
	unlock()
	expected := []string{"lock a", "lock b", "unlock b", "unlock a"}
	if len(log) != len(expected) {
		t.Fatalf("expected %v, actual: %v", expected, log)
	}
	for i := range expected {
		if log[i] != expected[i] {
			t.Fatalf("expected %v, actual: %v", expected, log)
		}
	}
}

func TestSchedLockersRWMutex(t *testing.T) {
	var rwmu sync.RWMutex
	unlock := SchedLockers(rwmu.RLocker())
	unlock2 := SchedLockers(rwmu.RLocker())
	unlock2()
	unlock()
	defer SchedLockers(&rwmu)()
}

func TestFuncWatcherWait(t *testing.T) {
	var fw FuncWatcher
	var cnt int32
	for i := 0; i < 16; i++ {
		fw.Attach(func() { atomic.AddInt32(&cnt, 1) })
	}
	fw.Wait()
	if cnt != 16 {
		t.Fatalf("expected 16 finished funcs, actual: %d", cnt)
	}
}
