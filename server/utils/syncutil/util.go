package syncutil

import "sync"

// SchedLockers locks lcks in order and returns the func releasing them in reverse order.
func SchedLockers(lcks ...sync.Locker) (unlock func()) {
	for i := 0; i < len(lcks); i++ {
		lcks[i].Lock()
	}
	return func() {
		for i := len(lcks) - 1; i >= 0; i-- {
			lcks[i].Unlock()
		}
	}
}

// FuncWatcher runs funcs in their own goroutines and waits for all of them.
type FuncWatcher struct {
	sync.WaitGroup
}

func (fw *FuncWatcher) Attach(f func()) {
	fw.Add(1)
	go func() {
		defer fw.Done()
		f()
	}()
}
