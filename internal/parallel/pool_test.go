package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
)

// =============================================================================
// Pool Creation Tests
// =============================================================================

func TestPool_Create(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if !pool.IsRunning() {
		t.Error("Pool should be running after creation")
	}
}

func TestPool_CreateDefaultWorkers(t *testing.T) {
	for _, n := range []int{0, -5} {
		pool := NewPool(n)
		if pool.Workers() != runtime.GOMAXPROCS(0) {
			t.Errorf("NewPool(%d).Workers() = %d, want GOMAXPROCS", n, pool.Workers())
		}
		pool.Close()
	}
}

// =============================================================================
// Run Tests
// =============================================================================

func TestPool_Run(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	var counter atomic.Int64
	tasks := make([]func(), 100)
	for i := range tasks {
		tasks[i] = func() { counter.Add(1) }
	}
	pool.Run(tasks)

	if counter.Load() != 100 {
		t.Errorf("counter = %d, want 100", counter.Load())
	}
}

func TestPool_RunEmpty(t *testing.T) {
	pool := NewPool(2)
	defer pool.Close()

	pool.Run(nil)
	pool.Run([]func(){})
}

func TestPool_RunAfterClose(t *testing.T) {
	pool := NewPool(2)
	pool.Close()

	var counter atomic.Int64
	pool.Run([]func(){
		func() { counter.Add(1) },
		func() { counter.Add(1) },
	})
	if counter.Load() != 2 {
		t.Errorf("counter = %d, want 2 (closed pool runs inline)", counter.Load())
	}
}

func TestPool_CloseIdempotent(t *testing.T) {
	pool := NewPool(2)
	pool.Close()
	pool.Close()
	if pool.IsRunning() {
		t.Error("Pool should not be running after Close")
	}
}

func TestPool_ConcurrentRun(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	var counter atomic.Int64
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tasks := make([]func(), 25)
			for i := range tasks {
				tasks[i] = func() { counter.Add(1) }
			}
			pool.Run(tasks)
		}()
	}
	wg.Wait()

	if counter.Load() != 200 {
		t.Errorf("counter = %d, want 200", counter.Load())
	}
}

// =============================================================================
// Band Tests
// =============================================================================

func TestSplitRows(t *testing.T) {
	tests := []struct {
		height, n int
		want      []Band
	}{
		{0, 4, nil},
		{-3, 4, nil},
		{5, 4, []Band{{0, 5}}},
		{16, 2, []Band{{0, 8}, {8, 16}}},
		{17, 2, []Band{{0, 9}, {9, 17}}},
		{100, 0, []Band{{0, 100}}},
		{20, 10, []Band{{0, 7}, {7, 14}, {14, 20}}},
	}
	for _, tt := range tests {
		got := SplitRows(tt.height, tt.n)
		if len(got) != len(tt.want) {
			t.Errorf("SplitRows(%d, %d) = %v, want %v", tt.height, tt.n, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("SplitRows(%d, %d) = %v, want %v", tt.height, tt.n, got, tt.want)
				break
			}
		}
	}
}

func TestSplitRowsCoversEveryRow(t *testing.T) {
	for height := 1; height < 200; height += 7 {
		for n := 1; n < 12; n++ {
			y := 0
			for _, b := range SplitRows(height, n) {
				if b.Y0 != y || b.Rows() <= 0 {
					t.Fatalf("SplitRows(%d, %d): band %v does not continue at row %d", height, n, b, y)
				}
				y = b.Y1
			}
			if y != height {
				t.Fatalf("SplitRows(%d, %d) ends at %d", height, n, y)
			}
		}
	}
}

func TestPool_ForEachBand(t *testing.T) {
	pool := NewPool(3)
	defer pool.Close()

	const height = 97
	var rows [height]atomic.Int32
	pool.ForEachBand(height, func(b Band) {
		for y := b.Y0; y < b.Y1; y++ {
			rows[y].Add(1)
		}
	})
	for y := range rows {
		if n := rows[y].Load(); n != 1 {
			t.Errorf("row %d visited %d times, want 1", y, n)
		}
	}
}
