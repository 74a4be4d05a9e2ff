package pool

import (
	"sync"
	"testing"
)

func TestScratch_Floats(t *testing.T) {
	s := Get()
	defer Put(s)

	f := s.Floats(100)
	if len(f) != 100 {
		t.Errorf("Expected length 100, got %d", len(f))
	}

	// Growing past the initial capacity must still hand back a full slice
	f = s.Floats(DefaultFloatCapacity * 2)
	if len(f) != DefaultFloatCapacity*2 {
		t.Errorf("Expected length %d, got %d", DefaultFloatCapacity*2, len(f))
	}

	// Shrinking reuses the grown buffer
	before := s.Stats().FloatCap
	_ = s.Floats(10)
	if s.Stats().FloatCap != before {
		t.Error("Shrinking request should not reallocate")
	}
}

func TestScratch_Bytes(t *testing.T) {
	s := Get()
	defer Put(s)

	b := s.Bytes(DefaultByteCapacity + 1)
	if len(b) != DefaultByteCapacity+1 {
		t.Errorf("Expected length %d, got %d", DefaultByteCapacity+1, len(b))
	}
}

func TestScratch_Reset(t *testing.T) {
	s := Get()
	defer Put(s)

	_ = s.Floats(50)
	_ = s.Bytes(50)
	s.Reset()

	stats := s.Stats()
	if stats.FloatCap < 50 || stats.ByteCap < 50 {
		t.Error("Reset should preserve capacity")
	}
	if len(s.f32) != 0 || len(s.buf) != 0 {
		t.Error("Reset should clear lengths")
	}
}

func TestScratch_PutDropsOversized(t *testing.T) {
	s := &Scratch{
		buf: make([]byte, 0, MaxRetainedBytes+1),
		f32: make([]float32, 0, DefaultFloatCapacity),
	}
	Put(s)

	if cap(s.buf) > MaxRetainedBytes {
		t.Errorf("Oversized byte buffer should be replaced, cap=%d", cap(s.buf))
	}
}

func TestScratch_PutNil(t *testing.T) {
	Put(nil) // must not panic
}

func TestScratch_Concurrent(t *testing.T) {
	const numGoroutines = 50
	const opsPerGoroutine = 500

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()

			for j := 0; j < opsPerGoroutine; j++ {
				s := Get()

				f := s.Floats(256)
				for k := range f {
					f[k] = float32(k)
				}
				if f[255] != 255 {
					t.Error("Scratch buffer corrupted")
				}

				Put(s)
			}
		}()
	}

	wg.Wait()
}

func BenchmarkScratch_Get(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s := Get()
		Put(s)
	}
}

func BenchmarkScratch_Floats(b *testing.B) {
	s := Get()
	defer Put(s)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = s.Floats(1024)
	}
}

func BenchmarkScratch_Floats_Make(b *testing.B) {
	// Compare with a fresh allocation per call
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = make([]float32, 1024)
	}
}
