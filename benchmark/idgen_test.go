package benchmark

import (
	"context"
	"runtime"
	"testing"

	"github.com/vigilglc/sortid/server"
	"github.com/vigilglc/sortid/server/config"
	"github.com/vigilglc/sortid/server/idgen"
)

func Benchmark_Generator_Next(b *testing.B) {
	gen := idgen.New(1)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := gen.Next(); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Concurrent1_Generator_Next(b *testing.B) {
	benchmarkConcurrentGeneratorNextCommon(b, 1)
}
func Benchmark_Concurrent2_Generator_Next(b *testing.B) {
	benchmarkConcurrentGeneratorNextCommon(b, 2)
}
func Benchmark_Concurrent4_Generator_Next(b *testing.B) {
	benchmarkConcurrentGeneratorNextCommon(b, 4)
}
func Benchmark_Concurrent8_Generator_Next(b *testing.B) {
	benchmarkConcurrentGeneratorNextCommon(b, 8)
}
func Benchmark_Concurrent8_SpinYield_Generator_Next(b *testing.B) {
	benchmarkConcurrentGeneratorNextCommon(b, 8, idgen.WithSpinYield(runtime.Gosched))
}
func benchmarkConcurrentGeneratorNextCommon(b *testing.B, parallelism int, opts ...idgen.Option) {
	gen := idgen.New(1, opts...)
	b.SetParallelism(parallelism)
	b.ResetTimer()
	defer b.StopTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := gen.Next(); err != nil {
				b.Errorf("%v\n", err)
			}
		}
	})
	b.ReportMetric(float64(gen.Stats().Exhausted), "exhausted")
}

func Benchmark_Server_NextIDs_Batch64(b *testing.B) {
	cfg := config.DefaultServerConfig()
	cfg.LogLevel = "error"
	srv := server.NewServer(cfg)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := srv.NextIDs(ctx, 64); err != nil {
			b.Fatal(err)
		}
	}
}
