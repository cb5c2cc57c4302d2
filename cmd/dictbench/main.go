// Command dictbench preloads an in-memory-sourced dictionary and hammers
// it with concurrent lookups to print a throughput number.
package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/geowatson/cachedict"
	"github.com/geowatson/cachedict/source/memory"
)

func main() {
	const (
		capacity    = 200000
		preloadKeys = 100000
		goroutines  = 200
		opsPerG     = 5000
	)

	fmt.Println("\n================ DICTIONARY LOAD BENCHMARK =================")
	fmt.Println("CONFIG")
	fmt.Println("---------------------------------")
	fmt.Println("Capacity     :", capacity)
	fmt.Println("Preload Keys :", preloadKeys)
	fmt.Println("Goroutines   :", goroutines)
	fmt.Println("Ops/Goroutine:", opsPerG)
	fmt.Println("---------------------------------")

	ctx := context.Background()

	src := memory.New(1)
	fmt.Println("Preloading source...")
	for i := 0; i < preloadKeys; i++ {
		src.Put(uint64(i), uint64(i))
	}
	fmt.Println("Preload complete.")

	dict, err := cachedict.New("bench", []cachedict.AttributeSchema{
		{Name: "value", Kind: cachedict.KindUint64, NullValue: "0"},
	}, src, cachedict.Lifetime{MinSec: 60, MaxSec: 120}, capacity)
	if err != nil {
		fmt.Println("construct dictionary:", err)
		return
	}

	fmt.Println("Warming up cache...")
	for i := 0; i < 10000; i++ {
		_, _ = dict.GetUint64(ctx, "value", uint64(i%preloadKeys))
	}
	fmt.Println("Warmup complete.")

	fmt.Println("Running concurrency benchmark...")
	start := time.Now()

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < opsPerG; j++ {
				_, _ = dict.GetUint64(ctx, "value", uint64(j%preloadKeys))
			}
		}(i)
	}
	wg.Wait()

	duration := time.Since(start)
	totalOps := goroutines * opsPerG

	fmt.Println("\n================ RESULTS =================")
	fmt.Printf("Total Operations : %d\n", totalOps)
	fmt.Printf("Total Time       : %v\n", duration)
	fmt.Printf("Throughput       : %.2f ops/sec\n", float64(totalOps)/duration.Seconds())
	fmt.Println("=========================================")

	fmt.Printf("Source load calls: %d\n", src.LoadCount())
}
