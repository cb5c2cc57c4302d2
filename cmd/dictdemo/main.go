// Command dictdemo walks through a scripted scenario against an
// in-memory-sourced Dictionary: a cold miss, a warm hit, a TTL
// expiration and refresh, and a burst of concurrent lookups that
// collapse through the same refresh.
package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/pflag"

	"github.com/geowatson/cachedict"
	"github.com/geowatson/cachedict/internal/obslog"
	"github.com/geowatson/cachedict/source/memory"
)

func main() {
	var (
		cacheSize = pflag.Uint64("cache-size", 16, "dictionary capacity (rounded up to a power of two)")
		minTTL    = pflag.Uint64("min-ttl", 1, "minimum cell TTL in seconds")
		maxTTL    = pflag.Uint64("max-ttl", 3, "maximum cell TTL in seconds")
	)
	pflag.Parse()

	log := obslog.New()

	fmt.Println("\n==================== SYSTEM BOOT ====================")
	fmt.Println("DICTIONARY      : users")
	fmt.Printf("CAPACITY        : %d keys\n", *cacheSize)
	fmt.Printf("TTL WINDOW      : [%ds, %ds]\n", *minTTL, *maxTTL)

	ctx := context.Background()

	src := memory.New(2)
	src.Put(1, uint32(30), "alice")
	src.Put(2, uint32(41), "bob")

	dict, err := cachedict.New("users", []cachedict.AttributeSchema{
		{Name: "age", Kind: cachedict.KindUint32, NullValue: "0"},
		{Name: "name", Kind: cachedict.KindString, NullValue: ""},
	}, src, cachedict.Lifetime{MinSec: *minTTL, MaxSec: *maxTTL}, *cacheSize)
	if err != nil {
		log.Error("construct dictionary", "error", err)
		return
	}

	fmt.Println("\n==================== 1) COLD MISS ====================")
	age, err := dict.GetUint32(ctx, "age", 1)
	fmt.Println("GET age(1) =", age, "err =", err, "loads =", src.LoadCount())

	fmt.Println("\n==================== 2) WARM HIT ====================")
	age, err = dict.GetUint32(ctx, "age", 1)
	fmt.Println("GET age(1) =", age, "err =", err, "loads =", src.LoadCount())

	fmt.Println("\n==================== 3) TTL EXPIRATION ====================")
	time.Sleep(time.Duration(*maxTTL+1) * time.Second)
	name, err := dict.GetString(ctx, "name", 1)
	fmt.Println("GET name(1) =", string(name), "err =", err, "loads =", src.LoadCount())

	fmt.Println("\n==================== 4) CONCURRENT REFRESH ====================")
	src.Delete(2)
	src.Put(2, uint32(42), "bob")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			v, err := dict.GetUint32(ctx, "age", 2)
			fmt.Printf("GOROUTINE-%d → GET age(2) = %v err=%v\n", id, v, err)
		}(i)
	}
	wg.Wait()
	fmt.Println("loads =", src.LoadCount())

	fmt.Println("\n==================== STATS ====================")
	stats := dict.Stats()
	fmt.Printf("%+v\n", stats)
}
