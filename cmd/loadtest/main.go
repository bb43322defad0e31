package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codewandler/typedcache/adapters/nats"
	promadapter "github.com/codewandler/typedcache/adapters/prometheus"
	"github.com/codewandler/typedcache/core/cache"
	"github.com/codewandler/typedcache/ports/kv"
)

// === Config ===

// NOTE: run nats: docker run --net=host nats:latest -js

var (
	logLevel    = slog.LevelInfo
	N           = getEnvInt("N", 1_000_000)
	batchSize   = getEnvInt("B", 100_000)
	workers     = getEnvInt("WORKERS", runtime.NumCPU())
	keySpace    = getEnvInt("KEYS", 10_000)
	lifeSpan    = time.Duration(getEnvInt("TTL_MS", 500)) * time.Millisecond
	backendType = getEnv("BACKEND", "mem")
	metricsAddr = getEnv("METRICS_ADDR", ":2112")
	debug       = getEnvBool("DEBUG", false)
)

func getEnvBool(key string, fallback bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	if v == "1" || strings.ToLower(v) == "true" {
		return true
	}
	return false
}

func getEnv(key, fallback string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, fmt.Sprintf("%d", fallback)))
	if err != nil {
		return fallback
	}
	return v
}

// === Domain ===

type Session struct {
	UserID   int
	Hits     int
	IssuedAt time.Time
}

func main() {
	if debug {
		logLevel = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	fmt.Printf("      Ops: %d\n", N)
	fmt.Printf("  Workers: %d\n", workers)
	fmt.Printf("     Keys: %d\n", keySpace)
	fmt.Printf("Life span: %s\n", lifeSpan)
	fmt.Printf("  Backend: %s\n", backendType)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// === metrics ===

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	if metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			if err := http.ListenAndServe(metricsAddr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		log.Info("serving metrics", slog.String("addr", metricsAddr))
	}

	registry := cache.NewRegistry(cache.RegistryOptions{
		Table: cache.Options{
			Log:     log,
			Metrics: promadapter.NewCacheMetrics(reg),
		},
	})
	defer registry.Close()

	// === backing store ===

	var store kv.Store
	switch backendType {
	case "nats":
		s, err := nats.NewKvStore(ctx, nats.KvConfig{
			Connect: nats.ReuseConnection(nats.ConnectDefault()),
			Log:     log,
			Bucket:  "loadtest_sessions",
		})
		checkErr(err)
		defer s.Close()
		store = s
	default:
		store = kv.NewMemStore()
	}

	// half of the key space can be loaded from the store
	for id := 0; id < keySpace; id += 2 {
		checkErr(kv.Put(ctx, store, strconv.Itoa(id), Session{UserID: id, IssuedAt: time.Now()}, kv.PutOptions{}))
	}

	sessions := cache.NewTyped[int, Session](registry.Cache("sessions"))
	sessions.SetDataLoader(cache.StoreLoader[int, Session](store, cache.StoreLoaderOptions[int]{
		LifeSpan: lifeSpan,
		Log:      log,
	}))

	var (
		expired atomic.Int64
		hits    atomic.Int64
		misses  atomic.Int64
		done    atomic.Int64
	)
	sessions.Table().AddAboutToDeleteItemCallback(func(*cache.Item) { expired.Add(1) })

	// === START ===

	log.Info("==================================")
	log.Info("Starting ...")

	startAt := time.Now()
	lastTime := startAt

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := range workers {
		go func() {
			defer wg.Done()
			rnd := rand.New(rand.NewPCG(uint64(w), uint64(startAt.UnixNano())))
			for {
				i := done.Add(1)
				if i > int64(N) || ctx.Err() != nil {
					return
				}

				id := rnd.IntN(keySpace)
				switch op := rnd.IntN(10); {
				case op < 7:
					if _, err := sessions.Value(id); err != nil {
						misses.Add(1)
					} else {
						hits.Add(1)
					}
				case op < 9:
					sessions.Add(id, lifeSpan, Session{UserID: id, Hits: op, IssuedAt: time.Now()})
				default:
					_ = sessions.Delete(id)
				}

				if i%int64(batchSize) == 0 {
					report(i, &lastTime)
				}
			}
		}()
	}
	wg.Wait()

	// === stats ===
	println("")
	println("==========================================")

	took := time.Since(startAt)
	runtime.GC()

	fmt.Printf("total runtime: %.3f seconds\n", took.Seconds())
	fmt.Printf("     ops/s avg: %d\n", int(float64(N)/took.Seconds()))
	fmt.Printf("  hits/misses: %d / %d\n", hits.Load(), misses.Load())
	fmt.Printf("      removed: %d\n", expired.Load())
	fmt.Printf("  items alive: %d\n", sessions.Table().Count())
	fmt.Printf("  next expiry: %s\n", sessions.Table().ScheduledWake())
}

var reportMu sync.Mutex

func report(i int64, lastTime *time.Time) {
	reportMu.Lock()
	defer reportMu.Unlock()

	mu := getMemUsage()
	n := time.Now()
	took := n.Sub(*lastTime)
	fmt.Printf(" | %8d ops | %6d ms | %8d ops/s | (%d / %d) MiB mem (sys) |\n", i, took.Milliseconds(), int(float64(batchSize)/took.Seconds()), mu.Alloc/1024/1024, mu.Sys/1024/1024)
	*lastTime = n
}

// === stats helpers ===

type MemUsage struct {
	Alloc      uint64 // bytes allocated and not yet freed (heap)
	TotalAlloc uint64 // cumulative bytes allocated
	Sys        uint64 // total bytes obtained from OS
	NumGC      uint32 // gc cycles
}

func getMemUsage() MemUsage {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemUsage{
		Alloc:      m.Alloc,
		TotalAlloc: m.TotalAlloc,
		Sys:        m.Sys,
		NumGC:      m.NumGC,
	}
}

// === Helpers ===

func checkErr(err error) {
	if err != nil {
		panic(err)
	}
}
