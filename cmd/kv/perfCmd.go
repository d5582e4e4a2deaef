package kv

import (
	"encoding/csv"
	"fmt"
	"github.com/ValentinKolb/rconn/cmd/util"
	"github.com/ValentinKolb/rconn/rpc/client"
	"github.com/VictoriaMetrics/metrics"
	"github.com/google/uuid"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"log"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for key-value servers",
		Long:    "",
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__rconn"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfSkip             = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of connections per CPU to use for the benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the set-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
	key = "metrics"
	perfTestCmd.Flags().Bool(key, false, util.WrapString("Print the driver metrics in Prometheus text format after the run"))
}

// perfResult is the outcome of one benchmark
type perfResult struct {
	bench   testing.BenchmarkResult
	latency gometrics.Timer
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = max(viper.GetInt("keys"), 1)
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	// every run writes to its own key namespace
	perfKeyPrefix = fmt.Sprintf("__rconn-%s", uuid.NewString())

	return nil
}

func run(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for key-value servers")

	config, err := util.GetConfig()
	if err != nil {
		return err
	}

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(config.String())
	fmt.Printf("Driver: %s\n", kvClient.Driver().Name())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Printf("Key prefix: %s\n", perfKeyPrefix)
	fmt.Println()

	// One client per parallel goroutine, a driver serves a single caller
	pool, err := newClientPool(perfNumThreads * runtime.GOMAXPROCS(0))
	if err != nil {
		return err
	}
	defer pool.close()

	fmt.Println("staring tests...")

	results := make(map[string]perfResult)
	largeValue := make([]byte, perfLargeValueSizeKB*1024)

	benchmarks := []struct {
		name    string
		prepare bool
		op      func(c *client.Client, key string, counter int) error
	}{
		{"ping", false, func(c *client.Client, _ string, _ int) error {
			return c.Ping()
		}},
		{"set", false, func(c *client.Client, key string, _ int) error {
			return c.Set(key, []byte("test"))
		}},
		{"set-large", false, func(c *client.Client, key string, _ int) error {
			return c.Set(key, largeValue)
		}},
		{"get", true, func(c *client.Client, key string, _ int) error {
			_, _, err := c.Get(key)
			return err
		}},
		{"del", true, func(c *client.Client, key string, _ int) error {
			_, err := c.Del(key)
			return err
		}},
		{"mixed", true, func(c *client.Client, key string, counter int) error {
			var err error
			switch counter % 3 {
			case 0: // set
				err = c.Set(key, []byte("test"))
			case 1: // get
				_, _, err = c.Get(key)
			case 2: // delete
				_, err = c.Del(key)
			}
			return err
		}},
	}

	for _, bm := range benchmarks {
		result := runBenchmark(pool, bm.name, bm.prepare, bm.op)
		results[bm.name] = result
		printResult(bm.name, result)
	}

	// Write results to csv if requested
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	if viper.GetBool("metrics") {
		fmt.Println()
		metrics.WritePrometheus(os.Stdout, false)
	}

	return nil
}

// runBenchmark runs op in parallel, every goroutine borrowing its own client from the pool
func runBenchmark(pool *clientPool, name string, prepare bool, op func(*client.Client, string, int) error) perfResult {
	latency := gometrics.NewTimer()

	bench := testing.Benchmark(func(b *testing.B) {
		if shouldSkip(name) {
			return
		}

		// prepare keys
		getKey, iter := getKeys(name)

		// set keys
		if prepare {
			iter(func(k string) {
				if err := kvClient.Set(k, []byte("test")); err != nil {
					log.Printf("(%s) - error setting key: %v\n", name, err)
				}
			})
		}

		// cleanup
		b.Cleanup(func() {
			iter(func(k string) {
				if _, err := kvClient.Del(k); err != nil {
					log.Printf("(%s) - error deleting key: %v\n", name, err)
				}
			})
		})

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			c := pool.get()
			defer pool.put(c)

			counter := 0
			for pb.Next() {
				start := time.Now()
				if err := op(c, getKey(counter), counter); err != nil {
					log.Printf("(%s) - error: %v\n", name, err)
				}
				latency.UpdateSince(start)
				counter++
			}
		})
	})

	return perfResult{bench: bench, latency: latency}
}

// --------------------------------------------------------------------------
// Client Pool
// --------------------------------------------------------------------------

// clientPool hands out connected clients to the benchmark goroutines
type clientPool struct {
	clients chan *client.Client
}

func newClientPool(size int) (*clientPool, error) {
	p := &clientPool{clients: make(chan *client.Client, size)}
	for i := 0; i < size; i++ {
		c, err := util.Dial()
		if err != nil {
			p.close()
			return nil, fmt.Errorf("failed to open connection %d of %d: %w", i+1, size, err)
		}
		p.clients <- c
	}
	return p, nil
}

func (p *clientPool) get() *client.Client {
	return <-p.clients
}

func (p *clientPool) put(c *client.Client) {
	// a failed read or write leaves the driver disconnected, replace it
	if !c.Driver().IsConnected() {
		if fresh, err := util.Dial(); err == nil {
			c = fresh
		}
	}
	p.clients <- c
}

func (p *clientPool) close() {
	for {
		select {
		case c := <-p.clients:
			_ = c.Close()
		default:
			return
		}
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// creates an array of test keys and functions to work with them
func getKeys(prefix string) (func(int) string, func(func(string))) {
	keys := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}

	// Function to get a key by index (with wraparound)
	getKey := func(i int) string {
		return keys[i%perfKeySpread]
	}

	// Function to iterate over all keys and apply a function to each
	iterateKeys := func(fn func(string)) {
		for _, key := range keys {
			fn(key)
		}
	}

	return getKey, iterateKeys
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result perfResult) {
	if result.bench.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.bench.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	latency := result.latency.Snapshot()
	p := latency.Percentiles([]float64{0.5, 0.99})

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\tp50 %s\tp99 %s\n",
		test, nsPerOp, time.Duration(nsPerOp), opsPerSec, time.Duration(p[0]), time.Duration(p[1]))
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]perfResult) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "P50", "P99", "Skipped",
		"Address", "Driver", "ConnectTimeoutSec", "ReadTimeoutSec",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	config, err := util.GetConfig()
	if err != nil {
		return err
	}

	// Write test results
	for test, result := range results {
		var nsPerOp float64
		var opsPerSec float64
		var skipped string

		if result.bench.NsPerOp() == 0 {
			skipped = "true"
			nsPerOp = 0
			opsPerSec = 0
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(result.bench.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		p := result.latency.Snapshot().Percentiles([]float64{0.5, 0.99})

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			time.Duration(p[0]).String(),
			time.Duration(p[1]).String(),
			skipped,
			config.Address(),
			kvClient.Driver().Name(),
			strconv.FormatFloat(config.ConnectTimeout, 'f', -1, 64),
			strconv.FormatFloat(config.ReadTimeout, 'f', -1, 64),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
