// Command ecsim runs the erasure coding engine through a simulated lossy
// transfer: it encodes a random chunk set, drops a random subset of the
// encoded blocks, decodes the remainder, and reports the outcome as JSON.
package main

import (
	"crypto/rand"
	"encoding/json"
	"flag"
	"fmt"
	mrand "math/rand"
	"os"
	"time"

	"github.com/chunkflow/resilience/ec"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("ecsim")

// SimResult stores the outcome of one encode/drop/decode run.
type SimResult struct {
	Mode          string        `json:"mode"`
	ChunkCount    int           `json:"chunk_count"`
	ChunkSize     int           `json:"chunk_size"`
	Redundancy    float64       `json:"redundancy"`
	LossRate      float64       `json:"loss_rate"`
	EncodedBlocks int           `json:"encoded_blocks"`
	DroppedBlocks int           `json:"dropped_blocks"`
	Recovered     bool          `json:"recovered"`
	EncodeTime    time.Duration `json:"encode_ns"`
	DecodeTime    time.Duration `json:"decode_ns"`
}

func main() {
	chunkCount := flag.Int("chunks", 64, "Number of data chunks")
	chunkSize := flag.Int("chunk-size", 1024, "Chunk size in bytes")
	redundancy := flag.Float64("redundancy", -1, "Redundancy ratio; negative means derive from -priority")
	priority := flag.String("priority", "normal", "Chunk priority (critical, high, normal, low)")
	lossRate := flag.Float64("loss", 0.05, "Fraction of encoded blocks to drop")
	seed := flag.Int64("seed", 1, "Seed for the drop pattern")
	paramsFile := flag.String("params", "", "Optional TOML file with engine parameters")
	flag.Parse()

	var opts []ec.Option
	if *paramsFile != "" {
		params, err := ec.LoadParams(*paramsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		opts = append(opts, ec.WithParams(params))
	}
	engine, err := ec.NewEngine(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ratio := *redundancy
	if ratio < 0 {
		ratio = parsePriority(*priority).RedundancyRatio()
	}

	data := make([][]byte, *chunkCount)
	for i := range data {
		data[i] = make([]byte, *chunkSize)
		if _, err := rand.Read(data[i]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	start := time.Now()
	mode, encoded := engine.EncodeAuto(data, ratio, *lossRate)
	encodeTime := time.Since(start)
	log.Infof("encoded %d chunks into %d blocks using %s", *chunkCount, len(encoded), mode)

	// Drop a random subset of the encoded blocks.
	dropCount := int(float64(len(encoded)) * *lossRate)
	received := make([][]byte, len(encoded))
	copy(received, encoded)
	rng := mrand.New(mrand.NewSource(*seed))
	for _, i := range rng.Perm(len(encoded))[:dropCount] {
		received[i] = nil
	}

	start = time.Now()
	decoded, err := engine.Decode(mode, received, *chunkCount)
	decodeTime := time.Since(start)

	recovered := err == nil && equal(decoded, data)
	if err != nil {
		log.Warnf("decode failed after dropping %d blocks: %v", dropCount, err)
	}

	result := SimResult{
		Mode:          mode.String(),
		ChunkCount:    *chunkCount,
		ChunkSize:     *chunkSize,
		Redundancy:    ratio,
		LossRate:      *lossRate,
		EncodedBlocks: len(encoded),
		DroppedBlocks: dropCount,
		Recovered:     recovered,
		EncodeTime:    encodeTime,
		DecodeTime:    decodeTime,
	}
	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
	if !recovered {
		os.Exit(1)
	}
}

func parsePriority(s string) ec.ChunkPriority {
	switch s {
	case "critical":
		return ec.PriorityCritical
	case "high":
		return ec.PriorityHigh
	case "low":
		return ec.PriorityLow
	default:
		return ec.PriorityNormal
	}
}

func equal(a, b [][]byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if string(a[i]) != string(b[i]) {
			return false
		}
	}
	return true
}
