package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/vanshika/hubnet/internal/generator"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		hubs        = flag.Int("hubs", cfg.NumHubs, "number of hubs to generate")
		avgDegree   = flag.Float64("avg-degree", cfg.AvgDegree, "average number of connections per hub")
		seed        = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		output      = flag.String("output", "seed-data/hubs.json", "file to write the dataset to")
		writeStdout = flag.Bool("stdout", false, "write the dataset to stdout instead of a file")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	gen := generator.New(generator.Config{
		NumHubs:   *hubs,
		AvgDegree: *avgDegree,
		Seed:      *seed,
	})
	dataset, err := gen.Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if *writeStdout {
		if err := generator.Encode(os.Stdout, dataset); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write dataset to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := generator.WriteDataset(dataset, *output); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write dataset: %v\n", err)
		os.Exit(1)
	}

	size := ""
	if info, err := os.Stat(*output); err == nil {
		size = " (" + humanize.Bytes(uint64(info.Size())) + ")"
	}
	fmt.Fprintf(os.Stdout, "Generated %s hubs and %s connections into %s%s\n",
		humanize.Comma(int64(len(dataset.Hubs))), humanize.Comma(int64(len(dataset.Connections))), *output, size)
}
