package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/milk9111/animgraph/prefabs"
)

func main() {
	dir := flag.String("prefabs", "prefabs", "directory checked for controllers before the embedded copies")
	ticks := flag.Int("ticks", 600, "ticks to exercise each controller for (0 = validate only)")
	flag.Parse()

	prefabs.SetDiskRoot(*dir)

	names := flag.Args()
	if len(names) == 0 {
		all, err := prefabs.Controllers()
		if err != nil {
			log.Fatal(err)
		}
		names = all
	}

	if failed := checkAll(os.Stdout, names, *ticks); failed > 0 {
		fmt.Fprintf(os.Stderr, "animcheck: %d of %d controllers failed\n", failed, len(names))
		os.Exit(1)
	}
}

func checkAll(out io.Writer, names []string, ticks int) int {
	failed := 0
	for _, name := range names {
		report, err := check(name, ticks)
		if err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s\n", name)
			fmt.Fprintf(out, "  %v\n", err)
			continue
		}
		fmt.Fprintf(out, "ok   %s %s\n", name, report)
	}
	return failed
}
