package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/rs/zerolog/log"

	"github.com/sbl8/opdispatch/core"
	"github.com/sbl8/opdispatch/dispatch"
	"github.com/sbl8/opdispatch/internal/config"
	"github.com/sbl8/opdispatch/internal/logging"
)

func main() {
	var (
		keyName = flag.String("key", "", "Resolve each operator for this dispatch key (name or number)")
		verbose = flag.Bool("verbose", false, "Show kernel names and retrofit state")
		version = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *version {
		fmt.Println("dispatchctl - operator dispatch table inspector v1.0.0")
		fmt.Printf("Built with Go %s\n", runtime.Version())
		return
	}

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <manifest.toml|manifest.hcl>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	logging.ConfigureRuntime()

	key := core.Undefined
	if *keyName != "" {
		k, err := core.ParseDispatchKey(*keyName)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid -key")
		}
		key = k
	}

	manifest, err := config.Load(args[0])
	if err != nil {
		log.Fatal().Err(err).Str("path", args[0]).Msg("failed to load manifest")
	}

	tables := config.BuildTables(manifest, dispatch.WithLogger(log.Logger))
	log.Debug().Int("operators", len(tables)).Msg("dispatch tables built")

	for _, table := range tables {
		report(os.Stdout, table, key, *verbose)
	}
}

// report prints one line per operator, plus the resolved kernel when key is
// set and per-key kernel names in verbose mode.
func report(w io.Writer, table *dispatch.Table, key core.DispatchKey, verbose bool) {
	fmt.Fprintf(w, "%s %s\n", table.Name(), table.ListAllDispatchKeys())

	if key != core.Undefined {
		fmt.Fprintf(w, "  %s -> %s\n", key, resolve(table, key))
	}
	if !verbose {
		return
	}
	for _, k := range table.DispatchKeys() {
		kernel, _ := table.Lookup(k)
		fmt.Fprintf(w, "  %-12s %s%s\n", k, kernel.Name(), retrofitTag(kernel.IsRetrofitted()))
	}
	if c, ok := table.LookupCatchallKernel(); ok {
		fmt.Fprintf(w, "  %-12s %s%s\n", dispatch.CatchallMarker, c.Name(), retrofitTag(c.IsRetrofitted()))
	}
}

// resolve mirrors the caller-side fallback: keyed kernel first, then catch-all.
func resolve(table *dispatch.Table, key core.DispatchKey) string {
	if k, ok := table.Lookup(key); ok {
		return k.Name()
	}
	if c, ok := table.LookupCatchallKernel(); ok {
		return c.Name() + " (catch-all)"
	}
	return "no kernel; available: " + table.ListAllDispatchKeys()
}

func retrofitTag(retrofitted bool) string {
	if retrofitted {
		return " [boxed adapter]"
	}
	return ""
}
