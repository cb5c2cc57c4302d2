// Command dictcli is an interactive REPL for ad hoc lookups against a
// dictionary loaded from a JWCC config file. Commands:
//
//	get <attribute> <key>     print a uint64 or string attribute value for one key
//	stats                     print occupancy
//	quit
package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/pflag"

	"github.com/geowatson/cachedict"
	cfgpkg "github.com/geowatson/cachedict/config"
	"github.com/geowatson/cachedict/internal/obslog"
	"github.com/geowatson/cachedict/source/dynamo"
	"github.com/geowatson/cachedict/source/file"
	"github.com/geowatson/cachedict/source/memory"
	"github.com/geowatson/cachedict/source/sqlite"
)

func main() {
	configPath := pflag.String("config", "dictionary.json", "path to a JWCC dictionary config file")
	pflag.Parse()

	log := obslog.New()

	cfg, err := cfgpkg.Load(*configPath)
	if err != nil {
		log.Error("load config", "error", err)
		return
	}

	src, err := buildSource(cfg.Source)
	if err != nil {
		log.Error("build source", "error", err)
		return
	}

	schema, err := cfg.Schema()
	if err != nil {
		log.Error("build schema", "error", err)
		return
	}

	dict, err := cachedict.New(cfg.Name, schema, src, cfg.Lifetime(), cfg.CacheSize)
	if err != nil {
		log.Error("construct dictionary", "error", err)
		return
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	ctx := context.Background()
	fmt.Printf("dictcli — %s (capacity %d). Type 'quit' to exit.\n", dict.Name(), cfg.CacheSize)

	for {
		input, err := line.Prompt("dictcli> ")
		if err == liner.ErrPromptAborted || err == io.EOF {
			break
		}
		if err != nil {
			log.Error("read input", "error", err)
			break
		}
		line.AppendHistory(input)

		if !runCommand(ctx, dict, strings.TrimSpace(input)) {
			break
		}
	}
}

func runCommand(ctx context.Context, dict *cachedict.Dictionary, input string) bool {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return true
	}

	switch fields[0] {
	case "quit", "exit":
		return false
	case "stats":
		fmt.Printf("%+v\n", dict.Stats())
	case "get":
		if len(fields) != 3 {
			fmt.Println("usage: get <attribute> <key>")
			return true
		}
		key, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			fmt.Println("bad key:", err)
			return true
		}
		printGet(ctx, dict, fields[1], key)
	default:
		fmt.Println("unknown command:", fields[0])
	}
	return true
}

func printGet(ctx context.Context, dict *cachedict.Dictionary, attr string, key uint64) {
	v, err := dict.GetUint64(ctx, attr, key)
	if err == nil {
		fmt.Println(v)
		return
	}
	s, err2 := dict.GetString(ctx, attr, key)
	if err2 == nil {
		fmt.Println(string(s))
		return
	}
	fmt.Println("error:", err)
}

func buildSource(sc cfgpkg.SourceConfig) (cachedict.Source, error) {
	switch sc.Kind {
	case "memory":
		return memory.New(len(sc.Columns)), nil
	case "sqlite":
		return sqlite.Open(sc.DSN, sc.Table, sc.KeyColumn, sc.Columns)
	case "dynamo":
		return dynamo.NewDefault(context.Background(), sc.Table, sc.KeyAttribute, sc.Columns)
	case "file":
		return file.Open(sc.Path), nil
	default:
		return nil, cachedict.ErrUnsupportedSource
	}
}
