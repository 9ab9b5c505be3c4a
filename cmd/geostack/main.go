// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/geostack"
	"github.com/poiesic/geostack/core"
)

func main() {
	app := &cli.App{
		Name:  "geostack",
		Usage: "Grid cache indexer and spatial match debugger",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "index",
				Usage:  "Index a feature stream into the grid cache",
				Action: indexCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to the grid cache directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "Feature ndjson file (defaults to stdin)",
					},
					&cli.StringFlag{
						Name:  "pack",
						Usage: "Base name to pack the cache into (<base>.grid.badger)",
					},
				},
			},
			{
				Name:   "lookup",
				Usage:  "Look up a dictionary word and its grid entries",
				Action: lookupCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to the grid cache directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "word",
						Aliases:  []string{"w"},
						Usage:    "Word to look up",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "idx",
						Usage: "Index ordinal to dump grid entries for",
						Value: -1,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setupLogger(c *cli.Context) error {
	var level slog.Level
	switch strings.ToLower(c.String("log-level")) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("unknown log level: %s", c.String("log-level"))
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	return nil
}

// featureReader yields features from ndjson, one object per line.
func featureReader(r io.Reader, errOut *error) iter.Seq[*core.Feature] {
	return func(yield func(*core.Feature) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			var f core.Feature
			if err := json.Unmarshal([]byte(line), &f); err != nil {
				*errOut = err
				return
			}
			if !yield(&f) {
				return
			}
		}
		*errOut = scanner.Err()
	}
}

func indexCommand(c *cli.Context) error {
	input := io.Reader(os.Stdin)
	if path := c.String("input"); path != "" {
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		input = file
	}

	g, err := geostack.NewGeocoder(c.String("db"))
	if err != nil {
		return err
	}
	defer g.Close()

	var readErr error
	if err := g.Index(c.Context, featureReader(input, &readErr), c.String("pack")); err != nil {
		return err
	}
	if readErr != nil {
		return readErr
	}

	slog.Info("indexing complete", "db", c.String("db"))
	return nil
}

func lookupCommand(c *cli.Context) error {
	g, err := geostack.NewGeocoder(c.String("db"))
	if err != nil {
		return err
	}
	defer g.Close()

	word := c.String("word")
	postings, err := g.Dictionary().GetWord(c.Context, word)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d phrase(s)\n", word, len(postings))
	for _, phrase := range postings {
		fmt.Printf("  phrase %d\n", phrase)
		if idx := c.Int("idx"); idx >= 0 {
			entries, err := g.Grids().GetGridEntries(c.Context, uint16(idx), phrase)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Printf("    id=%d x=%d y=%d relev=%g score=%d\n", e.ID, e.X, e.Y, e.Relev, e.Score)
			}
		}
	}
	return nil
}
