// Command vocabctl feeds documents into the live vocabularies and inspects
// them from the command line.
//
// Usage:
//
//	vocabctl ingest [--batch] FILE...
//	vocabctl watch DIR
//	vocabctl stats
//	vocabctl words [--mode count|weight] [--limit N]
package main

import (
	"os"

	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
