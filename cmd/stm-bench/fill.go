// Copyright 2018 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"os"
	"time"

	"github.com/pingcap-incubator/tinystm/bench"
	"github.com/pingcap/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	fillImpls     []string
	fillWorkers   int
	fillAlphabet  string
	fillMinLength int
	fillMaxLength int
	fillRate      int64
	fillSeed      int64
)

func newFillCommand() *cobra.Command {
	m := &cobra.Command{
		Use:   "fill",
		Short: "Insert every word over an alphabet concurrently and verify the dictionary",
		Args:  cobra.NoArgs,
		RunE:  runFillCommandFunc,
	}
	m.Flags().StringSliceVar(&fillImpls, "impl", []string{bench.ImplTL2, bench.ImplPlain}, "dictionary implementations to run")
	m.Flags().IntVar(&fillWorkers, "workers", 0, "number of workers, 0 means one per logical CPU")
	m.Flags().StringVar(&fillAlphabet, "alphabet", "", "characters of the generated words")
	m.Flags().IntVar(&fillMinLength, "min-length", 0, "shortest generated word")
	m.Flags().IntVar(&fillMaxLength, "max-length", 0, "longest generated word")
	m.Flags().Int64Var(&fillRate, "rate", 0, "insertions per second, 0 means unlimited")
	m.Flags().Int64Var(&fillSeed, "seed", time.Now().UnixNano(), "seed of the insertion order")
	return m
}

func runFillCommandFunc(cmd *cobra.Command, args []string) error {
	cfg := globalConfig.Fill
	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers = fillWorkers
	}
	if flags.Changed("alphabet") {
		cfg.Alphabet = fillAlphabet
	}
	if flags.Changed("min-length") {
		cfg.MinLength = fillMinLength
	}
	if flags.Changed("max-length") {
		cfg.MaxLength = fillMaxLength
	}
	if flags.Changed("rate") {
		cfg.Rate = fillRate
	}

	var rows [][]string
	for _, impl := range fillImpls {
		select {
		case <-globalContext.Done():
			return globalContext.Err()
		default:
		}
		set, err := bench.NewSet(impl)
		if err != nil {
			return err
		}
		report, err := bench.Fill(impl, set, cfg, fillSeed)
		if err != nil {
			log.Error("fill failed", zap.String("impl", impl), zap.Error(err))
			return err
		}
		rows = append(rows, report.Row())
	}
	return bench.Render(os.Stdout, outputStyle, bench.FillHeaders, rows)
}
