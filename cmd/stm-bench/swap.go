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
	"strconv"

	"github.com/pingcap-incubator/tinystm/bench"
	"github.com/pingcap/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	swapX       int
	swapY       int
	swapWorkers int
	swapRounds  int
)

func newSwapCommand() *cobra.Command {
	m := &cobra.Command{
		Use:   "swap",
		Short: "Exchange two registers transactionally",
		Args:  cobra.NoArgs,
		RunE:  runSwapCommandFunc,
	}
	m.Flags().IntVar(&swapX, "x", 1, "initial value of the first register")
	m.Flags().IntVar(&swapY, "y", 4, "initial value of the second register")
	m.Flags().IntVar(&swapWorkers, "workers", 1, "number of concurrent swappers")
	m.Flags().IntVar(&swapRounds, "rounds", 1, "swaps per worker")
	return m
}

func runSwapCommandFunc(cmd *cobra.Command, args []string) error {
	if swapWorkers < 1 || swapRounds < 1 {
		return errors.New("workers and rounds must be positive")
	}
	report, err := bench.RunSwap(swapX, swapY, swapWorkers, swapRounds)
	if err != nil {
		return err
	}
	log.Info("swap finished",
		zap.Int("x", report.X),
		zap.Int("y", report.Y),
		zap.Int("retries", report.Retries))

	headers := []string{"X", "Y", "Swaps", "Retries", "Commit Date"}
	values := [][]string{{
		strconv.Itoa(report.X),
		strconv.Itoa(report.Y),
		strconv.Itoa(report.Swaps),
		strconv.Itoa(report.Retries),
		strconv.FormatUint(report.CommitDate, 10),
	}}
	return bench.Render(os.Stdout, outputStyle, headers, values)
}
