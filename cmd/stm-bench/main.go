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
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pingcap-incubator/tinystm/config"
	"github.com/pingcap-incubator/tinystm/stm"
	"github.com/pingcap/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	configFile  string
	logLevel    string
	outputStyle string

	globalContext context.Context
	globalCancel  context.CancelFunc
	globalConfig  *config.Config
)

// initialGlobal loads the configuration file and installs the logger.
func initialGlobal() error {
	cfg := config.NewConfig()
	var args []string
	if configFile != "" {
		args = append(args, "-config", configFile)
	}
	if logLevel != "" {
		args = append(args, "-L", logLevel)
	}
	if err := cfg.Parse(args); err != nil {
		return err
	}
	if err := cfg.SetupLogger(); err != nil {
		return err
	}
	log.ReplaceGlobals(cfg.GetZapLogger(), cfg.GetZapLogProperties())
	for _, msg := range cfg.WarningMsgs {
		log.Warn(msg)
	}
	stm.SetRetryWarnInterval(cfg.STM.RetryWarnInterval)
	globalConfig = cfg
	return nil
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "stm-bench",
		Short:         "Exercise the TL2 transactional memory and its dictionary",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initialGlobal()
		},
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "L", "", "log level: debug, info, warn, error, fatal (default 'info')")
	rootCmd.PersistentFlags().StringVarP(&outputStyle, "output", "o", "table", "output style: plain, table or json")

	rootCmd.AddCommand(
		newSwapCommand(),
		newFillCommand(),
		newShellCommand(),
	)
	return rootCmd
}

func main() {
	globalContext, globalCancel = context.WithCancel(context.Background())

	sc := make(chan os.Signal, 1)
	signal.Notify(sc,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	closeDone := make(chan struct{}, 1)
	go func() {
		sig := <-sc
		fmt.Printf("\nGot signal [%v] to exit.\n", sig)
		globalCancel()

		select {
		case <-sc:
			// send signal again, return directly
			fmt.Printf("\nGot signal [%v] again to exit.\n", sig)
			os.Exit(1)
		case <-time.After(10 * time.Second):
			fmt.Print("\nWait 10s for closed, force exit\n")
			os.Exit(1)
		case <-closeDone:
			return
		}
	}()

	cobra.EnablePrefixMatching = true

	rootCmd := newRootCommand()
	code := 0
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Cause(err) != context.Canceled {
			fmt.Println(rootCmd.UsageString())
		}
		code = 1
	}

	globalCancel()
	log.Sync()
	closeDone <- struct{}{}
	os.Exit(code)
}
