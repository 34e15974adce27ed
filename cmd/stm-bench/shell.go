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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mattn/go-shellwords"
	"github.com/pingcap-incubator/tinystm/bench"
	"github.com/pingcap-incubator/tinystm/dict"
	"github.com/spf13/cobra"
)

var shellImpl string

func newShellCommand() *cobra.Command {
	m := &cobra.Command{
		Use:   "shell",
		Short: "Interactive dictionary client",
		Args:  cobra.NoArgs,
		RunE:  runShellCommandFunc,
	}
	m.Flags().StringVar(&shellImpl, "impl", bench.ImplTL2, "dictionary implementation")
	return m
}

func runShellCommandFunc(cmd *cobra.Command, args []string) error {
	set, err := bench.NewSet(shellImpl)
	if err != nil {
		return err
	}
	l, err := readline.NewEx(&readline.Config{
		Prompt:            "\033[31m»\033[0m ",
		HistoryFile:       filepath.Join(os.TempDir(), "stm-bench.history"),
		InterruptPrompt:   "^C",
		EOFPrompt:         "^D",
		HistorySearchFold: true,
	})
	if err != nil {
		return err
	}
	defer l.Close()

	sh := &shell{set: set, out: l.Stdout()}
	for {
		line, err := l.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				return nil
			}
			continue
		}
		if strings.TrimSpace(line) == "exit" {
			return nil
		}
		sh.run(line)
	}
}

// shell executes dictionary commands typed one line at a time.
type shell struct {
	set dict.Set
	out io.Writer
}

func (s *shell) run(line string) {
	args, err := shellwords.Parse(line)
	if err != nil {
		fmt.Fprintf(s.out, "invalid command line: %v\n", err)
		return
	}
	if len(args) == 0 {
		return
	}

	cmd := &cobra.Command{
		Use:           "shell",
		Short:         "Dictionary shell command",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(s.out)
	cmd.SetErr(s.out)
	cmd.SetArgs(args)

	cmd.AddCommand(
		&cobra.Command{
			Use:                   "add word [word ...]",
			Short:                 "Insert words, quote \"\" for the empty word",
			Args:                  cobra.MinimumNArgs(1),
			Run:                   s.runAdd,
			DisableFlagsInUseLine: true,
		},
		&cobra.Command{
			Use:                   "contains word [word ...]",
			Short:                 "Check whether words are members",
			Args:                  cobra.MinimumNArgs(1),
			Run:                   s.runContains,
			DisableFlagsInUseLine: true,
		},
		&cobra.Command{
			Use:                   "list",
			Short:                 "List every word in order",
			Args:                  cobra.NoArgs,
			Run:                   s.runList,
			DisableFlagsInUseLine: true,
		},
	)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(s.out, err)
		fmt.Fprintln(s.out, cmd.UsageString())
	}
}

func (s *shell) runAdd(cmd *cobra.Command, args []string) {
	for _, word := range args {
		added, err := s.set.Add(word)
		switch {
		case err != nil:
			fmt.Fprintf(s.out, "Add %q failed %v\n", word, err)
		case added:
			fmt.Fprintf(s.out, "Add %q ok\n", word)
		default:
			fmt.Fprintf(s.out, "Add %q: already present\n", word)
		}
	}
}

func (s *shell) runContains(cmd *cobra.Command, args []string) {
	for _, word := range args {
		found, err := s.set.Contains(word)
		if err != nil {
			fmt.Fprintf(s.out, "Contains %q failed %v\n", word, err)
			continue
		}
		fmt.Fprintf(s.out, "%q: %v\n", word, found)
	}
}

func (s *shell) runList(cmd *cobra.Command, args []string) {
	words, err := s.set.Words()
	if err != nil {
		fmt.Fprintf(s.out, "List failed %v\n", err)
		return
	}
	for _, w := range words {
		fmt.Fprintf(s.out, "%q\n", w)
	}
	fmt.Fprintf(s.out, "%d words\n", len(words))
}
