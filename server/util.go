// Copyright 2016 PingCAP, Inc.
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

package server

import (
	"fmt"
	"io"

	"github.com/pingcap-incubator/tinystm/config"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// Version information, set by -ldflags at build time.
var (
	ReleaseVersion = "None"
	BuildTS        = "None"
	GitHash        = "None"
	GitBranch      = "None"
)

// LogInfo prints the version information.
func LogInfo() {
	log.Info("Welcome to tinystm")
	log.Info("tinystm", zap.String("release-version", ReleaseVersion))
	log.Info("tinystm", zap.String("git-hash", GitHash))
	log.Info("tinystm", zap.String("git-branch", GitBranch))
	log.Info("tinystm", zap.String("utc-build-time", BuildTS))
}

// PrintInfo prints the version information without log info.
func PrintInfo(w io.Writer) {
	fmt.Fprintln(w, "Release Version:", ReleaseVersion)
	fmt.Fprintln(w, "Git Commit Hash:", GitHash)
	fmt.Fprintln(w, "Git Branch:", GitBranch)
	fmt.Fprintln(w, "UTC Build Time: ", BuildTS)
}

// PrintConfigCheckMsg prints the message about configuration checks.
func PrintConfigCheckMsg(w io.Writer, cfg *config.Config) {
	if len(cfg.WarningMsgs) == 0 {
		fmt.Fprintln(w, "config check successful")
		return
	}

	for _, msg := range cfg.WarningMsgs {
		fmt.Fprintln(w, msg)
	}
}
