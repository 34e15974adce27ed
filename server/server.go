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
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/pingcap-incubator/tinystm/config"
	"github.com/pingcap-incubator/tinystm/dict"
	"github.com/pingcap-incubator/tinystm/stm"
	"github.com/pingcap/log"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// HandlerBuilder builds the HTTP handler serving a server's dictionary.
type HandlerBuilder func(*Server) http.Handler

// Server shares one Dictionary over HTTP.
type Server struct {
	cfg       *config.Config
	dict      *dict.Dictionary
	isServing atomic.Bool

	httpServer *http.Server
	addr       string

	serverLoopCtx    context.Context
	serverLoopCancel func()
	serverLoopGroup  *errgroup.Group
	closeOnce        sync.Once
}

// CreateServer creates a server with an empty dictionary.
func CreateServer(cfg *config.Config, build HandlerBuilder) (*Server, error) {
	log.Info("tinystm config", zap.Reflect("config", cfg))
	stm.SetRetryWarnInterval(cfg.STM.RetryWarnInterval)

	s := &Server{
		cfg:  cfg,
		dict: dict.New(),
	}
	if build == nil {
		return nil, errors.New("no handler builder")
	}
	s.httpServer = &http.Server{
		Handler:      build(s),
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}
	return s, nil
}

// Run starts serving. It returns once the listener is bound; serving stops on Close or when ctx
// is done.
func (s *Server) Run(ctx context.Context) error {
	if !s.isServing.CompareAndSwap(false, true) {
		return errors.New("server is already running")
	}
	l, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		s.isServing.Store(false)
		return errors.WithStack(err)
	}
	s.addr = l.Addr().String()
	log.Info("start serving", zap.String("addr", s.addr))

	s.serverLoopCtx, s.serverLoopCancel = context.WithCancel(ctx)
	s.serverLoopGroup, _ = errgroup.WithContext(s.serverLoopCtx)
	s.serverLoopGroup.Go(func() error {
		if err := s.httpServer.Serve(l); err != http.ErrServerClosed {
			return errors.WithStack(err)
		}
		return nil
	})
	s.serverLoopGroup.Go(func() error {
		<-s.serverLoopCtx.Done()
		return errors.WithStack(s.httpServer.Shutdown(context.Background()))
	})
	return nil
}

// Close stops serving and waits for in-flight requests.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		if !s.isServing.Load() {
			return
		}
		log.Info("closing server")
		s.serverLoopCancel()
		if err := s.serverLoopGroup.Wait(); err != nil {
			log.Error("server loop exited with error", zap.Error(err))
		}
		s.isServing.Store(false)
		log.Info("close server")
	})
}

// IsClosed checks whether the server is closed or not.
func (s *Server) IsClosed() bool {
	return !s.isServing.Load()
}

// Context returns the loop context of server.
func (s *Server) Context() context.Context {
	return s.serverLoopCtx
}

// GetAddr returns the address the server listens on, valid after Run.
func (s *Server) GetAddr() string {
	return s.addr
}

// GetConfig gets the config information.
func (s *Server) GetConfig() *config.Config {
	return s.cfg
}

// GetDictionary returns the shared dictionary.
func (s *Server) GetDictionary() *dict.Dictionary {
	return s.dict
}
