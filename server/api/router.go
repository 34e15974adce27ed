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

package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pingcap-incubator/tinystm/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/unrolled/render"
)

const (
	pingAPI    = "/ping"
	metricsAPI = "/metrics"
)

func createRouter(prefix string, svr *server.Server) *mux.Router {
	rd := render.New(render.Options{
		IndentJSON: true,
	})

	router := mux.NewRouter().PathPrefix(prefix).Subrouter()

	wordsHandler := newWordsHandler(svr, rd)
	router.HandleFunc("/api/v1/words", wordsHandler.List).Methods("GET")
	router.HandleFunc("/api/v1/words", wordsHandler.PostBatch).Methods("POST")
	router.HandleFunc("/api/v1/words/{word}", wordsHandler.Get).Methods("GET")
	router.HandleFunc("/api/v1/words/{word}", wordsHandler.Post).Methods("POST")

	router.Handle("/api/v1/config", newConfHandler(svr, rd)).Methods("GET")

	router.Handle(metricsAPI, promhttp.Handler()).Methods("GET")
	router.HandleFunc(pingAPI, func(w http.ResponseWriter, r *http.Request) {}).Methods("GET")

	return router
}
