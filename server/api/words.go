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
	"github.com/unrolled/render"
)

// WordResult is the membership of one word.
type WordResult struct {
	Word    string `json:"word"`
	Added   *bool  `json:"added,omitempty"`
	Present *bool  `json:"present,omitempty"`
}

// WordsInput is the body of a batch insertion.
type WordsInput struct {
	Words []string `json:"words"`
}

// BatchResult reports a batch insertion.
type BatchResult struct {
	Added    []string `json:"added"`
	Existing []string `json:"existing"`
}

// WordsList is the ordered content of the dictionary.
type WordsList struct {
	Count int      `json:"count"`
	Words []string `json:"words"`
}

type wordsHandler struct {
	svr *server.Server
	rd  *render.Render
}

func newWordsHandler(svr *server.Server, rd *render.Render) *wordsHandler {
	return &wordsHandler{
		svr: svr,
		rd:  rd,
	}
}

func (h *wordsHandler) Post(w http.ResponseWriter, r *http.Request) {
	word := mux.Vars(r)["word"]
	added, err := h.svr.GetDictionary().Add(word)
	if err != nil {
		h.rd.JSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.rd.JSON(w, http.StatusOK, &WordResult{Word: word, Added: &added})
}

func (h *wordsHandler) PostBatch(w http.ResponseWriter, r *http.Request) {
	var input WordsInput
	if err := readJSONRespondError(h.rd, w, r.Body, &input); err != nil {
		return
	}
	result := BatchResult{Added: []string{}, Existing: []string{}}
	for _, word := range input.Words {
		added, err := h.svr.GetDictionary().Add(word)
		if err != nil {
			h.rd.JSON(w, http.StatusInternalServerError, err.Error())
			return
		}
		if added {
			result.Added = append(result.Added, word)
		} else {
			result.Existing = append(result.Existing, word)
		}
	}
	h.rd.JSON(w, http.StatusOK, &result)
}

func (h *wordsHandler) Get(w http.ResponseWriter, r *http.Request) {
	word := mux.Vars(r)["word"]
	present, err := h.svr.GetDictionary().Contains(word)
	if err != nil {
		h.rd.JSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := http.StatusOK
	if !present {
		status = http.StatusNotFound
	}
	h.rd.JSON(w, status, &WordResult{Word: word, Present: &present})
}

func (h *wordsHandler) List(w http.ResponseWriter, r *http.Request) {
	words, err := h.svr.GetDictionary().Words()
	if err != nil {
		h.rd.JSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	if words == nil {
		words = []string{}
	}
	h.rd.JSON(w, http.StatusOK, &WordsList{Count: len(words), Words: words})
}
