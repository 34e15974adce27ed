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
	"bytes"
	"io"
	"net/http/httptest"

	. "github.com/pingcap/check"
	"github.com/unrolled/render"
)

var _ = Suite(&testUtilSuite{})

type testUtilSuite struct{}

func (s *testUtilSuite) TestJsonRespondErrorOk(c *C) {
	rd := render.New(render.Options{
		IndentJSON: true,
	})
	response := httptest.NewRecorder()
	body := io.NopCloser(bytes.NewBufferString("{\"words\":[\"a\", \"b\"]}"))
	var input WordsInput
	err := readJSONRespondError(rd, response, body, &input)
	c.Assert(err, IsNil)
	c.Assert(input.Words, DeepEquals, []string{"a", "b"})
	result := response.Result()
	c.Assert(result.StatusCode, Equals, 200)
}

func (s *testUtilSuite) TestJsonRespondErrorBadInput(c *C) {
	rd := render.New(render.Options{
		IndentJSON: true,
	})
	response := httptest.NewRecorder()
	body := io.NopCloser(bytes.NewBufferString("{\"words\":\"a\"}"))
	var input WordsInput
	err := readJSONRespondError(rd, response, body, &input)
	c.Assert(err, NotNil)
	result := response.Result()
	c.Assert(result.StatusCode, Equals, 400)
}
