/*
 * Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License").
 * You may not use this file except in compliance with the License.
 * A copy of the License is located at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * or in the "license" file accompanying this file. This file is distributed
 * on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either
 * express or implied. See the License for the specific language governing
 * permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"
)

// OpenInput opens an input stream.
func OpenInput(in string) (io.ReadCloser, error) {
	r, err := os.Open(in)
	if err != nil {
		return nil, errors.Wrap(err, "opening input")
	}
	return r, nil
}

type uncloseable struct {
	w io.Writer
}

func (u uncloseable) Write(bs []byte) (int, error) {
	return u.w.Write(bs)
}

func (u uncloseable) Close() error {
	return nil
}

// OpenOutput opens the output stream.
func OpenOutput(outf string) (io.WriteCloser, error) {
	if outf == "" {
		return uncloseable{os.Stdout}, nil
	}
	return os.OpenFile(outf, os.O_RDWR|os.O_TRUNC|os.O_CREATE, 0644)
}

// OpenError opens the error stream.
func OpenError(errf string) (io.WriteCloser, error) {
	if errf == "" {
		return uncloseable{os.Stderr}, nil
	}
	return os.OpenFile(errf, os.O_RDWR|os.O_TRUNC|os.O_CREATE, 0644)
}

// ErrorReport is a (serialized) report of errors that occur during processing.
type ErrorReport struct {
	w     io.Writer
	yaml  bool
	count int
}

// NewErrorReport creates a new ErrorReport, written as YAML documents or as
// one line of text per error.
func NewErrorReport(w io.Writer, format string) *ErrorReport {
	return &ErrorReport{
		w:    w,
		yaml: format == "yaml",
	}
}

// Append appends an error to this report.
func (r *ErrorReport) Append(typ errortype, msg, loc string, idx int) {
	r.count++

	desc := errordescription{typ, msg, loc, idx}
	if !r.yaml {
		fmt.Fprintf(r.w, "%v %v[%v]: %v\n", desc.ErrorType, desc.Location, desc.Index, desc.Message)
		return
	}

	bs, err := yaml.Marshal(desc)
	if err != nil {
		panic(err)
	}
	fmt.Fprintf(r.w, "---\n%s", bs)
}

// Len returns the number of errors reported so far.
func (r *ErrorReport) Len() int {
	return r.count
}
