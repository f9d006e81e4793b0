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
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"
)

var sample = []byte{
	0xE0, 0x01, 0x00, 0xEA,
	0xE9, 0x81, 0x83, 0xD6, // $ion_symbol_table::{
	0x87, 0xB4, 0x83, 'f', 'o', 'o', // symbols: ["foo"]}
	0xEA, 0x81, 0x8A, 0xD7, // foo::{
	0x8A, 0x21, 0x2A, // foo: 42,
	0x84, 0x82, 'h', 'i', // name: "hi" }
	0xB6,                         // [
	0x44, 0x3F, 0xC0, 0x00, 0x00, // 1.5e0,
	0x8F,             // null.string ]
	0xA2, 0x01, 0x02, // {{AQI=}}
	0x71, 0x0A, // foo
}

var sampleEvents = []string{
	"SYMBOL_TABLE",
	"CONTAINER_START STRUCT annotations=foo",
	"  SCALAR INT field=foo value=42",
	`  SCALAR STRING field=name value="hi"`,
	"CONTAINER_END STRUCT",
	"CONTAINER_START LIST",
	"  SCALAR FLOAT value=1.5e+00",
	"  SCALAR STRING value=null.string",
	"CONTAINER_END LIST",
	"SCALAR BLOB value={{AQI=}}",
	"SCALAR SYMBOL value=foo",
	"STREAM_END",
}

// runProcess writes in to a file, processes it with the given command and
// arguments, and returns the output lines and the error report.
func runProcess(t *testing.T, cmd string, in []byte, args ...string) ([]string, string, error) {
	dir := t.TempDir()
	inf := filepath.Join(dir, "in.10n")
	outf := filepath.Join(dir, "out.txt")
	errf := filepath.Join(dir, "err.txt")
	require.NoError(t, os.WriteFile(inf, in, 0644))

	args = append(args, "-o", outf, "-e", errf, inf)
	err := process(cmd, args)

	out, rerr := os.ReadFile(outf)
	require.NoError(t, rerr)
	report, rerr := os.ReadFile(errf)
	require.NoError(t, rerr)

	return strings.Split(strings.TrimSuffix(string(out), "\n"), "\n"), string(report), err
}

func TestEvents(t *testing.T) {
	for _, chunk := range []int{1, 2, 5, 4096} {
		t.Run(strconv.Itoa(chunk), func(t *testing.T) {
			lines, report, err := runProcess(t, "events", sample, "-c", strconv.Itoa(chunk))
			require.NoError(t, err)
			assert.Empty(t, report)
			if diff := cmp.Diff(sampleEvents, lines); diff != "" {
				t.Errorf("events mismatch (-expected +actual):\n%s", diff)
			}
		})
	}
}

func TestEventsSmallBuffer(t *testing.T) {
	lines, _, err := runProcess(t, "events", sample, "-c", "3", "-i", "8", "-m", "16")
	require.NoError(t, err)
	if diff := cmp.Diff(sampleEvents, lines); diff != "" {
		t.Errorf("events mismatch (-expected +actual):\n%s", diff)
	}
}

func TestDump(t *testing.T) {
	lines, report, err := runProcess(t, "dump", sample)
	require.NoError(t, err)
	assert.Empty(t, report)
	if diff := cmp.Diff(sampleEvents, lines); diff != "" {
		t.Errorf("events mismatch (-expected +actual):\n%s", diff)
	}
}

func TestEventsZstd(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	compressed := enc.EncodeAll(sample, nil)
	require.NoError(t, enc.Close())

	for _, cmd := range []string{"events", "dump"} {
		t.Run(cmd, func(t *testing.T) {
			lines, _, err := runProcess(t, cmd, compressed, "-z", "-c", "7")
			require.NoError(t, err)
			if diff := cmp.Diff(sampleEvents, lines); diff != "" {
				t.Errorf("events mismatch (-expected +actual):\n%s", diff)
			}
		})
	}
}

func TestEventsYAML(t *testing.T) {
	dir := t.TempDir()
	inf := filepath.Join(dir, "in.10n")
	outf := filepath.Join(dir, "out.yaml")
	require.NoError(t, os.WriteFile(inf, sample, 0644))

	require.NoError(t, process("events", []string{"-f", "yaml", "-o", outf, inf}))

	out, err := os.ReadFile(outf)
	require.NoError(t, err)

	docs := strings.Split(strings.TrimPrefix(string(out), "---\n"), "---\n")
	require.Len(t, docs, len(sampleEvents))

	var ev map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(docs[1]), &ev))
	assert.Equal(t, "CONTAINER_START", ev["event_type"])
	assert.Equal(t, "STRUCT", ev["ion_type"])
	assert.Equal(t, float64(0), ev["depth"])
	assert.Equal(t, []interface{}{
		map[string]interface{}{"text": "foo", "sid": float64(10)},
	}, ev["annotations"])

	ev = nil
	require.NoError(t, yaml.Unmarshal([]byte(docs[2]), &ev))
	assert.Equal(t, "SCALAR", ev["event_type"])
	assert.Equal(t, "42", ev["value_text"])
	assert.Equal(t, float64(1), ev["depth"])
	assert.Equal(t, map[string]interface{}{"text": "foo", "sid": float64(10)}, ev["field_name"])
}

func TestEventsImports(t *testing.T) {
	in := []byte{
		0xE0, 0x01, 0x00, 0xEA,
		0xEE, 0x90, 0x81, 0x83, 0xDD, // $ion_symbol_table::{
		0x86, 0xBB, // imports: [
		0xDA,                                // {
		0x84, 0x85, 'o', 't', 'h', 'e', 'r', // name: "other",
		0x88, 0x21, 0x02, // max_id: 2 }]}
		0x71, 0x0B, // $11
	}

	expected := []string{
		"SYMBOL_TABLE import=other/1/2",
		"SCALAR SYMBOL value=$11",
		"STREAM_END",
	}
	for _, cmd := range []string{"events", "dump"} {
		t.Run(cmd, func(t *testing.T) {
			lines, _, err := runProcess(t, cmd, in)
			require.NoError(t, err)
			if diff := cmp.Diff(expected, lines); diff != "" {
				t.Errorf("events mismatch (-expected +actual):\n%s", diff)
			}
		})
	}
}

func TestEventsTruncated(t *testing.T) {
	in := sample[:len(sample)-1]

	for _, cmd := range []string{"events", "dump"} {
		t.Run(cmd, func(t *testing.T) {
			lines, report, err := runProcess(t, cmd, in, "-c", "4")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "1 error(s) reported")
			assert.True(t, strings.HasPrefix(report, "READ "), report)
			assert.Contains(t, report, "unexpected end of input")

			expected := append(sampleEvents[:len(sampleEvents)-2:len(sampleEvents)-2], "STREAM_END")
			if diff := cmp.Diff(expected, lines); diff != "" {
				t.Errorf("events mismatch (-expected +actual):\n%s", diff)
			}
		})
	}
}

func TestEventsTruncatedInContainer(t *testing.T) {
	in := sample[:31] // ends inside the list

	lines, report, err := runProcess(t, "events", in)
	require.Error(t, err)
	assert.Contains(t, report, "unexpected end of input")

	// The open list is closed so the stream stays balanced.
	expected := []string{
		"SYMBOL_TABLE",
		"CONTAINER_START STRUCT annotations=foo",
		"  SCALAR INT field=foo value=42",
		`  SCALAR STRING field=name value="hi"`,
		"CONTAINER_END STRUCT",
		"CONTAINER_START LIST",
		"  SCALAR FLOAT value=1.5e+00",
		"CONTAINER_END LIST",
		"STREAM_END",
	}
	if diff := cmp.Diff(expected, lines); diff != "" {
		t.Errorf("events mismatch (-expected +actual):\n%s", diff)
	}
}

func TestEventsOversized(t *testing.T) {
	in := []byte{0xE0, 0x01, 0x00, 0xEA, 0x8E, 0xA8}
	in = append(in, bytes.Repeat([]byte{'x'}, 40)...)
	in = append(in, 0x21, 0x01)

	lines, report, err := runProcess(t, "events", in, "-i", "8", "-m", "16", "-c", "5")
	require.NoError(t, err)
	assert.Empty(t, report)
	assert.Equal(t, []string{"OVERSIZED_VALUE", "SCALAR INT value=1", "STREAM_END"}, lines)
}

func TestEventsBadConfiguration(t *testing.T) {
	_, report, err := runProcess(t, "events", sample, "-i", "64", "-m", "16")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(report, "STATE "), report)
}

func TestNewProcessor(t *testing.T) {
	p, err := newProcessor("events", []string{"-z", "-c", "10", "-i", "16", "--max-buffer", "32", "-f", "yaml", "a", "b"})
	require.NoError(t, err)
	assert.True(t, p.zstd)
	assert.Equal(t, 10, p.chunk)
	assert.Equal(t, 16, p.cfg.InitialBufferSize)
	assert.Equal(t, 32, p.cfg.MaximumBufferSize)
	assert.Equal(t, "yaml", p.format)
	assert.Equal(t, []string{"a", "b"}, p.infs)

	p, err = newProcessor("dump", []string{"--", "-c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"-c"}, p.infs)
	assert.Equal(t, defaultChunkSize, p.chunk)

	bad := [][]string{
		{"-c"},
		{"-c", "0"},
		{"-m", "lots"},
		{"-o"},
		{"--bogus"},
	}
	for _, args := range bad {
		_, err := newProcessor("events", args)
		assert.Error(t, err, "%v", args)
	}
}

func TestBadFormat(t *testing.T) {
	dir := t.TempDir()
	err := process("events", []string{"-f", "xml", "-o", filepath.Join(dir, "out")})
	assert.Error(t, err)
}

func TestPrintVersion(t *testing.T) {
	buf := bytes.Buffer{}
	require.NoError(t, printVersion(&buf))

	var info versionInfo
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &info))
	assert.Equal(t, versionInfo{gitCommit, buildTime}, info)
}

func TestTokenString(t *testing.T) {
	foo, empty := "foo", ""
	assert.Equal(t, "foo", token{Text: &foo, SID: 10}.String())
	assert.Equal(t, "''", token{Text: &empty, SID: 11}.String())
	assert.Equal(t, "$12", token{SID: 12}.String())
}
