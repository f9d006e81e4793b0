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
	"encoding/base64"
	"fmt"
	"io"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/amazon-ion/ion-incremental-go/ion"
	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"
)

// valueReader is the part of the reader API needed to describe a value. Both
// *ion.IncrementalReader and ion.Reader provide it.
type valueReader interface {
	Type() ion.Type
	IsNull() bool
	FieldName() (*ion.SymbolToken, error)
	Annotations() ([]ion.SymbolToken, error)
	BoolValue() (bool, error)
	BigIntValue() (*big.Int, error)
	FloatValue() (float64, error)
	DecimalValue() (*ion.Decimal, error)
	TimestampValue() (ion.Timestamp, error)
	SymbolValue() (ion.SymbolToken, error)
	StringValue() (string, error)
	ByteValue() ([]byte, error)
}

// An eventwriter writes a stream of events, one per line of text or one per
// YAML document.
type eventwriter struct {
	out   io.Writer
	yaml  bool
	depth int
	types []ion.Type
}

func newEventWriter(out io.Writer, format string) (*eventwriter, error) {
	switch format {
	case "", "text":
		return &eventwriter{out: out}, nil
	case "yaml":
		return &eventwriter{out: out, yaml: true}, nil
	default:
		return nil, errors.Errorf("unrecognized output format %q", format)
	}
}

// Begin writes a container start event and moves one level deeper.
func (e *eventwriter) Begin(ev event) error {
	if err := e.write(ev); err != nil {
		return err
	}
	e.types = append(e.types, ion.Type(ev.IonType))
	e.depth++
	return nil
}

// End writes the end event for the innermost open container.
func (e *eventwriter) End() error {
	if e.depth == 0 {
		return errors.New("end of container at top level")
	}
	e.depth--
	t := e.types[len(e.types)-1]
	e.types = e.types[:len(e.types)-1]
	return e.write(event{EventType: containerEnd, IonType: iontype(t)})
}

func (e *eventwriter) Write(ev event) error {
	return e.write(ev)
}

func (e *eventwriter) Finish() error {
	if e.depth != 0 {
		return errors.Errorf("stream ended at depth %v", e.depth)
	}
	return e.write(event{EventType: streamEnd})
}

func (e *eventwriter) write(ev event) error {
	ev.Depth = e.depth
	if e.yaml {
		return e.writeYAML(ev)
	}
	return e.writeText(ev)
}

func (e *eventwriter) writeYAML(ev event) error {
	bs, err := yaml.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshaling event")
	}
	if _, err := io.WriteString(e.out, "---\n"); err != nil {
		return err
	}
	_, err = e.out.Write(bs)
	return err
}

func (e *eventwriter) writeText(ev event) error {
	sb := strings.Builder{}
	sb.WriteString(strings.Repeat("  ", ev.Depth))
	sb.WriteString(ev.EventType.String())

	if ev.IonType != 0 {
		sb.WriteString(" ")
		sb.WriteString(ev.IonType.String())
	}
	if ev.FieldName != nil {
		sb.WriteString(" field=")
		sb.WriteString(ev.FieldName.String())
	}
	if len(ev.Annotations) > 0 {
		as := make([]string, len(ev.Annotations))
		for i, a := range ev.Annotations {
			as[i] = a.String()
		}
		sb.WriteString(" annotations=")
		sb.WriteString(strings.Join(as, ","))
	}
	if ev.ValueText != "" {
		sb.WriteString(" value=")
		sb.WriteString(ev.ValueText)
	}
	for _, imp := range ev.Imports {
		fmt.Fprintf(&sb, " import=%v/%v/%v", imp.ImportName, imp.Version, imp.MaxID)
	}

	_, err := fmt.Fprintln(e.out, sb.String())
	return err
}

// describe builds an event for the value r is positioned on, without reading
// the value itself.
func describe(r valueReader, typ eventtype) (event, error) {
	ev := event{EventType: typ, IonType: iontype(r.Type())}

	fn, err := r.FieldName()
	if err != nil {
		return ev, err
	}
	if fn != nil {
		tok := newToken(*fn)
		ev.FieldName = &tok
	}

	as, err := r.Annotations()
	if err != nil {
		return ev, err
	}
	for _, a := range as {
		ev.Annotations = append(ev.Annotations, newToken(a))
	}
	return ev, nil
}

// describeScalar builds an event for the scalar r is positioned on.
func describeScalar(r valueReader) (event, error) {
	ev, err := describe(r, scalar)
	if err != nil {
		return ev, err
	}
	ev.ValueText, err = valueText(r)
	return ev, err
}

// describeSymbolTable builds an event for a newly installed symbol table. It
// returns false for a table holding nothing but the system symbols.
func describeSymbolTable(st ion.SymbolTable) (event, bool) {
	ev := event{EventType: symbolTable}
	for _, imp := range st.Imports() {
		if imp.Name() == "$ion" {
			continue
		}
		ev.Imports = append(ev.Imports, importdescriptor{imp.Name(), imp.Version(), imp.MaxID()})
	}
	return ev, len(ev.Imports) > 0 || len(st.Symbols()) > 0
}

// valueText formats the current value in Ion text notation.
func valueText(r valueReader) (string, error) {
	t := r.Type()
	if r.IsNull() {
		if t == ion.NullType {
			return "null", nil
		}
		return "null." + t.String(), nil
	}

	switch t {
	case ion.BoolType:
		val, err := r.BoolValue()
		return strconv.FormatBool(val), err

	case ion.IntType:
		val, err := r.BigIntValue()
		if err != nil {
			return "", err
		}
		return val.String(), nil

	case ion.FloatType:
		val, err := r.FloatValue()
		return formatFloat(val), err

	case ion.DecimalType:
		val, err := r.DecimalValue()
		if err != nil {
			return "", err
		}
		return val.String(), nil

	case ion.TimestampType:
		val, err := r.TimestampValue()
		if err != nil {
			return "", err
		}
		return val.String(), nil

	case ion.SymbolType:
		val, err := r.SymbolValue()
		if err != nil {
			return "", err
		}
		return newToken(val).String(), nil

	case ion.StringType:
		val, err := r.StringValue()
		return strconv.Quote(val), err

	case ion.ClobType:
		val, err := r.ByteValue()
		return "{{" + strconv.Quote(string(val)) + "}}", err

	case ion.BlobType:
		val, err := r.ByteValue()
		return "{{" + base64.StdEncoding.EncodeToString(val) + "}}", err

	default:
		return "", errors.Errorf("cannot format a value of type %v", t)
	}
}

func formatFloat(val float64) string {
	switch {
	case math.IsNaN(val):
		return "nan"
	case math.IsInf(val, 1):
		return "+inf"
	case math.IsInf(val, -1):
		return "-inf"
	default:
		return strconv.FormatFloat(val, 'e', -1, 64)
	}
}
