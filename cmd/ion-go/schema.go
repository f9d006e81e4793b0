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
	"strings"

	"github.com/amazon-ion/ion-incremental-go/ion"
)

// token describes an Ion symbol token.
type token struct {
	Text           *string         `json:"text,omitempty"`
	SID            int64           `json:"sid"`
	ImportLocation *importlocation `json:"import_location,omitempty"`
}

type importlocation struct {
	ImportName string `json:"import_name"`
	SID        int64  `json:"import_sid"`
}

func newToken(st ion.SymbolToken) token {
	t := token{Text: st.Text, SID: st.LocalSID}
	if st.Source != nil {
		t.ImportLocation = &importlocation{st.Source.Table, st.Source.SID}
	}
	return t
}

func (t token) String() string {
	switch {
	case t.Text == nil:
		return fmt.Sprintf("$%v", t.SID)
	case *t.Text == "":
		return "''"
	}
	return *t.Text
}

type importdescriptor struct {
	ImportName string `json:"import_name"`
	Version    int    `json:"version"`
	MaxID      uint64 `json:"max_id"`
}

type eventtype uint8

const (
	containerStart eventtype = iota
	containerEnd
	scalar
	symbolTable
	oversizedValue
	streamEnd
)

func (e eventtype) String() string {
	switch e {
	case containerStart:
		return "CONTAINER_START"
	case containerEnd:
		return "CONTAINER_END"
	case scalar:
		return "SCALAR"
	case symbolTable:
		return "SYMBOL_TABLE"
	case oversizedValue:
		return "OVERSIZED_VALUE"
	case streamEnd:
		return "STREAM_END"
	default:
		panic(fmt.Sprintf("unknown eventtype %d", e))
	}
}

func (e eventtype) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

type iontype ion.Type

func (i iontype) String() string {
	if ion.Type(i) == ion.NoType {
		return ""
	}
	return strings.ToUpper(ion.Type(i).String())
}

func (i iontype) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// event describes an Ion processing event.
type event struct {
	EventType   eventtype          `json:"event_type"`
	IonType     iontype            `json:"ion_type,omitempty"`
	FieldName   *token             `json:"field_name,omitempty"`
	Annotations []token            `json:"annotations,omitempty"`
	ValueText   string             `json:"value_text,omitempty"`
	Imports     []importdescriptor `json:"imports,omitempty"`
	Depth       int                `json:"depth"`
}

type errortype uint8

const (
	read errortype = iota
	write
	state
)

func (e errortype) String() string {
	switch e {
	case read:
		return "READ"
	case write:
		return "WRITE"
	case state:
		return "STATE"
	default:
		panic(fmt.Sprintf("unknown errortype %d", e))
	}
}

func (e errortype) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// errordescription describes an error during Ion processing.
type errordescription struct {
	ErrorType errortype `json:"error_type"`
	Message   string    `json:"message"`
	Location  string    `json:"location"`
	Index     int       `json:"event_index"`
}
