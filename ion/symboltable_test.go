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

package ion

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A lookup is one expected FindByID result. Empty text means the ID is not
// defined by the table.
type lookup struct {
	id   uint64
	text string
}

func checkLookups(t *testing.T, st SymbolTable, lookups ...lookup) {
	for _, l := range lookups {
		text, ok := st.FindByID(l.id)
		if l.text == "" {
			assert.False(t, ok, "FindByID(%v) = %q", l.id, text)
			continue
		}
		if assert.True(t, ok, "FindByID(%v)", l.id) {
			assert.Equal(t, l.text, text, "FindByID(%v)", l.id)
		}

		id, ok := st.FindByName(l.text)
		if assert.True(t, ok, "FindByName(%v)", l.text) {
			assert.LessOrEqual(t, id, l.id, "FindByName(%v) returns the lowest ID", l.text)
		}
	}
}

func TestSharedSymbolTable(t *testing.T) {
	st := NewSharedSymbolTable("test", 2, []string{"abc", "def", "foo'bar", "null", "def", "ghi"})

	assert.Equal(t, "test", st.Name())
	assert.Equal(t, 2, st.Version())
	assert.Equal(t, uint64(6), st.MaxID())
	assert.Empty(t, st.Imports())

	checkLookups(t, st,
		lookup{0, ""},
		lookup{2, "def"},
		lookup{4, "null"},
		lookup{5, "def"},
		lookup{7, ""},
	)

	id, _ := st.FindByName("def")
	assert.Equal(t, uint64(2), id)
	_, ok := st.FindByName("bogus")
	assert.False(t, ok)

	tok := st.Find("foo'bar")
	require.NotNil(t, tok)
	assert.Equal(t, NewSymbolTokenFromString("foo'bar"), *tok)
	assert.Nil(t, st.Find("bogus"))

	assert.Equal(t, `$ion_shared_symbol_table::{name:"test",version:2,symbols:["abc","def","foo'bar","null","def","ghi"]}`, st.String())
}

func TestSharedSymbolTableAdjust(t *testing.T) {
	st := NewSharedSymbolTable("s", 4, []string{"a", "b", "c"})
	assert.Same(t, st, st.Adjust(3))

	small := st.Adjust(2)
	assert.Equal(t, "s", small.Name())
	assert.Equal(t, 4, small.Version())
	assert.Equal(t, uint64(2), small.MaxID())
	assert.Equal(t, []string{"a", "b"}, small.Symbols())
	checkLookups(t, small, lookup{2, "b"}, lookup{3, ""})
	_, ok := small.FindByName("c")
	assert.False(t, ok)

	big := st.Adjust(5)
	assert.Equal(t, uint64(5), big.MaxID())
	assert.Equal(t, []string{"a", "b", "c", "", ""}, big.Symbols())
	checkLookups(t, big, lookup{3, "c"}, lookup{4, ""}, lookup{5, ""})

	assert.Equal(t, uint64(3), st.MaxID(), "adjusting leaves the original alone")
}

func TestMissingImport(t *testing.T) {
	missing := unknownImport("missing", 2, 3)
	assert.Equal(t, []string{"", "", ""}, missing.Symbols())
	assert.Nil(t, missing.Find("a"))
	assert.Equal(t, uint64(7), missing.Adjust(7).MaxID())

	st := newLocalSymbolTable([]SharedSymbolTable{missing}, knownSymbols([]string{"local"}))
	assert.Equal(t, uint64(13), st.MaxID())
	checkLookups(t, st, lookup{9, "$ion_shared_symbol_table"}, lookup{10, ""}, lookup{12, ""}, lookup{13, "local"})

	tok, ok := st.token(11)
	require.True(t, ok)
	assert.Empty(t, cmp.Diff(SymbolToken{LocalSID: 11, Source: newSource("missing", 2)}, tok))

	tok, ok = st.token(13)
	require.True(t, ok)
	assert.Empty(t, cmp.Diff(SymbolToken{Text: newString("local"), LocalSID: 13}, tok))

	_, ok = st.token(14)
	assert.False(t, ok)

	assert.Equal(t, `$ion_symbol_table::{imports:[{name:"missing",version:2,max_id:3}],symbols:["local"]}`, st.String())
}

func TestSubstituteImport(t *testing.T) {
	found := NewSharedSymbolTable("s", 1, []string{"a", "b"})

	wide := substituteImport(found, "s", 3, 3)
	assert.Equal(t, 3, wide.Version())
	assert.Equal(t, []string{"a", "b", ""}, wide.Symbols())
	checkLookups(t, wide, lookup{1, "a"}, lookup{2, "b"}, lookup{3, ""})
	require.NotNil(t, wide.Find("b"))

	narrow := wide.Adjust(1)
	assert.Equal(t, uint64(1), narrow.MaxID())
	checkLookups(t, narrow, lookup{1, "a"}, lookup{2, ""})
	_, ok := narrow.FindByName("b")
	assert.False(t, ok)
	assert.Nil(t, narrow.Find("b"))

	assert.Equal(t, `$ion_shared_symbol_table::{name:"s",version:3,symbols:["a"]}`, narrow.String())
}

func TestLocalSymbolTable(t *testing.T) {
	st := NewLocalSymbolTable(nil, []string{"foo", "bar"})

	assert.Equal(t, uint64(11), st.MaxID())
	assert.Equal(t, []string{"foo", "bar"}, st.Symbols())
	require.Len(t, st.Imports(), 1)
	assert.Same(t, V1SystemSymbolTable, st.Imports()[0])

	checkLookups(t, st, lookup{0, ""}, lookup{1, "$ion"}, lookup{10, "foo"}, lookup{11, "bar"}, lookup{12, ""})
	assert.Equal(t, `$ion_symbol_table::{symbols:["foo","bar"]}`, st.String())

	assert.Equal(t, "", NewLocalSymbolTable(nil, nil).String(), "a system-only table has no text form")
}

func TestLocalSymbolTableWithImports(t *testing.T) {
	first := NewSharedSymbolTable("first", 1, []string{"foo", "bar"})
	second := NewSharedSymbolTable("second", 5, []string{"baz"})

	st := newLocalSymbolTable([]SharedSymbolTable{first, second}, knownSymbols([]string{"foo", "qux"}))
	assert.Equal(t, uint64(14), st.MaxID())

	checkLookups(t, st,
		lookup{9, "$ion_shared_symbol_table"},
		lookup{10, "foo"},
		lookup{11, "bar"},
		lookup{12, "baz"},
		lookup{13, "foo"},
		lookup{14, "qux"},
		lookup{15, ""},
	)

	id, _ := st.FindByName("foo")
	assert.Equal(t, uint64(10), id, "imports shadow local symbols")

	for id, want := range map[uint64]int{1: 0, 9: 0, 10: 1, 11: 1, 12: 2} {
		assert.Equal(t, want, st.importFor(id), "importFor(%v)", id)
	}

	tests := []struct {
		id       uint64
		expected SymbolToken
	}{
		{0, SymbolToken{}},
		{4, SymbolToken{Text: newString("name"), LocalSID: 4, Source: newSource("$ion", 4)}},
		{11, SymbolToken{Text: newString("bar"), LocalSID: 11, Source: newSource("first", 2)}},
		{12, SymbolToken{Text: newString("baz"), LocalSID: 12, Source: newSource("second", 1)}},
		{14, SymbolToken{Text: newString("qux"), LocalSID: 14}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("$%v", tt.id), func(t *testing.T) {
			tok, ok := st.token(tt.id)
			require.True(t, ok)
			assert.Empty(t, cmp.Diff(tt.expected, tok))
		})
	}

	assert.Equal(t, `$ion_symbol_table::{imports:[{name:"first",version:1,max_id:2},{name:"second",version:5,max_id:1}],symbols:["foo","qux"]}`, st.String())
}

func TestAppendSymbols(t *testing.T) {
	st := newLocalSymbolTable(nil, nil)
	before := st.snapshot()

	st.appendSymbols([]*string{newString("a"), nil, newString("a")})
	assert.Equal(t, uint64(12), st.MaxID())

	id, ok := st.FindByName("a")
	require.True(t, ok)
	assert.Equal(t, uint64(10), id)

	_, ok = st.FindByID(11)
	assert.False(t, ok)

	tok, ok := st.token(11)
	require.True(t, ok)
	assert.Nil(t, tok.Text, "a null symbol has unknown text")

	assert.Equal(t, uint64(9), before.MaxID())
	_, ok = before.FindByName("a")
	assert.False(t, ok)

	after := st.snapshot()
	st.appendSymbols([]*string{newString("b")})
	_, ok = after.FindByName("b")
	assert.False(t, ok, "appends do not reach earlier snapshots")
	assert.Equal(t, uint64(12), after.MaxID())
	assert.Equal(t, uint64(13), st.MaxID())
}

func TestEmptySymbolText(t *testing.T) {
	st := newLocalSymbolTable(nil, []*string{newString(""), nil})
	assert.Equal(t, uint64(11), st.MaxID())

	text, ok := st.FindByID(10)
	assert.True(t, ok, "the empty string is known text")
	assert.Equal(t, "", text)
	_, ok = st.FindByID(11)
	assert.False(t, ok)

	id, ok := st.FindByName("")
	require.True(t, ok)
	assert.Equal(t, uint64(10), id)

	tok, ok := st.token(10)
	require.True(t, ok)
	assert.Empty(t, cmp.Diff(SymbolToken{Text: newString(""), LocalSID: 10}, tok))
	tok, ok = st.token(11)
	require.True(t, ok)
	assert.Nil(t, tok.Text)

	assert.Equal(t, []string{"", ""}, st.Symbols())
	assert.Equal(t, `$ion_symbol_table::{symbols:["",null]}`, st.String())

	st.appendSymbols([]*string{nil, newString("")})
	id, _ = st.FindByName("")
	assert.Equal(t, uint64(10), id)

	// A substitute keeps the known and unknown IDs of the table it stands in for.
	found := NewSharedSymbolTable("s", 1, []string{""})
	text, ok = found.FindByID(1)
	assert.True(t, ok)
	assert.Equal(t, "", text)

	wide := substituteImport(found, "s", 2, 2)
	text, ok = wide.FindByID(1)
	assert.True(t, ok)
	assert.Equal(t, "", text)
	_, ok = wide.FindByID(2)
	assert.False(t, ok)
	assert.Equal(t, `$ion_shared_symbol_table::{name:"s",version:2,symbols:[""]}`, wide.String())
}

func newString(value string) *string {
	return &value
}
