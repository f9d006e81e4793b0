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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// itemStream encodes ten item::{id: i, name: "Item i"} values using symbols
// imported from the "item" shared table.
func itemStream() []byte {
	bs := []byte{
		0xE0, 0x01, 0x00, 0xEA,
		0xEE, 0x93, 0x81, 0x83, 0xDE, 0x8F, // $ion_symbol_table::{
		0x86, 0xBD, // imports: [
		0xDC,                               // {
		0x84, 0x84, 'i', 't', 'e', 'm', // name: "item",
		0x85, 0x21, 0x01, // version: 1,
		0x88, 0x21, 0x04, // max_id: 4 }]}
	}
	for i := 0; i < 10; i++ {
		bs = append(bs,
			0xEE, 0x8E, 0x81, 0x8A, 0xDB, // item::{
			0x8B, 0x21, byte(i), // id: i,
			0x8C, 0x86, 'I', 't', 'e', 'm', ' ', '0'+byte(i), // name: "Item i" }
		)
	}
	return bs
}

func TestCatalog(t *testing.T) {
	sst := NewSharedSymbolTable("item", 1, []string{
		"item",
		"id",
		"name",
		"description",
	})

	sys := System{Catalog: NewCatalog(sst)}
	in := sys.NewReaderBytes(itemStream())

	i := 0
	for ; in.Next(); i++ {
		as, err := in.Annotations()
		require.NoError(t, err)
		require.Len(t, as, 1)
		require.NotNil(t, as[0].Text)
		assert.Equal(t, "item", *as[0].Text)
		assert.Equal(t, &ImportSource{"item", 1}, as[0].Source)

		require.NoError(t, in.StepIn())

		require.True(t, in.Next())
		fn, err := in.FieldName()
		require.NoError(t, err)
		assert.Equal(t, "id", *fn.Text)
		id, err := in.IntValue()
		require.NoError(t, err)
		assert.Equal(t, i, id)

		require.True(t, in.Next())
		fn, err = in.FieldName()
		require.NoError(t, err)
		assert.Equal(t, "name", *fn.Text)
		name, err := in.StringValue()
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("Item %v", i), name)

		require.NoError(t, in.StepOut())
	}
	require.NoError(t, in.Err())
	assert.Equal(t, 10, i)

	imports := in.SymbolTable().Imports()
	require.Len(t, imports, 2)
	assert.Equal(t, sst, imports[1])
}

func TestCatalogMissingTable(t *testing.T) {
	in := NewReaderBytes(itemStream())

	require.True(t, in.Next())
	as, err := in.Annotations()
	require.NoError(t, err)
	require.Len(t, as, 1)
	assert.Nil(t, as[0].Text, "symbols from a missing table have unknown text")
	assert.Equal(t, int64(10), as[0].LocalSID)
	assert.Equal(t, uint64(13), in.SymbolTable().MaxID())
}

func TestMemoryCatalogFind(t *testing.T) {
	v1 := NewSharedSymbolTable("foo", 1, []string{"a"})
	v3 := NewSharedSymbolTable("foo", 3, []string{"a", "b", "c"})
	v2 := NewSharedSymbolTable("foo", 2, []string{"a", "b"})
	bar := NewSharedSymbolTable("bar", 1, nil)

	cat := NewCatalog(v1, v3, v2, bar)

	assert.Equal(t, v1, cat.FindExact("foo", 1))
	assert.Equal(t, v2, cat.FindExact("foo", 2))
	assert.Nil(t, cat.FindExact("foo", 4))
	assert.Nil(t, cat.FindExact("baz", 1))

	assert.Equal(t, v3, cat.FindLatest("foo"))
	assert.Equal(t, bar, cat.FindLatest("bar"))
	assert.Nil(t, cat.FindLatest("baz"))

	v3b := NewSharedSymbolTable("foo", 3, []string{"x"})
	cat.Add(v3b)
	assert.Equal(t, v3b, cat.FindExact("foo", 3))
	assert.Equal(t, v3b, cat.FindLatest("foo"))
}

func TestMemoryCatalogConcurrent(t *testing.T) {
	cat := NewCatalog()

	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(version int) {
			defer wg.Done()
			cat.Add(NewSharedSymbolTable("foo", version, []string{"a"}))
			cat.FindLatest("foo")
		}(i)
	}
	wg.Wait()

	for i := 1; i <= 8; i++ {
		assert.NotNil(t, cat.FindExact("foo", i))
	}
	assert.Equal(t, 8, cat.FindLatest("foo").Version())
}

func TestCatalogSharedAcrossReaders(t *testing.T) {
	sys := System{Catalog: NewCatalog(NewSharedSymbolTable("item", 1, []string{"item", "id", "name", "description"}))}

	var wg sync.WaitGroup
	counts := make([]int, 4)
	for i := range counts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := sys.NewReaderBytes(itemStream())
			for in.Next() {
				counts[i]++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, []int{10, 10, 10, 10}, counts)
}
