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
	"io"
	"strconv"
	"sync"

	"github.com/puzpuzpuz/xsync/v4"
)

// A Catalog provides access to shared symbol tables.
type Catalog interface {
	FindExact(name string, version int) SharedSymbolTable
	FindLatest(name string) SharedSymbolTable
}

// A MemoryCatalog is an in-memory collection of shared symbol tables. It is
// safe for concurrent use, so one catalog can serve many readers.
type MemoryCatalog struct {
	mu     sync.Mutex
	ssts   *xsync.Map[string, SharedSymbolTable]
	latest *xsync.Map[string, SharedSymbolTable]
}

var _ Catalog = &MemoryCatalog{}

// NewCatalog creates a new catalog containing the given symbol tables.
func NewCatalog(ssts ...SharedSymbolTable) *MemoryCatalog {
	cat := &MemoryCatalog{
		ssts:   xsync.NewMap[string, SharedSymbolTable](),
		latest: xsync.NewMap[string, SharedSymbolTable](),
	}
	for _, sst := range ssts {
		cat.Add(sst)
	}
	return cat
}

func catalogKey(name string, version int) string {
	return name + "/" + strconv.Itoa(version)
}

// Add adds a shared symbol table to the catalog, replacing any table with the
// same name and version.
func (c *MemoryCatalog) Add(sst SharedSymbolTable) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ssts.Store(catalogKey(sst.Name(), sst.Version()), sst)

	cur, ok := c.latest.Load(sst.Name())
	if !ok || sst.Version() >= cur.Version() {
		c.latest.Store(sst.Name(), sst)
	}
}

// FindExact attempts to find a shared symbol table with the given name and version.
func (c *MemoryCatalog) FindExact(name string, version int) SharedSymbolTable {
	sst, _ := c.ssts.Load(catalogKey(name, version))
	return sst
}

// FindLatest finds the shared symbol table with the given name and largest version.
func (c *MemoryCatalog) FindLatest(name string) SharedSymbolTable {
	sst, _ := c.latest.Load(name)
	return sst
}

// A System is a reader factory wrapping a catalog.
type System struct {
	Catalog Catalog
}

// NewIncrementalReader creates a non-blocking reader over a stream using this
// system's catalog.
func (s System) NewIncrementalReader(in io.Reader, cfg BufferConfiguration) (*IncrementalReader, error) {
	return NewIncrementalReaderCat(in, cfg, s.Catalog)
}

// NewIncrementalReaderBytes creates a non-blocking reader over a complete
// input using this system's catalog.
func (s System) NewIncrementalReaderBytes(in []byte, cfg BufferConfiguration) (*IncrementalReader, error) {
	return NewIncrementalReaderBytesCat(in, cfg, s.Catalog)
}

// NewReader creates a new reader using this system's catalog.
func (s System) NewReader(in io.Reader) Reader {
	return NewReaderCat(in, s.Catalog)
}

// NewReaderBytes creates a new reader using this system's catalog.
func (s System) NewReaderBytes(in []byte) Reader {
	return NewReaderBytesCat(in, s.Catalog)
}
