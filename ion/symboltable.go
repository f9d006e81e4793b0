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
	"sort"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// System symbol IDs.
const (
	ionSID               = 1
	ionVersionSID        = 2
	symbolTableSID       = 3
	nameSID              = 4
	versionSID           = 5
	importsSID           = 6
	symbolsSID           = 7
	maxIDSID             = 8
	sharedSymbolTableSID = 9
)

// A SymbolTable maps symbol IDs to symbol text and back. Some IDs are
// assigned without text; FindByID reports those as not found.
type SymbolTable interface {
	// Imports returns the shared tables this table imports, in ID order.
	Imports() []SharedSymbolTable
	// Symbols returns the symbols this table defines itself, with an empty
	// string in place of unknown text.
	Symbols() []string
	// MaxID returns the highest ID this table assigns.
	MaxID() uint64
	// Find returns a token for the symbol, or nil if it is not in the table.
	Find(symbol string) *SymbolToken
	// FindByName returns the lowest ID assigned to the symbol.
	FindByName(symbol string) (uint64, bool)
	// FindByID returns the text of an ID, or false if the text is unknown.
	FindByID(id uint64) (string, bool)
	// String returns the table as Ion text.
	String() string
}

// A SharedSymbolTable is distributed out-of-band and imported by name and
// version into local symbol tables.
type SharedSymbolTable interface {
	SymbolTable

	// Name returns the name of this shared symbol table.
	Name() string
	// Version returns the version of this shared symbol table.
	Version() int
	// Adjust returns a copy of the table cut down or padded out to maxID.
	Adjust(maxID uint64) SharedSymbolTable
}

// An sst holds at most maxID symbols. A nil symbol, or an ID past the end of
// symbols, has unknown text.
type sst struct {
	name    string
	version int
	symbols []*string
	index   map[string]uint64
	maxID   uint64
}

// NewSharedSymbolTable creates a new shared symbol table. Every symbol,
// including the empty string, has known text.
func NewSharedSymbolTable(name string, version int, symbols []string) SharedSymbolTable {
	syms := knownSymbols(symbols)
	return &sst{
		name:    name,
		version: version,
		symbols: syms,
		index:   buildIndex(syms, 1),
		maxID:   uint64(len(syms)),
	}
}

// UnknownImport reserves maxID IDs for an import the catalog does not have.
func unknownImport(name string, version int, maxID uint64) SharedSymbolTable {
	return &sst{name: name, version: version, maxID: maxID}
}

// SubstituteImport answers for an import under its declared name, version and
// max ID, using the symbols of the closest table the catalog has.
func substituteImport(found SharedSymbolTable, name string, version int, maxID uint64) SharedSymbolTable {
	n := found.MaxID()
	if n > maxID {
		n = maxID
	}
	symbols := make([]*string, n)
	for i := range symbols {
		if text, ok := found.FindByID(uint64(i) + 1); ok {
			symbols[i] = &text
		}
	}
	return &sst{
		name:    name,
		version: version,
		symbols: symbols,
		index:   buildIndex(symbols, 1),
		maxID:   maxID,
	}
}

func (s *sst) Name() string {
	return s.name
}

func (s *sst) Version() int {
	return s.version
}

func (s *sst) Imports() []SharedSymbolTable {
	return nil
}

func (s *sst) Symbols() []string {
	syms := make([]string, s.maxID)
	for i, sym := range s.symbols {
		if sym != nil {
			syms[i] = *sym
		}
	}
	return syms
}

func (s *sst) MaxID() uint64 {
	return s.maxID
}

func (s *sst) Adjust(maxID uint64) SharedSymbolTable {
	if maxID == s.maxID {
		return s
	}

	adjusted := *s
	adjusted.maxID = maxID
	if maxID < uint64(len(s.symbols)) {
		adjusted.symbols = s.symbols[:maxID]
		adjusted.index = buildIndex(adjusted.symbols, 1)
	}
	return &adjusted
}

func (s *sst) Find(sym string) *SymbolToken {
	return findToken(s, sym)
}

func (s *sst) FindByName(sym string) (uint64, bool) {
	id, ok := s.index[sym]
	return id, ok
}

func (s *sst) FindByID(id uint64) (string, bool) {
	if id == 0 || id > uint64(len(s.symbols)) || s.symbols[id-1] == nil {
		return "", false
	}
	return *s.symbols[id-1], true
}

func (s *sst) String() string {
	return fmt.Sprintf("$ion_shared_symbol_table::{name:%q,version:%d,symbols:%s}", s.name, s.version, symbolList(s.symbols))
}

// V1SystemSymbolTable is the (implied) system symbol table for Ion v1.0.
var V1SystemSymbolTable = NewSharedSymbolTable("$ion", 1, []string{
	"$ion",
	"$ion_1_0",
	"$ion_symbol_table",
	"name",
	"version",
	"imports",
	"symbols",
	"max_id",
	"$ion_shared_symbol_table",
})

// An lst is a local symbol table: the system table, any imports, then the
// symbols it defines, numbered consecutively from 1.
type lst struct {
	imports []SharedSymbolTable
	// offsets[i] is the ID just before the first ID of imports[i].
	offsets     []uint64
	maxImportID uint64

	// Nil for a symbol with unknown text.
	symbols []*string
	index   map[string]uint64
}

// NewLocalSymbolTable creates a new local symbol table. The system symbol
// table is imported first whether or not imports names it.
func NewLocalSymbolTable(imports []SharedSymbolTable, symbols []string) SymbolTable {
	return newLocalSymbolTable(imports, knownSymbols(symbols))
}

func newLocalSymbolTable(imports []SharedSymbolTable, symbols []*string) *lst {
	t := &lst{symbols: symbols}
	if len(imports) == 0 || imports[0].Name() != V1SystemSymbolTable.Name() {
		t.imports = append(t.imports, V1SystemSymbolTable)
	}
	t.imports = append(t.imports, imports...)

	t.offsets = make([]uint64, len(t.imports))
	for i, imp := range t.imports {
		t.offsets[i] = t.maxImportID
		t.maxImportID += imp.MaxID()
	}

	t.index = buildIndex(symbols, t.maxImportID+1)
	return t
}

func (t *lst) Imports() []SharedSymbolTable {
	return slices.Clone(t.imports)
}

func (t *lst) Symbols() []string {
	syms := make([]string, len(t.symbols))
	for i, sym := range t.symbols {
		if sym != nil {
			syms[i] = *sym
		}
	}
	return syms
}

func (t *lst) MaxID() uint64 {
	return t.maxImportID + uint64(len(t.symbols))
}

func (t *lst) Find(s string) *SymbolToken {
	return findToken(t, s)
}

func (t *lst) FindByName(s string) (uint64, bool) {
	for i, imp := range t.imports {
		if id, ok := imp.FindByName(s); ok {
			return t.offsets[i] + id, true
		}
	}
	id, ok := t.index[s]
	return id, ok
}

func (t *lst) FindByID(id uint64) (string, bool) {
	switch {
	case id == 0 || id > t.MaxID():
		return "", false
	case id > t.maxImportID:
		sym := t.symbols[id-t.maxImportID-1]
		if sym == nil {
			return "", false
		}
		return *sym, true
	}
	i := t.importFor(id)
	return t.imports[i].FindByID(id - t.offsets[i])
}

// ImportFor returns the index of the import assigning id, which must be
// between 1 and maxImportID.
func (t *lst) importFor(id uint64) int {
	return sort.Search(len(t.offsets), func(i int) bool {
		return t.offsets[i] >= id
	}) - 1
}

// Token resolves id to a symbol token, including the shared table location of
// imported symbols. It reports false if id is out of range.
func (t *lst) token(id uint64) (SymbolToken, bool) {
	if id > t.MaxID() {
		return SymbolToken{}, false
	}

	tok := SymbolToken{LocalSID: int64(id)}
	if id == 0 {
		return tok, true
	}

	if text, ok := t.FindByID(id); ok {
		tok.Text = &text
	}
	if id <= t.maxImportID {
		i := t.importFor(id)
		tok.Source = newSource(t.imports[i].Name(), int64(id-t.offsets[i]))
	}
	return tok, true
}

// AppendSymbols adds symbols to the end of the table in place.
func (t *lst) appendSymbols(symbols []*string) {
	for _, sym := range symbols {
		t.symbols = append(t.symbols, sym)
		if sym == nil {
			continue
		}
		if _, ok := t.index[*sym]; !ok {
			t.index[*sym] = t.MaxID()
		}
	}
}

// Snapshot returns a copy of the table that later appends do not affect.
func (t *lst) snapshot() *lst {
	return &lst{
		imports:     slices.Clone(t.imports),
		offsets:     slices.Clone(t.offsets),
		maxImportID: t.maxImportID,
		symbols:     slices.Clone(t.symbols),
		index:       maps.Clone(t.index),
	}
}

// String renders the table as Ion text, or "" for a table holding only the
// system symbols.
func (t *lst) String() string {
	var fields []string
	if len(t.imports) > 1 {
		decls := make([]string, 0, len(t.imports)-1)
		for _, imp := range t.imports[1:] {
			decls = append(decls, fmt.Sprintf("{name:%q,version:%d,max_id:%d}", imp.Name(), imp.Version(), imp.MaxID()))
		}
		fields = append(fields, "imports:["+strings.Join(decls, ",")+"]")
	}
	if len(t.symbols) > 0 {
		fields = append(fields, "symbols:"+symbolList(t.symbols))
	}

	if len(fields) == 0 {
		return ""
	}
	return "$ion_symbol_table::{" + strings.Join(fields, ",") + "}"
}

func findToken(st SymbolTable, s string) *SymbolToken {
	if _, ok := st.FindByName(s); !ok {
		return nil
	}
	return &SymbolToken{Text: &s, LocalSID: SymbolIDUnknown}
}

// KnownSymbols copies symbols into slots that all have text.
func knownSymbols(symbols []string) []*string {
	texts := slices.Clone(symbols)
	slots := make([]*string, len(texts))
	for i := range texts {
		slots[i] = &texts[i]
	}
	return slots
}

// SymbolList renders symbols as an Ion list of strings, with null standing in
// for unknown text.
func symbolList(symbols []*string) string {
	quoted := make([]string, len(symbols))
	for i, sym := range symbols {
		quoted[i] = "null"
		if sym != nil {
			quoted[i] = strconv.Quote(*sym)
		}
	}
	return "[" + strings.Join(quoted, ",") + "]"
}

// BuildIndex maps each symbol to its first ID, numbering from first.
func buildIndex(symbols []*string, first uint64) map[string]uint64 {
	index := make(map[string]uint64, len(symbols))
	for i, sym := range symbols {
		if sym == nil {
			continue
		}
		if _, ok := index[*sym]; !ok {
			index[*sym] = first + uint64(i)
		}
	}
	return index
}
