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
	"math"
)

// A symtabState is where the symbol table reader resumes after NeedsData.
// Each state retries its own lexer instruction.
type symtabState uint8

const (
	symtabInactive symtabState = iota
	// Step into the symbol table struct.
	symtabOnStruct
	// Move to the struct's next field.
	symtabNextField
	// Step into the symbols list.
	symtabOnSymbols
	// Move to the next symbol.
	symtabNextSymbol
	// Fill the current symbol's text.
	symtabFillSymbol
	// Fill a symbol-valued imports field.
	symtabFillImportsSymbol
	// Step into the imports list.
	symtabOnImports
	// Move to the next import.
	symtabNextImport
	// Step into the current import struct.
	symtabOnImport
	// Move to the import's next field.
	symtabNextImportField
	// Fill the import's current field.
	symtabFillImportField
	// Step out of the import struct.
	symtabLeaveImport
	// Step out of the imports list.
	symtabLeaveImports
	// Step out of the symbols list.
	symtabLeaveSymbols
	// Step out of the symbol table struct.
	symtabLeaveStruct
)

var symtabStateNames = [...]string{
	"inactive",
	"on struct",
	"next field",
	"on symbols",
	"next symbol",
	"fill symbol",
	"fill imports symbol",
	"on imports",
	"next import",
	"on import",
	"next import field",
	"fill import field",
	"leave import",
	"leave imports",
	"leave symbols",
	"leave struct",
}

func (s symtabState) String() string {
	if int(s) < len(symtabStateNames) {
		return symtabStateNames[s]
	}
	return fmt.Sprintf("<unknown symtab state %v>", uint8(s))
}

// A symtabReader reads a local symbol table through the same lexer the
// caller uses, one step at a time, so that it can be suspended and resumed at
// any point.
type symtabReader struct {
	state symtabState

	appending  bool
	hasSymbols bool
	hasImports bool
	symbols    []*string
	imports    []SharedSymbolTable

	importField   int64
	importName    string
	importVersion int64
	importMaxID   int64
	hasMaxID      bool
}

// Begin starts reading a symbol table struct the lexer is positioned on.
func (s *symtabReader) begin() {
	*s = symtabReader{
		state:   symtabOnStruct,
		symbols: s.symbols[:0],
	}
}

func (s *symtabReader) active() bool {
	return s.state != symtabInactive
}

// ReadSymbolTable advances the symbol table being read as far as the buffered
// input allows. It reports whether the table is complete and installed.
func (r *IncrementalReader) readSymbolTable() (bool, error) {
	s := &r.st
	lex := r.lex

	for {
		switch s.state {
		case symtabOnStruct, symtabOnSymbols, symtabOnImports, symtabOnImport:
			ev, err := lex.stepIn()
			if err != nil || ev == NeedsData {
				return false, err
			}
			switch s.state {
			case symtabOnStruct:
				s.state = symtabNextField
			case symtabOnSymbols:
				s.state = symtabNextSymbol
			case symtabOnImports:
				s.state = symtabNextImport
			default:
				s.state = symtabNextImportField
			}

		case symtabNextField:
			ev, err := lex.next()
			if err != nil || ev == NeedsData {
				return false, err
			}
			if ev == EndContainer {
				s.state = symtabLeaveStruct
				continue
			}
			if err := r.onSymbolTableField(); err != nil {
				return false, err
			}

		case symtabFillImportsSymbol:
			ev, err := lex.fill()
			if err != nil || ev == NeedsData {
				return false, err
			}
			sid, err := decodeUint(lex.valueBytes())
			if err != nil {
				return false, r.valueError(err)
			}
			s.appending = sid == symbolTableSID
			s.state = symtabNextField

		case symtabNextSymbol:
			ev, err := lex.next()
			if err != nil || ev == NeedsData {
				return false, err
			}
			switch {
			case ev == EndContainer:
				s.state = symtabLeaveSymbols
			case lex.tid.typ == StringType && !lex.tid.isNull:
				s.state = symtabFillSymbol
			default:
				// Anything but a string defines a symbol with unknown text.
				s.symbols = append(s.symbols, nil)
			}

		case symtabFillSymbol:
			ev, err := lex.fill()
			if err != nil || ev == NeedsData {
				return false, err
			}
			text, err := decodeString(lex.valueBytes())
			if err != nil {
				return false, r.valueError(err)
			}
			s.symbols = append(s.symbols, &text)
			s.state = symtabNextSymbol

		case symtabNextImport:
			ev, err := lex.next()
			if err != nil || ev == NeedsData {
				return false, err
			}
			switch {
			case ev == EndContainer:
				s.state = symtabLeaveImports
			case lex.tid.typ == StructType && !lex.tid.isNull:
				s.importName = ""
				s.importVersion = 1
				s.importMaxID = 0
				s.hasMaxID = false
				s.state = symtabOnImport
			}

		case symtabNextImportField:
			ev, err := lex.next()
			if err != nil || ev == NeedsData {
				return false, err
			}
			if ev == EndContainer {
				if err := r.resolveImport(); err != nil {
					return false, err
				}
				s.state = symtabLeaveImport
				continue
			}

			typ := lex.tid.typ
			if lex.tid.isNull {
				continue
			}
			switch lex.fieldSID {
			case nameSID:
				if typ == StringType {
					s.importField = nameSID
					s.state = symtabFillImportField
				}
			case versionSID, maxIDSID:
				if typ == IntType {
					s.importField = lex.fieldSID
					s.state = symtabFillImportField
				}
			}

		case symtabFillImportField:
			ev, err := lex.fill()
			if err != nil || ev == NeedsData {
				return false, err
			}
			if err := r.onImportField(); err != nil {
				return false, err
			}
			s.state = symtabNextImportField

		case symtabLeaveImport, symtabLeaveImports, symtabLeaveSymbols:
			ev, err := lex.stepOut()
			if err != nil || ev == NeedsData {
				return false, err
			}
			if s.state == symtabLeaveImport {
				s.state = symtabNextImport
			} else {
				s.state = symtabNextField
			}

		case symtabLeaveStruct:
			ev, err := lex.stepOut()
			if err != nil || ev == NeedsData {
				return false, err
			}
			r.installSymbolTable()
			s.state = symtabInactive
			return true, nil

		default:
			return true, nil
		}
	}
}

// OnSymbolTableField decides what to do with a field of the symbol table
// struct. Fields it does not recognize are skipped by the next move.
func (r *IncrementalReader) onSymbolTableField() error {
	s := &r.st
	lex := r.lex
	typ := lex.tid.typ

	switch lex.fieldSID {
	case symbolsSID:
		if s.hasSymbols {
			return r.lex.syntaxError("symbol table has more than one symbols field", lex.valueMarker.start)
		}
		s.hasSymbols = true
		if typ == ListType && !lex.tid.isNull {
			s.state = symtabOnSymbols
		}

	case importsSID:
		if s.hasImports {
			return r.lex.syntaxError("symbol table has more than one imports field", lex.valueMarker.start)
		}
		s.hasImports = true
		switch {
		case lex.tid.isNull:
		case typ == ListType:
			s.state = symtabOnImports
		case typ == SymbolType:
			s.state = symtabFillImportsSymbol
		}
	}
	return nil
}

func (r *IncrementalReader) onImportField() error {
	s := &r.st
	bs := r.lex.valueBytes()

	if s.importField == nameSID {
		name, err := decodeString(bs)
		if err != nil {
			return r.valueError(err)
		}
		s.importName = name
		return nil
	}

	v, bi, err := decodeInt(bs, r.lex.tid.isNegativeInt)
	if err != nil {
		return r.valueError(err)
	}
	if bi != nil {
		if bi.Sign() > 0 {
			v = math.MaxInt64
		} else {
			v = -1
		}
	}

	if s.importField == versionSID {
		s.importVersion = v
	} else if v >= 0 {
		s.importMaxID = v
		s.hasMaxID = true
	}
	return nil
}

// ResolveImport looks up the import just read in the catalog and adds it, or
// a stand-in for it, to the table's imports.
func (r *IncrementalReader) resolveImport() error {
	s := &r.st
	name := s.importName
	if name == "" || name == "$ion" {
		return nil
	}

	version := s.importVersion
	if version < 1 || version > math.MaxInt32 {
		version = 1
	}

	var found SharedSymbolTable
	exact := false
	if r.cat != nil {
		found = r.cat.FindExact(name, int(version))
		exact = found != nil
		if !exact {
			found = r.cat.FindLatest(name)
		}
	}

	if !s.hasMaxID {
		if !exact {
			msg := fmt.Sprintf("import of %v version %v has no max_id and no exact match in the catalog", name, version)
			return r.lex.syntaxError(msg, r.lex.peekIndex)
		}
		s.imports = append(s.imports, found)
		return nil
	}

	maxID := uint64(s.importMaxID)
	switch {
	case found == nil:
		s.imports = append(s.imports, unknownImport(name, int(version), maxID))
	case exact:
		s.imports = append(s.imports, found.Adjust(maxID))
	default:
		s.imports = append(s.imports, substituteImport(found, name, int(version), maxID))
	}
	return nil
}

// InstallSymbolTable makes the table just read the one in effect.
func (r *IncrementalReader) installSymbolTable() {
	s := &r.st
	if s.appending {
		r.symtab.appendSymbols(s.symbols)
	} else {
		r.symtab = newLocalSymbolTable(s.imports, append([]*string(nil), s.symbols...))
	}
	r.snapshot = nil
}
