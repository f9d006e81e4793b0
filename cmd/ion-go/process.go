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
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/amazon-ion/ion-incremental-go/ion"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// process reads the specified input file(s) and writes out the events found
// in them. The events command drives the incremental reader, feeding it the
// input a chunk at a time; dump uses the blocking reader.
func process(cmd string, args []string) error {
	p, err := newProcessor(cmd, args)
	if err != nil {
		return err
	}
	return p.run()
}

const defaultChunkSize = 4096

type processor struct {
	cmd  string
	infs []string
	outf string
	errf string

	format string
	chunk  int
	zstd   bool
	cfg    ion.BufferConfiguration

	out    *eventwriter
	err    *ErrorReport
	loc    string
	idx    int
	symtab ion.SymbolTable
}

func newProcessor(cmd string, args []string) (*processor, error) {
	ret := &processor{
		cmd:   cmd,
		chunk: defaultChunkSize,
		cfg:   ion.DefaultBufferConfiguration(),
	}

	i := 0
	for ; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			break
		}
		if arg == "-" || arg == "--" {
			i++
			break
		}

		switch arg {
		case "-o", "--output":
			i++
			if i >= len(args) {
				return nil, errors.New("no output file specified")
			}
			ret.outf = args[i]

		case "-f", "--format":
			i++
			if i >= len(args) {
				return nil, errors.New("no output format specified")
			}
			ret.format = args[i]

		case "-e", "--error-report":
			i++
			if i >= len(args) {
				return nil, errors.New("no error report file specified")
			}
			ret.errf = args[i]

		case "-z", "--zstd":
			ret.zstd = true

		case "-c", "--chunk-size", "-i", "--initial-buffer", "-m", "--max-buffer":
			i++
			if i >= len(args) {
				return nil, errors.Errorf("no value specified for %v", arg)
			}
			n, err := strconv.Atoi(args[i])
			if err != nil || n <= 0 {
				return nil, errors.Errorf("invalid value %q for %v", args[i], arg)
			}

			switch arg {
			case "-c", "--chunk-size":
				ret.chunk = n
			case "-i", "--initial-buffer":
				ret.cfg.InitialBufferSize = n
			default:
				ret.cfg.MaximumBufferSize = n
			}

		default:
			return nil, errors.New("unrecognized option \"" + arg + "\"")
		}
	}

	// Any remaining args are input files.
	for ; i < len(args); i++ {
		ret.infs = append(ret.infs, args[i])
	}

	return ret, nil
}

func (p *processor) run() (deferredErr error) {
	outf, err := OpenOutput(p.outf)
	if err != nil {
		return err
	}
	defer func() {
		closeError := outf.Close()
		if deferredErr == nil {
			deferredErr = closeError
		}
	}()

	p.out, err = newEventWriter(outf, p.format)
	if err != nil {
		return err
	}

	errf, err := OpenError(p.errf)
	if err != nil {
		return err
	}
	defer func() {
		closeError := errf.Close()
		if deferredErr == nil {
			deferredErr = closeError
		}
	}()

	p.err = NewErrorReport(errf, p.format)

	if len(p.infs) == 0 {
		p.loc = "stdin"
		p.processReader(os.Stdin)
		p.loc = ""
	} else if err := p.processFiles(); err != nil {
		return err
	}

	if err := p.out.Finish(); err != nil {
		p.error(write, err)
	}
	if n := p.err.Len(); n > 0 {
		return errors.Errorf("%v error(s) reported", n)
	}
	return nil
}

func (p *processor) processFiles() error {
	for _, inf := range p.infs {
		if err := p.processFile(inf); err != nil {
			return err
		}
	}
	return nil
}

func (p *processor) processFile(in string) (err error) {
	f, err := OpenInput(in)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	p.loc = in
	p.processReader(f)
	p.loc = ""

	return nil
}

func (p *processor) processReader(in io.Reader) {
	// The returned errors have been written to p.err; they only serve to stop
	// processing the current input.
	if p.zstd {
		d, err := zstd.NewReader(in)
		if err != nil {
			p.error(read, errors.Wrap(err, "opening zstd stream"))
			return
		}
		defer d.Close()
		in = d
	}

	depth := p.out.depth
	p.symtab = nil
	if p.cmd == "events" {
		_ = p.processEvents(in)
	} else {
		_ = p.processValues(ion.NewReader(in))
	}

	// Close whatever an error left open so the next input starts at the top.
	for p.out.depth > depth {
		if err := p.out.End(); err != nil {
			p.error(write, err)
			return
		}
	}
}

// processEvents feeds in to an incremental reader chunk by chunk, writing an
// event for every value, container end and symbol table it reports.
func (p *processor) processEvents(in io.Reader) error {
	src := &bytes.Buffer{}
	chunk := make([]byte, p.chunk)
	var fed, consumed int64
	eof := false

	cfg := p.cfg
	cfg.OnData = func(n int64) {
		consumed += n
	}
	cfg.OnOversizedValue = func() error {
		return p.out.Write(event{EventType: oversizedValue})
	}

	r, err := ion.NewIncrementalReader(src, cfg)
	if err != nil {
		return p.error(state, err)
	}

	// Feed moves the next chunk of input into src. It returns false once the
	// input is used up.
	feed := func() (bool, error) {
		if eof {
			return false, nil
		}
		n, err := io.ReadFull(in, chunk)
		src.Write(chunk[:n])
		fed += int64(n)

		switch err {
		case nil:
			return true, nil
		case io.EOF, io.ErrUnexpectedEOF:
			eof = true
			return n > 0, nil
		default:
			return false, errors.Wrapf(err, "reading %v", p.loc)
		}
	}

	ins := ion.NextValue
	for {
		ev, err := r.Next(ins)
		if err != nil {
			return p.error(read, err)
		}
		if err := p.checkSymbolTable(r.SymbolTable()); err != nil {
			return err
		}

		switch ev {
		case ion.NeedsData:
			more, err := feed()
			if err != nil {
				return p.error(read, err)
			}
			if !more {
				if consumed < fed || r.Depth() > 0 || ins != ion.NextValue {
					return p.error(read, &ion.UnexpectedEOFError{Offset: uint64(consumed)})
				}
				return nil
			}

		case ion.NeedsInstruction:
			ins = ion.NextValue

		case ion.StartScalar:
			ins = ion.LoadValue

		case ion.ValueReady:
			p.idx++
			desc, err := describeScalar(r)
			if err != nil {
				return p.error(read, err)
			}
			if err := p.out.Write(desc); err != nil {
				return p.error(write, err)
			}
			ins = ion.NextValue

		case ion.StartContainer:
			p.idx++
			if r.IsNull() {
				desc, err := describeScalar(r)
				if err != nil {
					return p.error(read, err)
				}
				if err := p.out.Write(desc); err != nil {
					return p.error(write, err)
				}
				ins = ion.NextValue
				continue
			}

			desc, err := describe(r, containerStart)
			if err != nil {
				return p.error(read, err)
			}
			if err := p.out.Begin(desc); err != nil {
				return p.error(write, err)
			}
			ins = ion.StepIn

		case ion.EndContainer:
			p.idx++
			if err := p.out.End(); err != nil {
				return p.error(write, err)
			}
			ins = ion.StepOut
		}
	}
}

// processValues walks every value in, writing the same events as
// processEvents.
func (p *processor) processValues(in ion.Reader) error {
	for in.Next() {
		p.idx++
		if err := p.checkSymbolTable(in.SymbolTable()); err != nil {
			return err
		}

		if !ion.IsContainer(in.Type()) || in.IsNull() {
			desc, err := describeScalar(in)
			if err != nil {
				return p.error(read, err)
			}
			if err := p.out.Write(desc); err != nil {
				return p.error(write, err)
			}
			continue
		}

		desc, err := describe(in, containerStart)
		if err != nil {
			return p.error(read, err)
		}
		if err := p.out.Begin(desc); err != nil {
			return p.error(write, err)
		}
		if err := in.StepIn(); err != nil {
			return p.error(read, err)
		}
		if err := p.processValues(in); err != nil {
			return err
		}
		p.idx++
		if err := in.StepOut(); err != nil {
			return p.error(read, err)
		}
		if err := p.out.End(); err != nil {
			return p.error(write, err)
		}
	}

	if err := in.Err(); err != nil {
		return p.error(read, err)
	}
	return nil
}

// checkSymbolTable writes an event when st differs from the last table seen.
func (p *processor) checkSymbolTable(st ion.SymbolTable) error {
	if st == p.symtab {
		return nil
	}
	p.symtab = st
	if desc, ok := describeSymbolTable(st); ok {
		if err := p.out.Write(desc); err != nil {
			return p.error(write, err)
		}
	}
	return nil
}

func (p *processor) error(typ errortype, err error) error {
	p.err.Append(typ, err.Error(), p.loc, p.idx)
	return err
}
