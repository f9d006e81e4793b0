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

// Set at build time with -ldflags "-X main.gitCommit=... -X main.buildTime=...".
var (
	gitCommit = "unknown-commit"
	buildTime = "unknown-buildtime"
)

// main is the main entry point for ion-go.
func main() {
	if len(os.Args) <= 1 {
		printHelp()
		return
	}

	var err error

	switch os.Args[1] {
	case "help", "--help", "-h":
		printHelp()

	case "version", "--version", "-v":
		err = printVersion(os.Stdout)

	case "events", "dump":
		err = process(os.Args[1], os.Args[2:])

	default:
		err = errors.New("unrecognized command \"" + os.Args[1] + "\"")
		printHelp()
	}

	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
}

// printHelp prints the help message for the program.
func printHelp() {
	fmt.Println("Usage:")
	fmt.Println("  ion-go help")
	fmt.Println("  ion-go version")
	fmt.Println("  ion-go events [args] [files]")
	fmt.Println("  ion-go dump [args] [files]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  help       Prints this help message.")
	fmt.Println("  version    Prints version information about this tool.")
	fmt.Println("  events     Feeds binary Ion to the incremental reader a chunk at a time and prints its events.")
	fmt.Println("  dump       Reads binary Ion with the blocking reader and prints the same events.")
	fmt.Println()
	fmt.Println("Arguments:")
	fmt.Println("  -o, --output FILE          Writes events to FILE instead of stdout.")
	fmt.Println("  -f, --format text|yaml     Selects the output format (default text).")
	fmt.Println("  -e, --error-report FILE    Writes the error report to FILE instead of stderr.")
	fmt.Println("  -z, --zstd                 Decompresses zstd-compressed input.")
	fmt.Println("  -c, --chunk-size N         Feeds the events reader N bytes at a time.")
	fmt.Println("  -i, --initial-buffer N     Sets the initial buffer size of the events reader.")
	fmt.Println("  -m, --max-buffer N         Sets the maximum buffer size of the events reader.")
}

type versionInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
}

// printVersion prints (in yaml) the version info for this tool.
func printVersion(w io.Writer) error {
	bs, err := yaml.Marshal(versionInfo{gitCommit, buildTime})
	if err != nil {
		return errors.Wrap(err, "marshaling version info")
	}
	_, err = w.Write(bs)
	return err
}
