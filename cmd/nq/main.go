// Command nq converts nachricht messages between their binary and
// textual representations. By default it decodes a binary message from
// stdin (or a file) and prints the textual form; with --encode it parses
// the textual form and emits the binary encoding.
package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"

	nachricht "github.com/nachricht/nachricht-go"
	"github.com/nachricht/nachricht-go/textrep"
)

func main() {
	encode := flag.BoolP("encode", "e", false, "parse a textual representation and emit binary nachricht")
	hexOut := flag.Bool("hex", false, "hex-encode binary output")
	out := flag.StringP("out", "o", "-", "output file (- for stdout)")
	flag.Parse()

	if err := run(*encode, *hexOut, *out, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "nq: %v\n", err)
		os.Exit(1)
	}
}

func run(encode, hexOut bool, out string, args []string) error {
	input, err := readInput(args)
	if err != nil {
		return err
	}

	w := io.Writer(os.Stdout)
	if out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return errors.Wrap(err, "create output")
		}
		defer f.Close()
		w = f
	}

	if encode {
		value, err := textrep.Parse(input)
		if err != nil {
			return errors.Wrap(err, "parse textual representation")
		}
		data, err := nachricht.Encode(value)
		if err != nil {
			return errors.Wrap(err, "encode")
		}
		if hexOut {
			if _, err := fmt.Fprintf(w, "%s\n", hex.EncodeToString(data)); err != nil {
				return errors.Wrap(err, "write")
			}
			return nil
		}
		if _, err := w.Write(data); err != nil {
			return errors.Wrap(err, "write")
		}
		return nil
	}

	value, err := nachricht.DecodeAll(input)
	if err != nil {
		return errors.Wrap(err, "decode")
	}
	if _, err := fmt.Fprintln(w, textrep.Print(value)); err != nil {
		return errors.Wrap(err, "write")
	}
	return nil
}

func readInput(args []string) ([]byte, error) {
	switch len(args) {
	case 0:
		data, err := io.ReadAll(os.Stdin)
		return data, errors.Wrap(err, "read stdin")
	case 1:
		data, err := os.ReadFile(args[0])
		return data, errors.Wrap(err, "read input")
	default:
		return nil, errors.New("at most one input file")
	}
}
