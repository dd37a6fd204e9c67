package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/ogier/pflag"

	"github.com/dvlachos/rangecoder"
	"github.com/dvlachos/rangecoder/bitio"
)

const (
	alphabetSize = 256
	eofSymbol    = alphabetSize
	usageStr     = `Usage: arcode [OPTION]... [FILE]
Encode or decode FILE with the adaptive range coder (by default, read
standard input and write standard output).

  -m, --mode=encode|decode  operation to perform (default encode)
  -w, --width=16|32         probability/range register width in bits (default 16)
  -o, --out=FILE            write to FILE instead of standard output
  -h, --help                give this help

With no FILE, or when FILE is -, read standard input.
`
)

func usage(w io.Writer) {
	fmt.Fprint(w, usageStr)
}

func main() {
	cmdName := filepath.Base(os.Args[0])
	log.SetPrefix(fmt.Sprintf("%s: ", cmdName))
	log.SetFlags(0)

	pflag.CommandLine = pflag.NewFlagSet(cmdName, pflag.ExitOnError)
	pflag.Usage = func() { usage(os.Stderr); os.Exit(1) }
	var (
		help  = pflag.BoolP("help", "h", false, "")
		mode  = pflag.StringP("mode", "m", "encode", "")
		width = pflag.IntP("width", "w", 16, "")
		out   = pflag.StringP("out", "o", "", "")
	)
	pflag.Parse()

	if *help {
		usage(os.Stdout)
		os.Exit(0)
	}

	in := os.Stdin
	if pflag.NArg() > 0 && pflag.Arg(0) != "-" {
		f, err := os.Open(pflag.Arg(0))
		if err != nil {
			log.Fatalf("open %s: %v", pflag.Arg(0), err)
		}
		defer f.Close()
		in = f
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("create %s: %v", *out, err)
		}
		defer f.Close()
		w = f
	}

	r := bufio.NewReader(in)
	bw := bufio.NewWriter(w)

	var err error
	switch *mode {
	case "encode":
		err = encode(*width, r, bw)
	case "decode":
		err = decode(*width, r, bw)
	default:
		log.Fatalf("unknown mode %q, want encode or decode", *mode)
	}
	if err != nil {
		log.Fatal(err)
	}
	if err := bw.Flush(); err != nil {
		log.Fatal(err)
	}
}

// encode reads r to EOF, coding each byte plus a trailing eofSymbol, the
// framing original_source/example_adaptive.cpp uses: alphabet size 257,
// symbol 256 reserved for end of stream.
func encode(width int, r io.Reader, w io.Writer) error {
	bitWriter := bitio.NewWriter(w)

	encodeAll := func(enc interface {
		EncodeSymbol(int) error
		Flush(bool) error
	}) error {
		buf := make([]byte, 4096)
		for {
			n, readErr := r.Read(buf)
			for i := 0; i < n; i++ {
				if err := enc.EncodeSymbol(int(buf[i])); err != nil {
					return err
				}
			}
			if readErr == io.EOF {
				break
			}
			if readErr != nil {
				return readErr
			}
		}
		if err := enc.EncodeSymbol(eofSymbol); err != nil {
			return err
		}
		return enc.Flush(false)
	}

	switch width {
	case 16:
		var enc rangecoder.Encoder[uint16, uint32]
		if err := enc.Init(alphabetSize+1, bitWriter); err != nil {
			return err
		}
		if err := encodeAll(&enc); err != nil {
			return err
		}
	case 32:
		var enc rangecoder.Encoder[uint32, uint64]
		if err := enc.Init(alphabetSize+1, bitWriter); err != nil {
			return err
		}
		if err := encodeAll(&enc); err != nil {
			return err
		}
	default:
		return fmt.Errorf("width %d bits unsupported, want 16 or 32", width)
	}

	return bitWriter.Close()
}

// decode mirrors encode: it reads symbols until eofSymbol and writes the
// recovered bytes to w.
func decode(width int, r io.Reader, w io.Writer) error {
	bitReader := bitio.NewReader(r)

	decodeAll := func(dec interface{ DecodeSymbol() (int, error) }) error {
		for {
			s, err := dec.DecodeSymbol()
			if err != nil {
				return err
			}
			if s == eofSymbol {
				return nil
			}
			if _, err := w.Write([]byte{byte(s)}); err != nil {
				return err
			}
		}
	}

	switch width {
	case 16:
		var dec rangecoder.Decoder[uint16, uint32]
		if err := dec.Init(alphabetSize+1, bitReader); err != nil {
			return err
		}
		return decodeAll(&dec)
	case 32:
		var dec rangecoder.Decoder[uint32, uint64]
		if err := dec.Init(alphabetSize+1, bitReader); err != nil {
			return err
		}
		return decodeAll(&dec)
	default:
		return fmt.Errorf("width %d bits unsupported, want 16 or 32", width)
	}
}
