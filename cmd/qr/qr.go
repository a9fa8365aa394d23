// Copyright 2011 The Go Authors.  All rights reserved.
// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Qr prints a QR code for its arguments or standard input as text.
package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/pborman/getopt/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/qrforge/qr"
	"github.com/qrforge/qr/coding"
)

var g = struct {
	border int            // quiet zone
	rev    bool           // reverse colours
	fn     string         // filename
	format int            // output format
	lev    qr.Level       // QR correction level
	ver    coding.Version // QR version
	mask   int            // mask pattern, -1 for automatic
	latin1 bool           // Latin-1 byte mode
	nokanj bool           // kanji mode disabled
	upper  bool           // uppercase
	verify bool           // decode the result
	debug  bool           // debug logging
}{
	border: qr.QuietZone,
}

var log *zap.SugaredLogger

func printUsage(w io.Writer) {
	cl := getopt.CommandLine
	fmt.Fprint(w, "QR code generator\nUsage: ", cl.Program(), " ",
		cl.UsageLine(), ` [string ...]
If no string is given, data is read from standard input and the final
newline is stripped.

`)
	var b bytes.Buffer
	cl.PrintOptions(&b)
	bb := b.Bytes()
	if n := bytes.Index(bb, []byte(" [-1]")); n > 0 {
		w.Write(bb[:n])
		bb = bb[n+len(" [-1]"):]
	}
	w.Write(bb)
}

type opt func()

func (opt) String() string                    { return "" }
func (o opt) Set(string, getopt.Option) error { o(); return nil }

func usage() {
	printUsage(os.Stderr)
	os.Exit(2)
}

func help() {
	printUsage(os.Stdout)
	os.Exit(0)
}

func version() {
	fmt.Println(`qr version 0.9.0
Copyright (c) 2011 The Go Authors
Copyright (c) 2024 Vadim Vygonets`)
	os.Exit(0)
}

var formats = []string{"utf8", "utf8i", "ascii", "asciii"}

var encoders = [...]func(*qr.Code, io.Writer) error{
	blocks,
	ascii,
}

func parseFlags() {
	getopt.SetUsage(usage)
	getopt.Flag(opt(help), 'h', "show this help").SetFlag()
	getopt.Flag(opt(version), 'V', "print version and copyright").SetFlag()
	getopt.Flag(&g.nokanj, 'K', "disable kanji mode")
	getopt.Flag(&g.latin1, '1', "convert byte mode segments to Latin-1")
	getopt.Flag(&g.upper, 'i', `ignore case, convert input to uppercase`)
	getopt.Flag(&g.border, 'm', `quiet zone modules`, "margin")
	getopt.Flag(&g.fn, 'o', `output file, or "-" for standard output`,
		"file")
	getopt.FlagLong(&g.verify, "verify", 'c',
		"decode the code and compare with the input; with -1, "+
			"Latin-1 text whose encoding is valid UTF-8 fails")
	getopt.Flag(&g.debug, 'd', "log encoding details to standard error")
	ver := getopt.Unsigned('v', 0, &getopt.UnsignedLimit{Base: 0, Bits: 8, Min: 0, Max: 40},
		"QR code version; 0 chooses the smallest", "ver")
	mask := getopt.Signed('M', -1, &getopt.SignedLimit{Base: 0, Bits: 8, Min: -1, Max: 7},
		"mask pattern; -1 chooses the best", "mask")
	lev := getopt.Enum('l',
		[]string{"l", "m", "q", "h", "L", "M", "Q", "H"}, "l",
		"error correction level, lowest to highest", "l|m|q|h")
	ff := getopt.Enum('t', formats, "", `output format, one of: `+
		strings.Join(formats, ", ")+
		`; types with "i" appended have colours inverted; `+
		`if no -o is given and standard output is a TTY, `+
		`default is utf8, otherwise ascii`, "type")

	getopt.Parse()
	if g.border < 0 {
		fmt.Fprintln(os.Stderr, "-m must not be negative")
		usage()
	}
	g.ver = coding.Version(*ver)
	g.mask = int(*mask)
	g.lev = qr.Level(strings.Index("lmqhLMQH", *lev) & 3)
	if *ff == "" {
		if g.fn == "" && isatty.IsTerminal(uintptr(syscall.Stdout)) {
			*ff = "utf8"
		} else {
			*ff = "ascii"
		}
	}
	for i, v := range formats {
		if *ff == v {
			g.format = i >> 1
			g.rev = i&1 != 0
			break
		}
	}
	if g.fn == "-" {
		g.fn = ""
	}
}

// newLogger returns a console logger writing to standard error.
func newLogger(debug bool) *zap.SugaredLogger {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.TimeKey = ""
	encoderCfg.CallerKey = ""
	return zap.Must(zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    encoderCfg,
	}.Build()).Sugar()
}

func main() {
	parseFlags()
	log = newLogger(g.debug)
	defer log.Sync()
	if g.debug {
		qr.SetLogger(slog.New(slog.NewTextHandler(os.Stderr,
			&slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	var s string
	if args := getopt.Args(); len(args) != 0 {
		s = strings.Join(args, " ")
	} else {
		var b strings.Builder
		if _, err := io.Copy(&b, os.Stdin); err != nil {
			log.Fatal(err)
		}
		s, _ = strings.CutSuffix(
			strings.ReplaceAll(b.String(), "\r\n", "\n"), "\n")
	}
	if g.upper {
		s = strings.ToUpper(s)
	}

	o := &qr.Options{
		Level:     g.lev,
		Version:   g.ver,
		Mask:      g.mask,
		ForceMask: g.mask >= 0,
		Latin1:    g.latin1,
		NoKanji:   g.nokanj,
	}
	c, err := qr.EncodeWith(s, o)
	if err != nil {
		log.Fatal(err)
	}
	log.Debugw("encoded", "version", c.Version, "level", c.Level,
		"mask", c.Mask, "size", c.Size)
	if g.debug {
		if segs, err := o.Segments(s, c.Version.SizeClass()); err == nil {
			for _, seg := range segs {
				log.Debugw("segment", "mode", seg.Mode,
					"chars", seg.Count(), "text", seg.Text)
			}
		}
	}
	if g.verify {
		text, err := c.Decode()
		if err != nil {
			log.Fatalf("verify: %v", err)
		}
		if text != s {
			log.Fatalf("verify: decoded %q, want %q", text, s)
		}
		log.Debug("verify: ok")
	}
	if err := write(c); err != nil {
		log.Fatal(err)
	}
}

func write(c *qr.Code) error {
	w := os.Stdout
	if g.fn != "" {
		var err error
		if w, err = os.OpenFile(g.fn, os.O_WRONLY|os.O_CREATE|os.O_TRUNC,
			0666); err != nil {
			return err
		}
	}
	err := encoders[g.format](c, w)
	if g.fn != "" {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// dark reports whether the module at (x, y) is printed dark.
func dark(c *qr.Code, x, y int) bool { return c.Black(x, y) != g.rev }

// ascii prints two characters per module.
func ascii(c *qr.Code, w io.Writer) error {
	siz := c.Size
	bord := g.border
	pix := siz + 2*bord
	b := make([]byte, (pix*2+1)*pix)
	i := 0
	for y := -bord; y < siz+bord; y++ {
		for x := -bord; x < siz+bord; x++ {
			var p byte = ' '
			if dark(c, x, y) {
				p = '#'
			}
			_ = b[i+1]
			b[i], b[i+1] = p, p
			i += 2
		}
		b[i] = '\n'
		i++
	}
	_, err := w.Write(b)
	return err
}

// blocks prints two rows of modules per line using half block
// characters.  Dark modules are printed as foreground.
func blocks(c *qr.Code, w io.Writer) error {
	siz := c.Size
	bord := g.border
	var b strings.Builder
	for y := -bord; y < siz+bord; y += 2 {
		for x := -bord; x < siz+bord; x++ {
			top := dark(c, x, y)
			bot := y+1 < siz+bord && dark(c, x, y+1)
			switch {
			case top && bot:
				b.WriteRune('█')
			case top:
				b.WriteRune('▀')
			case bot:
				b.WriteRune('▄')
			default:
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}
