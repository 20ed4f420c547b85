package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"

	"pngme.adpollak.net/internal/chunk"
	"pngme.adpollak.net/internal/cidutil"
	"pngme.adpollak.net/internal/png"
)

// defaultChunkType is ancillary, private and safe to copy, so other tools
// carry it along or drop it without complaint.
const defaultChunkType = "ruSt"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "encode":
		return cmdEncode(args[1:], out, errOut)
	case "decode":
		return cmdDecode(args[1:], out, errOut)
	case "remove":
		return cmdRemove(args[1:], out, errOut)
	case "print":
		return cmdPrint(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "pngme: hide messages in PNG chunks")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  pngme encode --path <file> [--chunk-type <type>] --message <text> [--output <file>]")
	fmt.Fprintln(w, "  pngme decode --path <file> [--chunk-type <type>]")
	fmt.Fprintln(w, "  pngme remove --path <file> [--chunk-type <type>]")
	fmt.Fprintln(w, "  pngme print --path <file>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintf(w, "  - --chunk-type defaults to %s\n", defaultChunkType)
	fmt.Fprintln(w, "  - every flag has a one-letter form (-p, -c, -m, -o, -v)")
	fmt.Fprintln(w, "  - -v logs progress to stderr")
}

// common holds the flags shared by every command.
type common struct {
	path      string
	chunkType string
	verbose   bool
}

func newFlagSet(name string, errOut io.Writer, c *common, withType bool) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&c.path, "path", "", "path to the png file")
	fs.StringVar(&c.path, "p", "", "shorthand for --path")
	if withType {
		fs.StringVar(&c.chunkType, "chunk-type", defaultChunkType, "chunk type")
		fs.StringVar(&c.chunkType, "c", defaultChunkType, "shorthand for --chunk-type")
	}
	fs.BoolVar(&c.verbose, "verbose", false, "log progress to stderr")
	fs.BoolVar(&c.verbose, "v", false, "shorthand for --verbose")
	return fs
}

// parseFlags parses args and checks that --path was given. It returns a
// non-zero exit code when the command should stop.
func parseFlags(fs *flag.FlagSet, c *common, args []string, errOut io.Writer) int {
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(errOut, "%s: unexpected arguments: %s\n", fs.Name(), strings.Join(fs.Args(), " "))
		return 2
	}
	if c.path == "" {
		fmt.Fprintf(errOut, "%s: --path is required\n", fs.Name())
		return 2
	}
	return 0
}

func newLogger(c *common, errOut io.Writer) *log.Logger {
	if !c.verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(errOut, "pngme: ", 0)
}

func fail(errOut io.Writer, err error) int {
	fmt.Fprintf(errOut, "error: %v\n", err)
	return 1
}

func cmdEncode(args []string, out io.Writer, errOut io.Writer) int {
	var c common
	var message, output string
	fs := newFlagSet("encode", errOut, &c, true)
	fs.StringVar(&message, "message", "", "message to hide")
	fs.StringVar(&message, "m", "", "shorthand for --message")
	fs.StringVar(&output, "output", "", "write the result here instead of --path")
	fs.StringVar(&output, "o", "", "shorthand for --output")
	if code := parseFlags(fs, &c, args, errOut); code != 0 {
		return code
	}
	logger := newLogger(&c, errOut)

	ct, err := validChunkType(c.chunkType)
	if err != nil {
		return fail(errOut, err)
	}
	p, err := readPng(c.path, logger)
	if err != nil {
		return fail(errOut, err)
	}

	p.AppendChunk(chunk.New(ct, []byte(message)))
	logger.Printf("appended %s chunk with %d bytes", ct, len(message))

	if output == "" {
		output = c.path
	}
	if err := writePng(output, p, logger); err != nil {
		return fail(errOut, err)
	}
	return 0
}

func cmdDecode(args []string, out io.Writer, errOut io.Writer) int {
	var c common
	fs := newFlagSet("decode", errOut, &c, true)
	if code := parseFlags(fs, &c, args, errOut); code != 0 {
		return code
	}
	logger := newLogger(&c, errOut)

	p, err := readPng(c.path, logger)
	if err != nil {
		return fail(errOut, err)
	}
	found, ok := p.ChunkByType(c.chunkType)
	if !ok {
		return fail(errOut, errors.Wrapf(png.ErrNotFound, "no %q chunk in %s", c.chunkType, c.path))
	}
	msg, err := found.DataString()
	if err != nil {
		return fail(errOut, err)
	}
	logger.Printf("decoded %s", found)
	fmt.Fprintln(out, msg)
	return 0
}

func cmdRemove(args []string, out io.Writer, errOut io.Writer) int {
	var c common
	fs := newFlagSet("remove", errOut, &c, true)
	if code := parseFlags(fs, &c, args, errOut); code != 0 {
		return code
	}
	logger := newLogger(&c, errOut)

	p, err := readPng(c.path, logger)
	if err != nil {
		return fail(errOut, err)
	}
	removed, err := p.RemoveChunk(c.chunkType)
	if err != nil {
		return fail(errOut, errors.Wrap(err, c.path))
	}
	logger.Printf("removed %s", removed)
	if err := writePng(c.path, p, logger); err != nil {
		return fail(errOut, err)
	}
	return 0
}

func cmdPrint(args []string, out io.Writer, errOut io.Writer) int {
	var c common
	fs := newFlagSet("print", errOut, &c, false)
	if code := parseFlags(fs, &c, args, errOut); code != 0 {
		return code
	}
	logger := newLogger(&c, errOut)

	p, err := readPng(c.path, logger)
	if err != nil {
		return fail(errOut, err)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTYPE\tLENGTH\tCRC\tPROPERTIES\tKIND\tCID")
	for i, ch := range p.Chunks() {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%08x\t%s\t%s\t%s\n",
			i, ch.Type(), ch.Length(), ch.CRC(), properties(ch.Type()), kind(ch.Type()), cidutil.String(ch.Data()))
	}
	if err := tw.Flush(); err != nil {
		return fail(errOut, err)
	}
	return 0
}

// validChunkType rejects types that would make the file invalid, not only
// the ones FromString refuses.
func validChunkType(s string) (chunk.ChunkType, error) {
	ct, err := chunk.FromString(s)
	if err != nil {
		return chunk.ChunkType{}, err
	}
	if !ct.IsValid() {
		return chunk.ChunkType{}, errors.Wrapf(chunk.ErrInvalidChunkType, "%q: letters only, third letter uppercase", s)
	}
	return ct, nil
}

func properties(t chunk.ChunkType) string {
	props := make([]string, 0, 3)
	if t.IsCritical() {
		props = append(props, "critical")
	} else {
		props = append(props, "ancillary")
	}
	if t.IsPublic() {
		props = append(props, "public")
	} else {
		props = append(props, "private")
	}
	if t.IsSafeToCopy() {
		props = append(props, "safe-to-copy")
	} else {
		props = append(props, "unsafe-to-copy")
	}
	return strings.Join(props, ",")
}

func kind(t chunk.ChunkType) string {
	if t.IsStandard() {
		return "standard"
	}
	return "custom"
}

func readPng(path string, logger *log.Logger) (*png.Png, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := png.Read(f)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid png file %s", path)
	}
	logger.Printf("read %s: %d chunks", path, len(p.Chunks()))
	return p, nil
}

// writePng replaces path through a temporary file in the same directory,
// so a failed write leaves the original untouched. An existing file keeps
// its mode.
func writePng(path string, p *png.Png, logger *log.Logger) error {
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	n, err := p.WriteTo(tmp)
	if err != nil {
		tmp.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}
	logger.Printf("wrote %s: %d bytes", path, n)
	return nil
}
