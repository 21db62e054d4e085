package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"runtime"

	"github.com/goccy/go-json"
	"github.com/jessevdk/go-flags"
	"github.com/karupanerura/while-tools/internal/interpreter"
	"github.com/karupanerura/while-tools/internal/program"
	"github.com/karupanerura/while-tools/internal/server"
	"github.com/karupanerura/while-tools/internal/types"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"
)

type Option struct {
	File   string   `short:"f" long:"file" description:"[OPTIONAL] Program file (.while) or manifest (.json, .yaml)"`
	Eval   string   `short:"e" long:"eval" description:"[OPTIONAL] Program source to run"`
	Check  []string `long:"check" description:"[OPTIONAL] Manifest to run and verify against its expected state (repeatable)"`
	Listen string   `short:"l" long:"listen" description:"[OPTIONAL] Listen host and port to serve executions over HTTP"`
	Format string   `long:"format" description:"[OPTIONAL] Output format" choice:"text" choice:"json" default:"text"`
}

func (o *Option) modes() int {
	n := len(o.Check)
	if n > 1 {
		n = 1
	}
	for _, s := range []string{o.File, o.Eval, o.Listen} {
		if s != "" {
			n++
		}
	}
	return n
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var opt Option
	parser := flags.NewParser(&opt, flags.Default)
	_, err := parser.ParseArgs(args)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return 0
		}
		parser.WriteHelp(stdout)
		return 1
	}
	if opt.modes() != 1 {
		parser.WriteHelp(stdout)
		return 1
	}

	switch {
	case opt.Listen != "":
		if err := serve(opt.Listen); err != nil {
			log.Printf("failed to serve executions: %v", err)
			return 1
		}
		return 0

	case len(opt.Check) != 0:
		return checkManifests(opt.Check, stdout, stderr)
	}

	var m *program.Manifest
	if opt.Eval != "" {
		p, err := program.Compile("<eval>", opt.Eval)
		if err != nil {
			return reportError(stderr, opt.Format, err)
		}
		m = &program.Manifest{Program: p}
	} else {
		m, err = program.Load(opt.File)
		if err != nil {
			return reportError(stderr, opt.Format, err)
		}
	}

	state, err := m.Check()
	if err != nil {
		return reportError(stderr, opt.Format, err)
	}

	if err := writeState(stdout, opt.Format, state); err != nil {
		log.Printf("failed to dump final state: %v", err)
		return 1
	}
	return 0
}

func checkManifests(paths []string, stdout, stderr io.Writer) int {
	results := make([]error, len(paths))

	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		i, path := i, path
		eg.Go(func() error {
			m, err := program.Load(path)
			if err != nil {
				results[i] = err
				return nil
			}
			_, results[i] = m.Check()
			return nil
		})
	}
	_ = eg.Wait()

	status := 0
	for i, err := range results {
		if err != nil {
			fmt.Fprintf(stderr, "FAIL\t%s\n%s\n", paths[i], describe(err))
			status = 1
			continue
		}
		fmt.Fprintf(stdout, "ok\t%s\n", paths[i])
	}
	return status
}

func serve(listen string) error {
	srv := http.Server{
		Handler: server.NewHTTPHandler(),
		Addr:    listen,
	}

	log.Printf("Listen HTTP on %s", listen)
	if err := srv.ListenAndServe(); errors.Is(err, http.ErrServerClosed) {
		return nil
	} else if err != nil {
		return err
	}
	return nil
}

func describe(err error) string {
	var compileErr *program.CompileError
	if errors.As(err, &compileErr) {
		return compileErr.Describe()
	}
	return err.Error()
}

func reportError(w io.Writer, format string, err error) int {
	if _, dumpErr := fmt.Fprintln(w, describe(err)); dumpErr != nil {
		log.Printf("failed to dump error: %v", dumpErr)
	}
	if format == "json" {
		if dumpErr := dumpJSON(w, types.AsException(err).Exception()); dumpErr != nil {
			log.Printf("failed to dump error as JSON: %v", dumpErr)
		}
	}
	return 1
}

func writeState(w io.Writer, format string, state *interpreter.State) error {
	if format == "json" {
		return dumpJSON(w, state)
	}
	_, err := fmt.Fprintln(w, state.String())
	return err
}

func dumpJSON(w io.Writer, v any) error {
	opts := []json.EncodeOptionFunc{json.DisableHTMLEscape()}
	if f, ok := w.(interface{ Fd() uintptr }); ok {
		if isatty.IsTerminal(f.Fd()) {
			opts = append(opts, json.Colorize(json.DefaultColorScheme))
		}
	}

	b, err := json.MarshalIndentWithOption(v, "", "\t", opts...)
	if err != nil {
		return fmt.Errorf("json.MarshalIndentWithOption: %w", err)
	}

	if _, err = w.Write(b); err != nil {
		return fmt.Errorf("w.Write: %w", err)
	}
	if _, err = io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("io.WriteString: %w", err)
	}
	return nil
}
