package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"

	"github.com/calumari/viewgen/internal/config"
	"github.com/calumari/viewgen/internal/diag"
	"github.com/calumari/viewgen/internal/generator"
	"github.com/calumari/viewgen/internal/logutil"
	"github.com/calumari/viewgen/internal/lsp"
)

// deriveVersion inspects build info for module version or vcs revision.
// preference order: module semantic version -> short commit hash -> "devel".
func deriveVersion() string {
	if bi, ok := debug.ReadBuildInfo(); ok {
		if bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			return bi.Main.Version
		}
		var revision string
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				revision = s.Value
				break
			}
		}
		if len(revision) >= 12 {
			return revision[:12]
		}
		if revision != "" {
			return revision
		}
	}
	return "devel"
}

// flags that change the generated code and therefore appear in its header
var commandFlags = map[string]bool{
	"files": true, "config": true, "output-suffix": true, "debug": true,
	"resolve-types": true, "goimports": true,
}

func main() {
	var (
		dir          string
		filesCSV     string
		configPath   string
		outputSuffix string
		debugFlag    bool
		cachePath    string
		resolveTypes bool
		goimports    bool
		jobs         int
		logPath      string
		color        string
		serveLSP     bool
		showVersion  bool
	)
	flag.StringVar(&dir, "dir", ".", "Directory holding the .view files")
	flag.StringVar(&filesCSV, "files", "", "Comma-separated list of .view files to compile (default: all in -dir)")
	flag.StringVar(&configPath, "config", "", "Configuration file (default: "+config.FileName+" in -dir, if present)")
	flag.StringVar(&outputSuffix, "output-suffix", "", "Suffix replacing .view in generated file names (default \"_view.go\")")
	flag.BoolVar(&debugFlag, "debug", false, "Emit comments linking generated code to view source positions")
	flag.StringVar(&cachePath, "cache", "", "Output cache database, relative to -dir")
	flag.BoolVar(&resolveTypes, "resolve-types", false, "Load imported packages to infer widget types of constructor calls")
	flag.BoolVar(&goimports, "goimports", true, "Fix imports of generated files")
	flag.IntVar(&jobs, "jobs", 0, "Number of view files compiled concurrently (default 4)")
	flag.StringVar(&logPath, "log", "", "Write debug logs to this file")
	flag.StringVar(&color, "color", "auto", "Colour diagnostics: auto, always or never")
	flag.BoolVar(&serveLSP, "lsp", false, "Run the language server on stdin and stdout")
	flag.BoolVar(&showVersion, "version", false, "Print the version and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nViewgen compiles declarative .view widget trees into Go code.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  //go:generate %s -dir=. -cache=.viewgen.cache\n", os.Args[0])
	}
	flag.Parse()

	buildVersion := deriveVersion()
	if showVersion {
		fmt.Println(buildVersion)
		return
	}
	if logPath != "" {
		f, err := logutil.SetOutputFile(logPath)
		if err != nil {
			fail(err)
		}
		defer f.Close()
	}

	settings, err := config.Load(configPath, dir)
	if err != nil {
		fail(err)
	}
	// only flags given on the command line override the configuration file
	cmdParts := []string{"viewgen"}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "output-suffix":
			settings.OutputSuffix = outputSuffix
		case "cache":
			settings.Cache = cachePath
		case "resolve-types":
			settings.ResolveTypes = resolveTypes
		case "goimports":
			settings.Goimports = &goimports
		case "jobs":
			settings.Jobs = jobs
		}
		if commandFlags[f.Name] {
			cmdParts = append(cmdParts, "-"+f.Name+"="+f.Value.String())
		}
	})

	if serveLSP {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		opts := generator.Options{
			Toolkit:      settings.Toolkit,
			Receiver:     settings.Receiver,
			ResolveTypes: settings.ResolveTypes,
			Dir:          dir,
			Version:      buildVersion,
		}
		if err := lsp.Serve(ctx, os.Stdin, os.Stdout, opts); err != nil {
			fail(err)
		}
		return
	}

	var files []string
	for f := range strings.SplitSeq(filesCSV, ",") {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	var useColor bool
	switch color {
	case "always":
		useColor = true
	case "never":
	case "auto":
		useColor = diag.IsTerminal(os.Stderr)
	default:
		fail(fmt.Errorf("invalid -color %q", color))
	}

	cfg := generator.Config{
		Dir:      dir,
		Files:    files,
		Settings: settings,
		Debug:    debugFlag,
		Color:    useColor,
		Stderr:   os.Stderr,
		Command:  strings.Join(cmdParts, " "),
		Version:  buildVersion,
	}
	if err := generator.Run(cfg); err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "viewgen: %v\n", err)
	os.Exit(1)
}
