// Calq is a small interpreted language with integers, closures and a linear
// equation solver, running on a fixed size reference counted memory arena.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"calq.dev/calq/eval"
	"calq.dev/calq/object"
	"calq.dev/calq/repl"
	"fortio.org/cli"
	"fortio.org/duration"
	"fortio.org/log"
	"fortio.org/struct2env"
	"fortio.org/terminal"
	"github.com/BurntSushi/toml"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

func main() {
	os.Exit(Main())
}

// Config is the part of the settings that can come from the CALQ_ environment
// variables or a -config toml file. Flags win over the file, which wins over
// the environment.
type Config struct {
	HistoryFile string `toml:"history_file"`
	MaxHistory  int    `toml:"max_history"`
	Memory      int    `toml:"memory"`
	MaxDepth    int    `toml:"max_depth"`
	MaxDuration string `toml:"max_duration"`
	Compact     bool   `toml:"compact"`
}

var config = Config{
	MaxHistory: terminal.DefaultHistoryCapacity,
	Memory:     object.DefaultArenaSize,
	MaxDepth:   eval.DefaultMaxDepth,
}

func EnvHelp(w io.Writer) {
	res, _ := struct2env.StructToEnvVars(config)
	str := struct2env.ToShellWithPrefix("CALQ_", res, true)
	fmt.Fprintln(w, "# Calq environment variables:")
	fmt.Fprint(w, str)
}

var hookBefore, hookAfter func() int

func Main() int {
	commandFlag := flag.String("c", "", "command/inline script to run instead of interactive mode")
	showParse := flag.Bool("parse", false, "show parse tree")
	format := flag.Bool("format", false, "don't execute, just parse and re format the input")
	showEval := flag.Bool("eval", false, "show the trailing value of each file/script")
	sharedState := flag.Bool("shared-state", false, "All files share same interpreter state (default is new state for each)")
	configFile := flag.String("config", "", "toml config `file` (history_file, max_history, memory, max_depth, max_duration, compact)")
	dumpState := flag.Bool("dump-state", false, "dump globals and memory statistics as yaml on stdout at the end")
	panicOk := flag.Bool("panic", false, "Don't catch panic - only for development/debugging")
	const historyDefault = "~/.calq_history" // virtual/token filename, will be replaced by actual home dir if not changed.
	cli.EnvHelpFuncs = append(cli.EnvHelpFuncs, EnvHelp)
	config.HistoryFile = historyDefault
	errs := struct2env.SetFromEnv("CALQ_", &config)
	if len(errs) > 0 {
		log.Errf("Error setting config from env: %v", errs)
	}
	defaultDuration, err := parseDuration(config.MaxDuration)
	if err != nil {
		log.Errf("Invalid CALQ_MAX_DURATION: %v", err)
	}
	compact := flag.Bool("compact", config.Compact, "When printing code, use no indentation and most compact form")
	historyFile := flag.String("history", config.HistoryFile, "history `file` to use")
	maxHistory := flag.Int("max-history", config.MaxHistory, "max history `size`, use 0 to disable.")
	memory := flag.Int("memory", config.Memory, "memory arena size in `cells`")
	maxDepth := flag.Int("max-depth", config.MaxDepth, "Maximum function call depth")
	maxDuration := duration.Flag("max-duration", defaultDuration, "Maximum `duration` of each script or interactive entry, 0 for unlimited")

	cli.ArgsHelp = "*.calq files to interpret or `-` for stdin without prompt or no arguments for stdin repl..."
	cli.MaxArgs = -1
	cli.Main()
	if *configFile != "" {
		set := map[string]bool{}
		flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
		fc := config
		if err = loadConfigFile(*configFile, &fc); err != nil {
			return log.FErrf("Error loading config: %v", err)
		}
		override(set, "history", historyFile, fc.HistoryFile)
		override(set, "max-history", maxHistory, fc.MaxHistory)
		override(set, "memory", memory, fc.Memory)
		override(set, "max-depth", maxDepth, fc.MaxDepth)
		override(set, "compact", compact, fc.Compact)
		if !set["max-duration"] && fc.MaxDuration != config.MaxDuration {
			if *maxDuration, err = parseDuration(fc.MaxDuration); err != nil {
				return log.FErrf("Invalid max_duration in %s: %v", *configFile, err)
			}
		}
	}
	histFile := *historyFile
	if histFile == historyDefault {
		homeDir, err := os.UserHomeDir()
		histFile = filepath.Join(homeDir, ".calq_history")
		if err != nil {
			log.Warnf("Couldn't get user home dir: %v", err)
			histFile = ""
		}
	}
	log.Infof("calq %s - welcome!", cli.LongVersion)
	options := repl.Options{
		ShowParse:   *showParse,
		ShowEval:    *showEval,
		FormatOnly:  *format,
		Compact:     *compact,
		HistoryFile: histFile,
		MaxHistory:  *maxHistory,
		ArenaSize:   *memory,
		MaxDepth:    *maxDepth,
		MaxDuration: *maxDuration,
		PanicOk:     *panicOk,
	}
	if hookBefore != nil {
		ret := hookBefore()
		if ret != 0 {
			return ret
		}
	}
	if *commandFlag != "" {
		s, err := repl.NewState(options, os.Stdout)
		if err != nil {
			return log.FErrf("Error creating runtime: %v", err)
		}
		errs := repl.EvalOne(context.Background(), s, *commandFlag, os.Stdout, options)
		return finish(s, *dumpState, len(errs))
	}
	files := flag.Args()
	if len(files) == 0 {
		if term.IsTerminal(int(os.Stdin.Fd())) { //nolint:gosec // fd fits in an int.
			return repl.Interactive(options)
		}
		files = []string{"-"}
	}
	s, err := repl.NewState(options, os.Stdout)
	if err != nil {
		return log.FErrf("Error creating runtime: %v", err)
	}
	numErrs := 0
	for i, file := range files {
		if i > 0 && !*sharedState {
			if s, err = repl.NewState(options, os.Stdout); err != nil {
				return log.FErrf("Error creating runtime for %s: %v", file, err)
			}
		}
		numErrs += processOneFile(file, s, options)
	}
	log.Infof("All done")
	return finish(s, *dumpState, numErrs)
}

func finish(s *eval.State, dump bool, numErrs int) int {
	if dump {
		if err := dumpStateTo(os.Stdout, s); err != nil {
			log.Errf("Error dumping state: %v", err)
			numErrs++
		}
	}
	if hookAfter != nil {
		if ret := hookAfter(); ret != 0 {
			return ret
		}
	}
	return numErrs
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return duration.Parse(s)
}

func loadConfigFile(path string, c *Config) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		log.Warnf("Unknown keys in %s: %v", path, undecoded)
	}
	log.LogVf("Loaded config %s: %+v", path, *c)
	return nil
}

func override[T any](set map[string]bool, name string, flagValue *T, fileValue T) {
	if !set[name] {
		*flagValue = fileValue
	}
}

type stateDump struct {
	Globals []eval.Binding `yaml:"globals"`
	Arena   arenaDump      `yaml:"arena"`
}

type arenaDump struct {
	Cells    int   `yaml:"cells"`
	InUse    int   `yaml:"in_use"`
	Peak     int   `yaml:"peak"`
	Allocs   int64 `yaml:"allocs"`
	Interned int64 `yaml:"interned"`
	Frees    int64 `yaml:"frees"`
}

func dumpStateTo(w io.Writer, s *eval.State) error {
	a := s.Arena()
	st := a.Stats()
	data := stateDump{
		Globals: s.Globals(),
		Arena: arenaDump{
			Cells:    a.Cap(),
			InUse:    a.InUse(),
			Peak:     st.Peak,
			Allocs:   st.Allocs,
			Interned: st.Interned,
			Frees:    st.Frees,
		},
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("dump-state: marshal: %w", err)
	}
	return enc.Close()
}

func processOneStream(s *eval.State, in io.Reader, options repl.Options) int {
	errs := repl.EvalAll(context.Background(), s, in, os.Stdout, options)
	if len(errs) > 0 {
		log.Errf("Errors: %v", errs)
	}
	return len(errs)
}

func processOneFile(file string, s *eval.State, options repl.Options) int {
	if file == "-" {
		if options.FormatOnly {
			log.Infof("Formatting stdin")
		} else {
			log.Infof("Running on stdin")
		}
		return processOneStream(s, os.Stdin, options)
	}
	f, err := os.Open(file)
	if err != nil {
		log.Errf("%v", err)
		return 1
	}
	defer f.Close()
	verb := "Running"
	if options.FormatOnly {
		verb = "Formatting"
	}
	log.Infof("%s %s", verb, file)
	return processOneStream(s, f, options)
}
