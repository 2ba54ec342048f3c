package main

import (
	"flag"
	"io/ioutil"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pterm/pterm"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"

	"github.com/npillmayer/minic/interp"
	"github.com/npillmayer/minic/runtime"
)

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023 Norbert Pillmayer <norbert@pillmayer.com>

*/

func main() {
	// set up logging
	initDisplay()
	gtrace.SyntaxTracer = gologadapter.New()
	tlevel := flag.String("trace", "Error", "Trace level [Debug|Info|Error]")
	initf := flag.String("init", "", "MiniC file to load before the session starts")
	arena := flag.Int("arena", 0, "Arena size in bytes (0 = default)")
	flag.Parse()
	tracer().SetTraceLevel(tracing.TraceLevelFromString(*tlevel))
	//
	cfg := runtime.DefaultConfig()
	if *arena > 0 {
		cfg.ArenaSize = *arena
	}
	ip := interp.New(cfg, os.Stdout)
	//
	// batch mode: run the file arguments and exit
	if flag.NArg() > 0 {
		for _, file := range flag.Args() {
			if err := runFile(ip, file); err != nil {
				pterm.Error.Println(err.Error())
				os.Exit(2)
			}
		}
		return
	}
	//
	// interactive mode
	pterm.Info.Println("Welcome to MiniC") // colored welcome message
	tracer().Infof("Trace level is %s", *tlevel)
	repl, err := readline.New("minic> ")
	if err != nil {
		tracer().Errorf(err.Error())
		os.Exit(3)
	}
	session := &Session{ip: ip, repl: repl}
	tracer().Infof("Quit with <ctrl>D")
	if *initf != "" {
		if err := runFile(ip, *initf); err != nil {
			pterm.Error.Println(err.Error())
		}
	}
	session.REPL()
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.EnableDebugMessages()
	pterm.Info.Prefix = pterm.Prefix{
		Text:  "  >>",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "  Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

func runFile(ip *interp.Interp, file string) error {
	src, err := ioutil.ReadFile(file)
	if err != nil {
		return err
	}
	return ip.Run(file, string(src))
}

// Session is our interactive interpreter session
type Session struct {
	ip   *interp.Interp
	repl *readline.Instance
}

// REPL starts interactive mode.
func (s *Session) REPL() {
	for {
		line, err := s.repl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		if quit := s.Eval(line); quit {
			break
		}
	}
	println("Good bye!")
}

// Eval executes one line of input. Lines starting with a colon are
// session commands, everything else is handed to the interpreter.
func (s *Session) Eval(line string) bool {
	if strings.HasPrefix(line, ":") {
		return s.command(line[1:])
	}
	result, err := s.ip.EvalLine(line)
	if err != nil {
		pterm.Error.Println(err.Error())
		return false
	}
	if result != "" {
		pterm.Info.Println(result)
	}
	return false
}

func (s *Session) command(cmd string) bool {
	switch cmd {
	case "quit", "q":
		return true
	case "funcs":
		for _, name := range s.ip.FunctionNames() {
			pterm.Println(name)
		}
	default:
		pterm.Error.Println("unknown command :" + cmd)
	}
	return false
}
