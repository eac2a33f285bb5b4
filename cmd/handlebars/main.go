package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/benjaminschreck/go-handlebars/pkg/handlebars"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, surveyPrompter{}))
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "go-handlebars - Handlebars templates for Go")
	fmt.Fprintln(w, "\nUsage: handlebars <command> [arguments]")
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "  render -template FILE [-data FILE] [-partials DIR] [-config FILE] [-o FILE]")
	fmt.Fprintln(w, "                              Render a template with a YAML or JSON model")
	fmt.Fprintln(w, "  refs -template FILE         List the paths and partials a template uses")
	fmt.Fprintln(w, "  prompt -template FILE [-partials DIR]")
	fmt.Fprintln(w, "                              Ask for each top-level text value, then render;")
	fmt.Fprintln(w, "                              block and nested paths are left empty")
	fmt.Fprintln(w, "  version                     Show version information")
}

func run(args []string, stdout, stderr io.Writer, prompter prompter) int {
	if len(args) < 1 {
		usage(stderr)
		return 1
	}

	var err error
	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "go-handlebars version %s\n", version)
	case "render":
		err = renderCommand(args[1:], stdout, stderr)
	case "refs":
		err = refsCommand(args[1:], stdout, stderr)
	case "prompt":
		err = promptCommand(args[1:], stdout, stderr, prompter)
	case "help", "-h", "--help":
		usage(stdout)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		usage(stderr)
		return 1
	}

	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func renderCommand(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(stderr)
	templatePath := fs.String("template", "", "template file")
	dataPath := fs.String("data", "", "YAML or JSON model file")
	partialsDir := fs.String("partials", "", "directory of .hbs partials")
	configPath := fs.String("config", "", "YAML configuration file")
	outPath := fs.String("o", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *templatePath == "" {
		return fmt.Errorf("-template is required")
	}

	engine, err := newEngine(*configPath, *partialsDir)
	if err != nil {
		return err
	}
	tmpl, err := engine.CompileFile(*templatePath, *templatePath)
	if err != nil {
		return err
	}

	var model any
	if *dataPath != "" {
		if model, err = handlebars.LoadModelFile(*dataPath); err != nil {
			return err
		}
	}

	output, err := engine.Render(tmpl, model)
	if err != nil {
		return err
	}
	return writeOutput(*outPath, output, stdout)
}

func refsCommand(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("refs", flag.ContinueOnError)
	fs.SetOutput(stderr)
	templatePath := fs.String("template", "", "template file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *templatePath == "" {
		return fmt.Errorf("-template is required")
	}

	content, err := os.ReadFile(*templatePath)
	if err != nil {
		return fmt.Errorf("failed to read template file: %w", err)
	}
	tmpl, err := handlebars.Compile(*templatePath, string(content))
	if err != nil {
		return err
	}

	for _, ref := range handlebars.ExtractReferences(tmpl) {
		target := ref.Path.String()
		if ref.Kind == handlebars.ReferencePartial {
			target = ref.Partial
			if len(ref.Path.Segments) > 0 || ref.Path.Scope != handlebars.ScopeRelative {
				target += " " + ref.Path.String()
			}
		}
		fmt.Fprintf(stdout, "%d:%d %s %s\n", ref.Line, ref.Column, ref.Kind, target)
	}
	return nil
}

func promptCommand(args []string, stdout, stderr io.Writer, prompter prompter) error {
	fs := flag.NewFlagSet("prompt", flag.ContinueOnError)
	fs.SetOutput(stderr)
	templatePath := fs.String("template", "", "template file")
	partialsDir := fs.String("partials", "", "directory of .hbs partials")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *templatePath == "" {
		return fmt.Errorf("-template is required")
	}

	engine, err := newEngine("", *partialsDir)
	if err != nil {
		return err
	}
	tmpl, err := engine.CompileFile(*templatePath, *templatePath)
	if err != nil {
		return err
	}

	model := handlebars.TemplateData{}
	for _, name := range handlebars.ScalarVariables(tmpl) {
		answer, err := prompter.Input(name)
		if err != nil {
			return err
		}
		model[name] = answer
	}

	output, err := engine.Render(tmpl, model)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(stdout, output)
	return err
}

func newEngine(configPath, partialsDir string) (*handlebars.Engine, error) {
	config := handlebars.GetGlobalConfig()
	if configPath != "" {
		loaded, err := handlebars.LoadConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		config = loaded
		handlebars.SetGlobalConfig(config)
	}

	engine := handlebars.NewWithConfig(config)
	if partialsDir != "" {
		if err := engine.Partials().LoadDir(partialsDir); err != nil {
			return nil, fmt.Errorf("failed to load partials: %w", err)
		}
	}
	return engine, nil
}

func writeOutput(path, output string, stdout io.Writer) error {
	if path == "" {
		_, err := fmt.Fprint(stdout, output)
		return err
	}
	if err := os.WriteFile(path, []byte(output), 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
