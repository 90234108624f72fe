package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vsariola/wavebank"
	"github.com/vsariola/wavebank/export"
	"github.com/vsariola/wavebank/version"
)

func main() {
	safe := flag.Bool("n", false, "Never overwrite files; if file already exists and would be overwritten, give an error.")
	stdout := flag.Bool("s", false, "Do not write files; write to standard output instead.")
	help := flag.Bool("h", false, "Show help.")
	format := flag.String("f", "c", "Output format. Possible values: "+strings.Join(export.Formats(), ", "))
	float := flag.Bool("float", false, "Write 32-bit float samples instead of 16-bit integers in the wav format.")
	tmplDir := flag.String("t", "", "Use the templates in this directory instead of the standard templates.")
	outDir := flag.String("o", "", "Directory where to write the exported code. The directory and its parents are created if needed. By default, everything is placed in the same directory where the bank file is.")
	pkg := flag.String("pkg", "main", "Package name of exported Go code.")
	raw := flag.Bool("r", false, "Export the raw waves, without the effects.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.String("wavebank-export"))
		os.Exit(0)
	}
	if flag.NArg() == 0 || *help {
		flag.Usage()
		os.Exit(0)
	}
	var exp *export.Exporter
	var err error
	if *tmplDir != "" {
		exp, err = export.NewFromTemplates(*format, *tmplDir)
	} else {
		exp, err = export.New(*format)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not create exporter: %v\n", err)
		os.Exit(1)
	}
	exp.Package = *pkg
	exp.Raw = *raw
	exp.Float = *float
	process := func(filename string) error {
		input, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("could not read file %v: %w", filename, err)
		}
		bank, err := wavebank.ParseBank(input)
		if err != nil {
			return fmt.Errorf("could not parse file %v: %w", filename, err)
		}
		code, extension, err := exp.Bank(bank, filename)
		if err != nil {
			return fmt.Errorf("could not export file %v: %w", filename, err)
		}
		if *stdout {
			fmt.Print(code)
			return nil
		}
		dir, name := filepath.Split(filename)
		if *outDir != "" {
			dir = *outDir
		}
		name = strings.TrimSuffix(name, filepath.Ext(name)) + extension
		if dir != "" {
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				return fmt.Errorf("could not create output directory %v: %w", dir, err)
			}
		}
		f := filepath.Join(dir, name)
		if *safe {
			if _, err := os.Stat(f); err == nil {
				return fmt.Errorf("file %v already exists", f)
			}
		}
		if err := os.WriteFile(f, []byte(code), 0644); err != nil {
			return fmt.Errorf("could not write file %v: %w", f, err)
		}
		return nil
	}
	retval := 0
	for _, param := range flag.Args() {
		if err := process(param); err != nil {
			fmt.Fprintln(os.Stderr, err)
			retval = 1
		}
	}
	os.Exit(retval)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "wavebank command line utility for exporting wavetable banks as code.\nUsage: %s [flags] [path ...]\n", os.Args[0])
	flag.PrintDefaults()
}
