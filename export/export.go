// Package export renders wavetable banks as source code tables, so they can
// be linked into synthesizers that have no file loading.
package export

import (
	"bytes"
	"embed"
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"github.com/Masterminds/sprig"
	"github.com/vsariola/wavebank"
	"github.com/vsariola/wavebank/version"
)

type Exporter struct {
	Template *template.Template
	Format   string
	Package  string // package clause of exported Go code
	Raw      bool   // export the raw samples instead of the effected ones
	Float    bool   // write float32 samples in the wav format
}

//go:embed templates/*
var templateFS embed.FS

// formats maps the format names to the templates rendering them.
var formats = map[string]string{
	"c":   "bank.h",
	"go":  "bank.go.tmpl",
	"txt": "bank.txt",
}

// Formats returns the names of the supported formats.
func Formats() []string {
	return []string{"c", "go", "txt", "wav"}
}

// New returns a new exporter using the default templates.
func New(format string) (*Exporter, error) {
	if format == "wav" {
		return &Exporter{Format: format}, nil
	}
	if _, ok := formats[format]; !ok {
		return nil, fmt.Errorf("export.New failed, because only formats %v are supported (requested format was %v)", Formats(), format)
	}
	tmpl, err := template.New("base").Funcs(sprig.TxtFuncMap()).ParseFS(templateFS, "templates/*")
	if err != nil {
		return nil, fmt.Errorf(`could not create templates: %v`, err)
	}
	return &Exporter{Template: tmpl, Format: format, Package: "main"}, nil
}

// NewFromTemplates returns a new exporter using the templates in a directory.
// The directory has to contain the template of the requested format, named
// like the default one.
func NewFromTemplates(format string, templateDirectory string) (*Exporter, error) {
	if format == "wav" {
		return New(format)
	}
	if _, ok := formats[format]; !ok {
		return nil, fmt.Errorf("export.NewFromTemplates failed, because only formats %v are supported (requested format was %v)", Formats(), format)
	}
	globPtrn := filepath.Join(templateDirectory, "*")
	tmpl, err := template.New("base").Funcs(sprig.TxtFuncMap()).ParseGlob(globPtrn)
	if err != nil {
		return nil, fmt.Errorf(`could not create template based on directory "%v": %v`, templateDirectory, err)
	}
	return &Exporter{Template: tmpl, Format: format, Package: "main"}, nil
}

// Bank renders every wave of the bank. It returns the rendered code and the
// file extension the code should be saved with. The "wav" format is not a
// template: the bank is encoded with Bank.Wav and the binary file returned
// as a string.
func (e *Exporter) Bank(bank *wavebank.Bank, name string) (code string, extension string, err error) {
	if e.Format == "wav" {
		b, err := bank.Wav(!e.Float, e.Raw)
		if err != nil {
			return "", "", err
		}
		return string(b), ".wav", nil
	}
	templateName := formats[e.Format]
	waves := make([][]string, bank.Len())
	for i, w := range bank.Waves {
		samples := &w.PostSamples
		if e.Raw {
			samples = &w.Samples
		}
		waves[i] = make([]string, len(samples))
		for j, v := range samples {
			waves[i][j] = strconv.FormatFloat(float64(v), 'g', -1, 32)
		}
	}
	data := struct {
		Name          string
		Package       string
		Version       string
		Width, Height int
		WaveLen       int
		Waves         [][]string
	}{identifier(name), e.Package, version.VersionOrHash, bank.Width, bank.Height, wavebank.WaveLen, waves}
	result := bytes.NewBufferString("")
	if err := e.Template.ExecuteTemplate(result, templateName, &data); err != nil {
		return "", "", fmt.Errorf(`could not execute template "%v": %v`, templateName, err)
	}
	return result.String(), path.Ext(strings.TrimSuffix(templateName, ".tmpl")), nil
}

// identifier turns a file name into a name usable in C and Go source.
func identifier(name string) string {
	name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	var b strings.Builder
	for i, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) && i > 0):
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	s := strings.Trim(b.String(), "_")
	if s == "" {
		return "bank"
	}
	return s
}
