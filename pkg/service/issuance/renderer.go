package issuance

import (
	"bytes"
	"io/fs"
	"sync"
	"text/template"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

const TemplateExtension = ".json"

// ErrTemplateNotFound is the cause returned when no template file exists for a credential type.
var ErrTemplateNotFound = errors.New("credential template not found")

// Renderer renders credential templates stored as <name>.json files in a file system. Placeholders
// are text/template actions; the json function writes a value as a JSON literal. Parsed templates are
// cached for the life of the Renderer.
type Renderer struct {
	fsys  fs.FS
	cache sync.Map
}

func NewRenderer(fsys fs.FS) *Renderer {
	return &Renderer{fsys: fsys}
}

var templateFuncs = template.FuncMap{
	"json": func(v any) (string, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	},
}

// Exists reports whether a template named name can be read.
func (r *Renderer) Exists(name string) bool {
	_, err := fs.Stat(r.fsys, name+TemplateExtension)
	return err == nil
}

// Render substitutes values into the template named name and returns the resulting text. The output
// is not checked for well-formedness.
func (r *Renderer) Render(name string, values map[string]string) (string, error) {
	tpl, err := r.load(name)
	if err != nil {
		return "", err
	}
	var b bytes.Buffer
	if err = tpl.Execute(&b, values); err != nil {
		return "", errors.Wrapf(err, "executing template<%s>", name)
	}
	return b.String(), nil
}

func (r *Renderer) load(name string) (*template.Template, error) {
	if cached, ok := r.cache.Load(name); ok {
		return cached.(*template.Template), nil
	}
	source, err := fs.ReadFile(r.fsys, name+TemplateExtension)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(ErrTemplateNotFound, "template<%s>", name)
		}
		return nil, errors.Wrapf(err, "reading template<%s>", name)
	}
	tpl, err := template.New(name).Funcs(templateFuncs).Option("missingkey=error").Parse(string(source))
	if err != nil {
		return nil, errors.Wrapf(err, "parsing template<%s>", name)
	}
	r.cache.Store(name, tpl)
	return tpl, nil
}
