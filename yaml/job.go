// Package yaml decodes job files describing extraction pipelines.
//
// A job file looks like:
//
//	urls:
//	  - https://shop.example/item/1
//	templates:
//	  - xpath: //table[@id="specs"]
//	  - tabl: tr
//	raw: false
//	captchaMarker: g-recaptcha
//
// Each template entry is a mapping of strategy name to pattern. An entry
// with several keys contributes one step per key, in document order.
package yaml

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/fwojciec/harvest"
	yaml "gopkg.in/yaml.v3"
)

// Job is a decoded job file.
type Job struct {
	URLs          []string
	Pipeline      harvest.Pipeline
	Raw           bool
	CaptchaMarker string
}

type jobFile struct {
	URLs          []string  `yaml:"urls"`
	Templates     yaml.Node `yaml:"templates"`
	Raw           bool      `yaml:"raw"`
	CaptchaMarker string    `yaml:"captchaMarker"`
}

// ReadJobFile opens and decodes the job file at path.
func ReadJobFile(path string) (*Job, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, harvest.WrapError(harvest.EINVALID, err, "opening job file %s", path)
	}
	defer f.Close()
	return DecodeJob(f)
}

// DecodeJob decodes a job file. A malformed document, an unknown strategy
// or a non-string pattern returns EINVALID.
func DecodeJob(r io.Reader) (*Job, error) {
	var f jobFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, harvest.Errorf(harvest.EINVALID, "empty job file")
		}
		return nil, harvest.WrapError(harvest.EINVALID, err, "decoding job file")
	}

	p, err := decodeTemplates(&f.Templates)
	if err != nil {
		return nil, err
	}

	return &Job{
		URLs:          f.URLs,
		Pipeline:      p,
		Raw:           f.Raw,
		CaptchaMarker: f.CaptchaMarker,
	}, nil
}

// DecodePipeline decodes a bare template list such as
//
//	- xpath: //li
//	- regex: (\d+)
func DecodePipeline(data []byte) (harvest.Pipeline, error) {
	var n yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&n); err != nil {
		if errors.Is(err, io.EOF) {
			return harvest.Pipeline{}, harvest.Errorf(harvest.EINVALID, "no templates specified")
		}
		return harvest.Pipeline{}, harvest.WrapError(harvest.EINVALID, err, "decoding templates")
	}
	if n.Kind == yaml.DocumentNode && len(n.Content) == 1 {
		return decodeTemplates(n.Content[0])
	}
	return decodeTemplates(&n)
}

func decodeTemplates(n *yaml.Node) (harvest.Pipeline, error) {
	if n.Kind == 0 {
		return harvest.Pipeline{}, harvest.Errorf(harvest.EINVALID, "no templates specified")
	}
	if n.Kind != yaml.SequenceNode {
		return harvest.Pipeline{}, harvest.Errorf(harvest.EINVALID, "line %d: templates must be a list", n.Line)
	}

	var tpls []harvest.Template
	for _, item := range n.Content {
		if item.Kind != yaml.MappingNode {
			return harvest.Pipeline{}, harvest.Errorf(harvest.EINVALID, "line %d: template must be a type: pattern mapping", item.Line)
		}
		for i := 0; i+1 < len(item.Content); i += 2 {
			key, val := item.Content[i], item.Content[i+1]

			kind, err := harvest.ParseKind(key.Value)
			if err != nil {
				return harvest.Pipeline{}, harvest.WrapError(harvest.EINVALID, err, "line %d", key.Line)
			}
			if val.Kind != yaml.ScalarNode || val.ShortTag() != "!!str" {
				return harvest.Pipeline{}, harvest.Errorf(harvest.EINVALID, "line %d: pattern for %s must be a string", val.Line, key.Value)
			}
			tpls = append(tpls, harvest.Template{Kind: kind, Pattern: val.Value})
		}
	}

	return harvest.NewPipeline(tpls...)
}
