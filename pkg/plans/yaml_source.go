package plans

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlFile is the on-disk layout:
//
//	plans:
//	  - id: free
//	    name: Free
//	    limits:
//	      resume_generation: 1
//	      job_analysis: unlimited
type yamlFile struct {
	Plans []Plan `yaml:"plans"`
}

type yamlSource struct {
	path string
	data []byte
}

// NewYAMLSource reads plans from a YAML file at Load time.
func NewYAMLSource(path string) Source {
	return &yamlSource{path: path}
}

// NewYAMLSourceFromBytes parses plans from an in-memory YAML document.
func NewYAMLSourceFromBytes(data []byte) Source {
	return &yamlSource{data: bytes.Clone(data)}
}

func (s *yamlSource) Load(ctx context.Context) (map[ID]Plan, error) {
	data := s.data
	if s.path != "" {
		raw, err := os.ReadFile(s.path)
		if err != nil {
			return nil, fmt.Errorf("read plans file %s: %w", s.path, err)
		}
		data = raw
	}

	var file yamlFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode plans: %w", err)
	}
	if len(file.Plans) == 0 {
		return nil, errors.New("plans file defines no plans")
	}

	plans := make(map[ID]Plan, len(file.Plans))
	for _, p := range file.Plans {
		if _, dup := plans[p.ID]; dup {
			return nil, fmt.Errorf("duplicate plan %q", p.ID)
		}
		plans[p.ID] = p
	}
	return plans, nil
}
