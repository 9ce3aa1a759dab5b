// Package config declares the YAML shape a pipeline can be described in
// so a deployment doesn't need to hand-wire Go code per topology — the
// teacher pack has no config layer of its own (its ring sizes and
// worker layout are compile-time constants), so this package follows
// grafana-loki's convention instead: plain structs with `yaml:` tags,
// unmarshaled with gopkg.in/yaml.v3 and validated by hand after decode.
package config

import (
	"fmt"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Overflow mirrors ring.Policy as a YAML-friendly string.
type Overflow string

const (
	OverflowBlock     Overflow = "block"
	OverflowDrop      Overflow = "drop"
	OverflowOverwrite Overflow = "overwrite"
)

// RingSpec declares one ring's capacity and overflow discipline.
type RingSpec struct {
	Name     string   `yaml:"name"`
	Capacity int      `yaml:"capacity"`
	Overflow Overflow `yaml:"overflow"`
}

// Validate checks a RingSpec for a positive capacity and a known overflow
// discipline. Both are stricter than ring.New, which rounds a zero or
// negative capacity up to 1 and accepts any Policy value.
func (r RingSpec) Validate() error {
	if r.Capacity <= 0 {
		return errors.Errorf("ring %q: capacity must be > 0, got %d", r.Name, r.Capacity)
	}
	switch r.Overflow {
	case OverflowBlock, OverflowDrop, OverflowOverwrite:
	default:
		return errors.Errorf("ring %q: unknown overflow policy %q", r.Name, r.Overflow)
	}
	return nil
}

// StageSpec declares one pipeline stage's name and the source/destination
// rings it moves data between, referenced by name so a StageSpec doesn't
// need to embed a full RingSpec inline.
type StageSpec struct {
	Name string `yaml:"name"`
	Src  string `yaml:"src"`
	Dst  string `yaml:"dst"`
}

// PipelineSpec is the top-level declarative pipeline description: the
// rings involved and the ordered chain of stages moving data through
// them. Building the actual pipeline.PipeLine from a PipelineSpec is
// left to the caller, since only the caller knows which concrete
// pipeline.DataAdapter/MetadataAdapter each ring's transport needs.
type PipelineSpec struct {
	Rings  []RingSpec  `yaml:"rings"`
	Stages []StageSpec `yaml:"stages"`
}

// Parse decodes a PipelineSpec from YAML and validates it structurally:
// every ring has a valid capacity/policy, ring names are unique, at least
// one stage is declared, and every stage has a name and src/dst names that
// resolve to a declared ring. The order of stages is not checked against
// the rings they connect.
func Parse(data []byte) (*PipelineSpec, error) {
	var spec PipelineSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, errors.Wrap(err, "config: parse pipeline spec")
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// Validate checks structural consistency across the whole spec.
func (p *PipelineSpec) Validate() error {
	rings := make(map[string]RingSpec, len(p.Rings))
	for _, r := range p.Rings {
		if err := r.Validate(); err != nil {
			return err
		}
		if _, dup := rings[r.Name]; dup {
			return errors.Errorf("config: duplicate ring name %q", r.Name)
		}
		rings[r.Name] = r
	}
	if len(p.Stages) == 0 {
		return errors.New("config: pipeline must declare at least one stage")
	}
	for _, s := range p.Stages {
		if s.Name == "" {
			return errors.New("config: stage missing a name")
		}
		if _, ok := rings[s.Src]; !ok {
			return errors.Errorf("stage %q: unknown src ring %q", s.Name, s.Src)
		}
		if _, ok := rings[s.Dst]; !ok {
			return errors.Errorf("stage %q: unknown dst ring %q", s.Name, s.Dst)
		}
	}
	return nil
}

// Ring looks up a declared ring by name.
func (p *PipelineSpec) Ring(name string) (RingSpec, bool) {
	for _, r := range p.Rings {
		if r.Name == name {
			return r, true
		}
	}
	return RingSpec{}, false
}

func (r RingSpec) String() string {
	return fmt.Sprintf("%s[capacity=%d,overflow=%s]", r.Name, r.Capacity, r.Overflow)
}
