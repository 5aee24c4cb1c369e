package requests

import "github.com/brettbedarf/stagefs"

// StepRequestDTO is the yaml/json representation of [stagefs.StepRequest]
type StepRequestDTO struct {
	ID        *string          `yaml:"id,omitempty" json:"id,omitempty"` // Default random UUID
	Kind      stagefs.StepKind `yaml:"kind" json:"kind"`
	Path      string           `yaml:"path" json:"path"`
	Dest      *string          `yaml:"dest,omitempty" json:"dest,omitempty"`
	Text      *string          `yaml:"text,omitempty" json:"text,omitempty"`
	Immediate *bool            `yaml:"immediate,omitempty" json:"immediate,omitempty"`
}

// PlanDTO is a plan file: an ordered list of steps, optionally wrapped in a
// "steps" key
//
// Ex.
//
//	steps:
//	  - kind: mkdir
//	    path: /src
//	  - kind: writeFile
//	    path: /src/index.ts
//	    text: export {}
//	  - kind: save
//	    path: /src
type PlanDTO struct {
	Steps []StepRequestDTO `yaml:"steps" json:"steps"`
}
