package requests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/brettbedarf/stagefs"
	"github.com/brettbedarf/stagefs/internal/util"
)

// Plan formats accepted by [UnmarshalPlan]
const (
	YAMLFormat = "yaml"
	JSONFormat = "json"
)

// LoadPlanFile reads a plan from disk, picking the format from the extension
// (.yaml, .yml or .json)
func LoadPlanFile(path string) ([]*stagefs.StepRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var format string
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		format = YAMLFormat
	case ".json":
		format = JSONFormat
	default:
		return nil, fmt.Errorf("unknown plan file extension: %s", path)
	}
	steps, err := UnmarshalPlan(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return steps, nil
}

// UnmarshalPlan decodes a plan written either as a bare list of steps or as
// an object with a "steps" list, then validates each step
func UnmarshalPlan(data []byte, format string) ([]*stagefs.StepRequest, error) {
	var dtos []StepRequestDTO
	switch format {
	case YAMLFormat:
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
		}
		if len(node.Content) == 0 {
			return nil, nil
		}
		if node.Content[0].Kind == yaml.SequenceNode {
			if err := node.Decode(&dtos); err != nil {
				return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
			}
			break
		}
		var plan PlanDTO
		if err := node.Decode(&plan); err != nil {
			return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
		}
		dtos = plan.Steps
	case JSONFormat:
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			if err := json.Unmarshal(trimmed, &dtos); err != nil {
				return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
			}
			break
		}
		var plan PlanDTO
		if err := json.Unmarshal(trimmed, &plan); err != nil {
			return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
		}
		dtos = plan.Steps
	default:
		return nil, fmt.Errorf("unknown plan format %q", format)
	}

	steps := make([]*stagefs.StepRequest, 0, len(dtos))
	for i, dto := range dtos {
		step, err := convertStepDTO(dto)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// UnmarshalStepRequest decodes and validates a single json step
func UnmarshalStepRequest(data []byte) (*stagefs.StepRequest, error) {
	var dto StepRequestDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, err
	}
	return convertStepDTO(dto)
}

// Conversion logic with defaults in the unmarshaling layer
func convertStepDTO(dto StepRequestDTO) (*stagefs.StepRequest, error) {
	step := &stagefs.StepRequest{
		ID:        util.ValueOrDefault(dto.ID, uuid.New().String()),
		Kind:      dto.Kind,
		Path:      dto.Path,
		Dest:      util.ValueOrDefault(dto.Dest, ""),
		Text:      util.ValueOrDefault(dto.Text, ""),
		Immediate: util.ValueOrDefault(dto.Immediate, false),
	}
	if step.Kind == stagefs.SaveStep && step.Path == "" {
		step.Path = "/"
	}
	if err := Validate(step); err != nil {
		return nil, err
	}
	return step, nil
}

// Validate checks that step carries the fields its kind needs
func Validate(step *stagefs.StepRequest) error {
	switch step.Kind {
	case stagefs.MkdirStep, stagefs.DeleteFileStep, stagefs.DeleteDirStep,
		stagefs.CopyDirStep, stagefs.MoveDirStep, stagefs.WriteFileStep,
		stagefs.MoveFileStep, stagefs.SaveStep:
	case "":
		return fmt.Errorf("step %s is missing a kind", step.ID)
	default:
		return fmt.Errorf("step %s has unknown kind %q", step.ID, step.Kind)
	}
	if step.Path == "" {
		return fmt.Errorf("%s step %s is missing a path", step.Kind, step.ID)
	}

	switch step.Kind {
	case stagefs.CopyDirStep, stagefs.MoveDirStep, stagefs.MoveFileStep:
		if step.Dest == "" {
			return fmt.Errorf("%s step %s is missing a dest", step.Kind, step.ID)
		}
	}
	if step.Immediate {
		switch step.Kind {
		case stagefs.DeleteFileStep, stagefs.DeleteDirStep, stagefs.CopyDirStep, stagefs.MoveDirStep:
		default:
			return fmt.Errorf("%s step %s cannot be immediate", step.Kind, step.ID)
		}
	}
	return nil
}
