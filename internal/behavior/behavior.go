package behavior

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// Device defines the capabilities actions need from the automated
// device. Keeping this an interface lets behaviors execute against the
// real adb controller in production and against fakes in tests.
type Device interface {
	Tap(x, y int) error
	Swipe(x1, y1, x2, y2 int, durationMs int) error
	SendKey(key string) error
	InputText(text string) error
}

// Action is one discrete unit of a behavior. Execute performs the
// action against the device and returns the value carried into the step
// result (most actions return nil; wait-type actions return the wait
// sentinel).
type Action interface {
	Name() string
	Validate() error
	Execute(ctx context.Context, dev Device) (any, error)
}

// Behavior holds an entire behavior definition from a YAML file.
type Behavior struct {
	BehaviorName string   `yaml:"behavior_name"`
	Description  string   `yaml:"description,omitempty"` // Optional description of the behavior's purpose
	Tags         []string `yaml:"tags,omitempty"`        // Optional tags for organization
	Steps        []Action `yaml:"steps"`
}

// Custom unmarshaler for the polymorphic steps list. YAML cannot pick a
// concrete struct for an interface slice without help, so each raw step
// is re-marshaled into the type the action registry maps its 'action'
// field to.
func (b *Behavior) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw map[string]interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}

	if name, ok := raw["behavior_name"].(string); ok {
		b.BehaviorName = name
	}
	if desc, ok := raw["description"].(string); ok {
		b.Description = desc
	}
	if tagsRaw, ok := raw["tags"].([]interface{}); ok {
		b.Tags = make([]string, 0, len(tagsRaw))
		for _, tag := range tagsRaw {
			if tagStr, ok := tag.(string); ok {
				b.Tags = append(b.Tags, tagStr)
			}
		}
	}

	stepsRaw, ok := raw["steps"]
	if !ok || stepsRaw == nil {
		// No steps is valid - just return
		return nil
	}

	stepsSlice, ok := stepsRaw.([]interface{})
	if !ok {
		return fmt.Errorf("'steps' field must be a list")
	}

	b.Steps = make([]Action, len(stepsSlice))
	for i, stepRaw := range stepsSlice {
		stepMap, ok := stepRaw.(map[string]interface{})
		if !ok {
			return fmt.Errorf("step %d: must be a map/object", i+1)
		}

		actionType, ok := stepMap["action"].(string)
		if !ok || actionType == "" {
			return fmt.Errorf("step %d: missing or invalid 'action' field", i+1)
		}

		// Look up the concrete struct type in the registry
		stepType, found := actionRegistry[strings.ToLower(actionType)]
		if !found {
			return fmt.Errorf("step %d: unknown action type '%s' (available types: %v)", i+1, actionType, registeredActions())
		}

		action := reflect.New(stepType).Interface().(Action)

		// Marshal the raw map back to YAML, then unmarshal into the
		// concrete struct
		stepBytes, err := yaml.Marshal(stepMap)
		if err != nil {
			return fmt.Errorf("step %d (%s): error marshaling raw step: %w", i+1, actionType, err)
		}
		if err := yaml.Unmarshal(stepBytes, action); err != nil {
			return fmt.Errorf("step %d (%s): error unmarshaling into %T: %w", i+1, actionType, action, err)
		}

		b.Steps[i] = action
	}

	return nil
}

// Validate checks every step of the behavior.
func (b *Behavior) Validate() error {
	for i, action := range b.Steps {
		if err := action.Validate(); err != nil {
			return fmt.Errorf("behavior '%s' step %d (%s): %w", b.BehaviorName, i+1, action.Name(), err)
		}
	}
	return nil
}

// LoadFromFile reads a YAML file, unmarshals the behavior and validates
// all of its steps.
func LoadFromFile(path string) (*Behavior, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read behavior file %s: %w", path, err)
	}

	var b Behavior
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to unmarshal behavior YAML: %w", err)
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}

	return &b, nil
}
