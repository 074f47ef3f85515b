package behavior

import "reflect"

// actionRegistry maps YAML action names to their concrete Go types.
// This enables polymorphic unmarshaling of Action interfaces from YAML.
// Actions are mapped lowercase to allow for fuzzy script writing.
//
// To add a new action:
// 1. Create a struct that implements the Action interface
// 2. Add it to this registry with the name used in YAML files
var actionRegistry = map[string]reflect.Type{
	"tap":      reflect.TypeOf(Tap{}),
	"swipe":    reflect.TypeOf(Swipe{}),
	"send_key": reflect.TypeOf(SendKey{}),
	"input":    reflect.TypeOf(Input{}),
	"sleep":    reflect.TypeOf(Sleep{}),
	"wait":     reflect.TypeOf(Wait{}),
}

// registeredActions returns all registered action names for error
// messages.
func registeredActions() []string {
	names := make([]string, 0, len(actionRegistry))
	for name := range actionRegistry {
		names = append(names, name)
	}
	return names
}
