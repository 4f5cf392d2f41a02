package workflows

import (
	"encoding/json"
	"reflect"
)

// decodeInto normalizes a workflow/activity input of static type any into
// dest (a pointer). The in-memory engine hands handlers the exact value
// passed to StartWorkflow/ExecuteActivity, so a direct assignment succeeds;
// the Temporal adapter decodes through its data converter first, which
// produces a map[string]any for interface-typed parameters, so a JSON
// round-trip is the fallback for everything else.
func decodeInto(input, dest any) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr || dv.IsNil() {
		panic("decodeInto: dest must be a non-nil pointer")
	}
	iv := reflect.ValueOf(input)
	if iv.IsValid() && iv.Type().AssignableTo(dv.Elem().Type()) {
		dv.Elem().Set(iv)
		return nil
	}
	raw, err := json.Marshal(input)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
