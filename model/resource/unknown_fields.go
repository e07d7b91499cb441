package resource

import (
	"bytes"

	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/json"
)

// UnknownFields keeps the JSON members a type does not model, so an
// object read from the store can be written back without losing them.
type UnknownFields map[string]interface{}

// CollectUnknownFields returns the members of the JSON object in data
// whose names are not in known. It returns nil when there are none.
func CollectUnknownFields(data []byte, known ...string) (UnknownFields, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, nil
	}
	all := map[string]interface{}{}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, name := range known {
		delete(all, name)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return UnknownFields(all), nil
}

// MergeInto adds the unknown members to the JSON object in data. Members
// already present in data win.
func (u UnknownFields) MergeInto(data []byte) ([]byte, error) {
	if len(u) == 0 {
		return data, nil
	}
	all := map[string]interface{}{}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for name, value := range u {
		if _, exists := all[name]; !exists {
			all[name] = value
		}
	}
	return json.Marshal(all)
}

func (u UnknownFields) DeepCopy() UnknownFields {
	if u == nil {
		return nil
	}
	return UnknownFields(runtime.DeepCopyJSON(u))
}
