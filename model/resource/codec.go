package resource

import (
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/util/json"
)

// ToUnstructured encodes obj for the dynamic client and stamps the
// apiVersion and kind of k on it. Encoding goes through JSON so custom
// marshalers, and with them unknown fields, are honoured.
func ToUnstructured(obj Object, k Kind) (*unstructured.Unstructured, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("encode %s %q: %w", k.Kind, KeyOf(obj), err)
	}
	content := map[string]interface{}{}
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("encode %s %q: %w", k.Kind, KeyOf(obj), err)
	}
	u := &unstructured.Unstructured{Object: content}
	u.SetAPIVersion(k.APIVersion())
	u.SetKind(k.Kind)
	return u, nil
}

// FromUnstructured decodes u into a new object created by newFunc.
func FromUnstructured[T Object](u *unstructured.Unstructured, newFunc func() T) (T, error) {
	var zero T
	data, err := u.MarshalJSON()
	if err != nil {
		return zero, fmt.Errorf("decode %s %q: %w", u.GetKind(), KeyOf(u), err)
	}
	obj := newFunc()
	if err := json.Unmarshal(data, obj); err != nil {
		return zero, fmt.Errorf("decode %s %q: %w", u.GetKind(), KeyOf(u), err)
	}
	return obj, nil
}
