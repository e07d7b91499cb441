// Package v1 contains the API custom resource, group k8sedit.io,
// version v1.
package v1

import (
	"encoding/json"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/vamseeds/k8sedit/model/resource"
)

var Kind = resource.Kind{
	Group:      "k8sedit.io",
	Version:    "v1",
	Kind:       "API",
	Plural:     "apis",
	Singular:   "api",
	Namespaced: true,
}

func init() {
	resource.RegisterKind(Kind, func() resource.Object { return New() })
}

// API describes one published API. Fields the type does not know are
// kept in Unknown and written back unchanged.
type API struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec APISpec `json:"spec"`

	Unknown resource.UnknownFields `json:"-"`
}

type APISpec struct {
	APIName    string `json:"api-name"`
	APIID      string `json:"api-id"`
	APIVersion string `json:"api-version"`

	Unknown resource.UnknownFields `json:"-"`
}

var _ resource.Object = &API{}

// New returns an empty API with its type meta filled in.
func New() *API {
	return &API{
		TypeMeta: metav1.TypeMeta{APIVersion: Kind.APIVersion(), Kind: Kind.Kind},
	}
}

type apiFields API

func (a *API) UnmarshalJSON(data []byte) error {
	var fields apiFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	unknown, err := resource.CollectUnknownFields(data, "apiVersion", "kind", "metadata", "spec")
	if err != nil {
		return err
	}
	fields.Unknown = unknown
	*a = API(fields)
	return nil
}

func (a API) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(apiFields(a))
	if err != nil {
		return nil, err
	}
	return a.Unknown.MergeInto(data)
}

type apiSpecFields APISpec

func (s *APISpec) UnmarshalJSON(data []byte) error {
	var fields apiSpecFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	unknown, err := resource.CollectUnknownFields(data, "api-name", "api-id", "api-version")
	if err != nil {
		return err
	}
	fields.Unknown = unknown
	*s = APISpec(fields)
	return nil
}

func (s APISpec) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(apiSpecFields(s))
	if err != nil {
		return nil, err
	}
	return s.Unknown.MergeInto(data)
}
