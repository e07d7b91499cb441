package client

// ResQueryRequest is the body of a POST to /query.
type ResQueryRequest struct {
	// Kind is the plural resource name, e.g. "apis"
	Kind string `json:"kind"`

	Namespace string `json:"namespace"`
	Name      string `json:"name"`

	// ListAll lists Namespace, or every namespace if it is empty,
	// instead of looking up Name.
	ListAll bool `json:"listAll"`
}

type ResInfo struct {
	IsFind bool `json:"isFind"`
	Count  int  `json:"count"`
	Object any  `json:"object"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
