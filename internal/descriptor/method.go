package descriptor

// Method identifies the verb of an inbound operation or an outbound call.
type Method int

const (
	MethodUnspecified Method = iota
	MethodGet
	MethodBatchGet
	MethodFinder
	MethodCreate
	MethodUpdate
	MethodPartialUpdate
	MethodDelete
	MethodGetAll
	MethodAction
)

var methodNames = map[Method]string{
	MethodUnspecified:   "UNSPECIFIED",
	MethodGet:           "GET",
	MethodBatchGet:      "BATCH_GET",
	MethodFinder:        "FINDER",
	MethodCreate:        "CREATE",
	MethodUpdate:        "UPDATE",
	MethodPartialUpdate: "PARTIAL_UPDATE",
	MethodDelete:        "DELETE",
	MethodGetAll:        "GET_ALL",
	MethodAction:        "ACTION",
}

var methodValues = func() map[string]Method {
	m := make(map[string]Method, len(methodNames))
	for method, name := range methodNames {
		m[name] = method
	}
	return m
}()

// String returns the textual method token
func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return "UNSPECIFIED"
}

// ParseMethod parses a textual method token
func ParseMethod(s string) (Method, bool) {
	m, ok := methodValues[s]
	return m, ok
}

// IsAction returns true for the action-kind verb
func (m Method) IsAction() bool {
	return m == MethodAction
}

// BatchVariant returns the batched verb corresponding to a single-item verb,
// if one exists
func (m Method) BatchVariant() (Method, bool) {
	if m == MethodGet {
		return MethodBatchGet, true
	}
	return MethodUnspecified, false
}

// IsBatchable returns true if the verb has a batched counterpart
func (m Method) IsBatchable() bool {
	_, ok := m.BatchVariant()
	return ok
}
