package datamodels

// SchemaSummary is the projection of a data model returned by the schema
// listing endpoint.
type SchemaSummary struct {
	OID   string `json:"oid"`
	Title string `json:"title"`
}

// Schema is a full data model export. Like dashboard exports it is carried
// as-is; only the fields migration needs are accessed through helpers.
type Schema map[string]any

// OID returns the model's oid, if present.
func (s Schema) OID() string {
	oid, _ := s["oid"].(string)
	return oid
}

// Title returns the model's title, if present.
func (s Schema) Title() string {
	title, _ := s["title"].(string)
	return title
}

// Type returns the model type, "extract" or "live".
func (s Schema) Type() string {
	t, _ := s["type"].(string)
	return t
}

// Datasets returns the model's dataset objects.
func (s Schema) Datasets() []map[string]any {
	raw, _ := s["datasets"].([]any)
	datasets := make([]map[string]any, 0, len(raw))
	for _, d := range raw {
		if m, ok := d.(map[string]any); ok {
			datasets = append(datasets, m)
		}
	}
	return datasets
}

// Connection is the connection object embedded in a dataset.
type Connection struct {
	OID        string `json:"oid" mapstructure:"oid"`
	Provider   string `json:"provider" mapstructure:"provider"`
	Parameters any    `json:"parameters,omitempty" mapstructure:"parameters"`
}

// ImportOptions tune a schema import. DatamodelID requests an in-place
// overwrite of an existing model; NewTitle imports under a different title.
// The two are mutually exclusive.
type ImportOptions struct {
	DatamodelID string
	NewTitle    string
}

// PermissionRule is one access-control rule on a data model.
type PermissionRule struct {
	PartyID    string `json:"partyId"`
	Type       string `json:"type"`
	Permission string `json:"permission"`
}

// ConnectionInfo is one entry of the connections listing.
type ConnectionInfo struct {
	OID      string `json:"oid"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
}
