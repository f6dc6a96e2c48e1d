package dashboards

// Summary is the projection of a dashboard returned by the search endpoint.
type Summary struct {
	OID   string `json:"oid"`
	Title string `json:"title"`
}

// Document is a full dashboard export. The export format is large and
// version-dependent, so it is carried as-is and re-posted to the import
// endpoint without structural interpretation.
type Document map[string]any

// OID returns the dashboard's oid, if present.
func (d Document) OID() string {
	oid, _ := d["oid"].(string)
	return oid
}

// Title returns the dashboard's title, if present.
func (d Document) Title() string {
	title, _ := d["title"].(string)
	return title
}

// Share is one access-control rule on a dashboard. UserName and Name are
// populated by the platform for display and used here to detect duplicate
// rules; the import API only consumes ShareID, Type, Rule, and Subscribe.
type Share struct {
	ShareID   string `json:"shareId"`
	Type      string `json:"type"`
	Rule      string `json:"rule,omitempty"`
	Subscribe bool   `json:"subscribe"`
	UserName  string `json:"userName,omitempty"`
	Name      string `json:"name,omitempty"`
}

// PartyKey identifies the share's party for duplicate detection.
func (s Share) PartyKey() string {
	if s.Type == "group" {
		return "group:" + s.Name
	}
	return "user:" + s.UserName
}

// Owner is the owning user recorded on a dashboard's share list.
type Owner struct {
	ID       string `json:"_id"`
	UserName string `json:"userName"`
}

// ShareSet is a dashboard's full access-control state.
type ShareSet struct {
	Owner    *Owner  `json:"owner,omitempty"`
	SharesTo []Share `json:"sharesTo"`
}

// ImportedDashboard is one entry of the bulk-import response.
type ImportedDashboard struct {
	OID   string `json:"oid"`
	Title string `json:"title"`
}

// ImportFailure is one failed entry of the bulk-import response.
type ImportFailure struct {
	Title  string
	Reason string
}

// ImportResult is the parsed outcome of a bulk dashboard import.
type ImportResult struct {
	Succeeded []ImportedDashboard
	Skipped   []ImportedDashboard
	Failed    []ImportFailure
}
