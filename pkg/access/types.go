package access

import "encoding/json"

// Reserved system groups that are never migrated between environments.
var ReservedGroups = map[string]bool{
	"Admins":              true,
	"All users in system": true,
	"Everyone":            true,
}

// RoleSuper is the sysadmin role name. Users holding it are excluded from
// migration.
const RoleSuper = "super"

// Role is a platform role (admin, designer, viewer, ...).
type Role struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// GroupRef is a group reference inside a user record. The API returns either
// a bare ID string or an expanded object depending on the expand parameter.
type GroupRef struct {
	ID   string
	Name string
}

func (g *GroupRef) UnmarshalJSON(b []byte) error {
	var id string
	if err := json.Unmarshal(b, &id); err == nil {
		g.ID = id
		return nil
	}
	var obj struct {
		ID   string `json:"_id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	g.ID = obj.ID
	g.Name = obj.Name
	return nil
}

// User is a platform user. Role and group names are populated only when the
// listing was requested with expand=groups,role.
type User struct {
	ID          string         `json:"_id"`
	Email       string         `json:"email"`
	UserName    string         `json:"userName"`
	FirstName   string         `json:"firstName"`
	LastName    string         `json:"lastName"`
	Role        *Role          `json:"role,omitempty"`
	Groups      []GroupRef     `json:"groups,omitempty"`
	Preferences map[string]any `json:"preferences,omitempty"`
}

// Group is a platform group. The full server record is kept in Raw so that
// migration can forward fields this client does not model.
type Group struct {
	ID   string
	Name string
	Raw  map[string]any
}

func (g *Group) UnmarshalJSON(b []byte) error {
	if err := json.Unmarshal(b, &g.Raw); err != nil {
		return err
	}
	g.ID, _ = g.Raw["_id"].(string)
	g.Name, _ = g.Raw["name"].(string)
	return nil
}

func (g Group) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Raw)
}

// UserPayload is the shape the bulk user-creation endpoint expects. Role and
// group references must already be target-environment IDs.
type UserPayload struct {
	Email       string         `json:"email"`
	FirstName   string         `json:"firstName"`
	LastName    string         `json:"lastName"`
	RoleID      string         `json:"roleId"`
	Groups      []string       `json:"groups"`
	Preferences map[string]any `json:"preferences"`
}

// GroupPayload is the shape the bulk group-creation endpoint expects: the
// source record minus server-managed fields.
type GroupPayload map[string]any

// serverManagedGroupFields are stripped before re-creating a group in
// another environment.
var serverManagedGroupFields = []string{"created", "lastUpdated", "tenantId", "_id"}

// NewGroupPayload builds a creation payload from a source group record.
func NewGroupPayload(g Group) GroupPayload {
	payload := make(GroupPayload, len(g.Raw))
	for k, v := range g.Raw {
		payload[k] = v
	}
	for _, field := range serverManagedGroupFields {
		delete(payload, field)
	}
	return payload
}
