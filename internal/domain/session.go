package domain

// Persisted record keys.
const (
	KeyToken    = "token"
	KeyRole     = "role"
	KeyUserID   = "userId"
	KeyUserName = "userName"
)

// RecordKeys lists every key of a persisted record in storage order.
var RecordKeys = []string{KeyToken, KeyRole, KeyUserID, KeyUserName}

// Record is the persisted session: four values written and cleared together.
type Record struct {
	Token    string `json:"token"`
	Role     string `json:"role"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

// Complete reports whether all four fields are present.
func (r Record) Complete() bool {
	return r.Token != "" && r.Role != "" && r.UserID != "" && r.UserName != ""
}

// Empty reports whether no field is present.
func (r Record) Empty() bool {
	return r.Token == "" && r.Role == "" && r.UserID == "" && r.UserName == ""
}

// Values returns the record as a key/value map, omitting absent fields.
func (r Record) Values() map[string]string {
	out := make(map[string]string, len(RecordKeys))
	for _, kv := range []struct{ k, v string }{
		{KeyToken, r.Token},
		{KeyRole, r.Role},
		{KeyUserID, r.UserID},
		{KeyUserName, r.UserName},
	} {
		if kv.v != "" {
			out[kv.k] = kv.v
		}
	}
	return out
}

// RecordFromValues builds a record from a key/value map, ignoring unknown keys.
func RecordFromValues(values map[string]string) Record {
	return Record{
		Token:    values[KeyToken],
		Role:     values[KeyRole],
		UserID:   values[KeyUserID],
		UserName: values[KeyUserName],
	}
}

// SessionStatus is the state of the auth session state machine.
type SessionStatus string

const (
	SessionUnknown         SessionStatus = "unknown"
	SessionAuthenticated   SessionStatus = "authenticated"
	SessionUnauthenticated SessionStatus = "unauthenticated"
)

// SessionState is the in-memory view derived from the persisted record.
type SessionState struct {
	Status      SessionStatus
	Role        Role
	SubjectID   string
	DisplayName string
	Loading     bool
}

// IsAuthenticated reports whether the state is Authenticated.
func (s SessionState) IsAuthenticated() bool {
	return s.Status == SessionAuthenticated
}
