package database

// Names of the precompiled queries. Callers pass these to Session.QueryNamed.
const (
	QueryCountAccounts = "count_accounts"
)

// NamedQueries maps a query name to its SQL text.
//
// Both engines prepare them on the session's connection at first use, never
// at connect time, so an engine can be opened before the schema exists.
//
// Placeholders use the $N form, which both engines bind positionally.
var NamedQueries = map[string]string{
	QueryCountAccounts: `SELECT COUNT(*) FROM accounts`,
}
