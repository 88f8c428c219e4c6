package rbac

const (
	PermViewRead        = "view:read"
	PermViewAuthor      = "view:author"
	PermSubmissionRead  = "submission:read"
	PermSubmissionWrite = "submission:write"
	PermProgressWrite   = "progress:write"
	PermEventsRead      = "events:read"
)

// RolePermissions is the default policy.
var RolePermissions = map[string][]string{
	"learner": {
		PermViewRead,
		PermSubmissionRead,
		PermSubmissionWrite,
		PermProgressWrite,
	},
	"author": {
		"view:*",
		PermSubmissionRead,
	},
	// upstream replicator pulling the event log of an offline site
	"replicator": {
		PermEventsRead,
	},
	"admin": {
		"*", // everything
	},
}
