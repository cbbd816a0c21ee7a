package rbac

const (
	PermContentAuthor = "content:author"
	PermContentView   = "content:view"
)

// Default policy.
var RolePermissions = map[string][]string{
	"reviewer": {
		PermContentView,
	},
	"instructor": {
		PermContentAuthor,
		PermContentView,
	},
	"admin": {
		"*", // everything
	},
}
