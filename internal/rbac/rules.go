package rbac

// Default policy. Operators maintain their organization's assessment;
// specialists review assigned assessments; viewers get read-only dashboards.
var RolePermissions = map[string][]string{
	"viewer": {
		"organization:view",
		"assessment:view",
		"template:view",
		"report:view",
		"statistics:view",
		"user:change_password",
	},
	"operator": {
		"organization:view",
		"assessment:view",
		"assessment:create",
		"assessment:update",
		"assessment:delete",
		"assessment:restore",
		"template:view",
		"evidence:upload",
		"evidence:view",
		"evidence:delete",
		"comment:create",
		"comment:view",
		"report:view",
		"report:generate",
		"statistics:view",
		"user:change_password",
	},
	"specialist": {
		"organization:view",
		"assessment:view",
		"assessment:update",
		"template:view",
		"assignment:view",
		"evidence:view",
		"evidence:upload",
		"comment:create",
		"comment:view",
		"comment:resolve",
		"report:view",
		"user:change_password",
	},
	"admin": {
		"*", // everything
	},
}
