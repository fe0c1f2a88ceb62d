// Package authz decides what each role may do. Every action is listed
// explicitly so an unknown role or action is always denied.
package authz

import "github.com/smilebright/booking-api/internal/model"

// Action names a guarded operation.
type Action string

const (
	ActionListAllAppointments Action = "appointments:list_all"
	ActionManageAppointments  Action = "appointments:manage"
	ActionReplyAppointment    Action = "appointments:reply"
	ActionCreateAppointment   Action = "appointments:create"
	ActionManageStaff         Action = "staff:manage"
	ActionViewStaff           Action = "staff:view"
	ActionCreateAdmin         Action = "admin:create"
)

var permissions = map[model.Role]map[Action]bool{
	model.RoleAdmin: {
		ActionListAllAppointments: true,
		ActionManageAppointments:  true,
		ActionReplyAppointment:    true,
		ActionCreateAppointment:   true,
		ActionManageStaff:         true,
		ActionViewStaff:           true,
		ActionCreateAdmin:         true,
	},
	model.RoleStaff: {
		ActionListAllAppointments: true,
		ActionManageAppointments:  true,
		ActionReplyAppointment:    true,
		ActionCreateAppointment:   true,
		ActionManageStaff:         false,
		ActionViewStaff:           true,
		ActionCreateAdmin:         false,
	},
	model.RolePatient: {
		ActionListAllAppointments: false,
		ActionManageAppointments:  false,
		ActionReplyAppointment:    true,
		ActionCreateAppointment:   true,
		ActionManageStaff:         false,
		ActionViewStaff:           true,
		ActionCreateAdmin:         false,
	},
}

// Can reports whether role may perform action. Unknown roles and
// unknown actions are denied.
func Can(role model.Role, action Action) bool {
	actions, ok := permissions[role]
	if !ok {
		return false
	}
	return actions[action]
}
