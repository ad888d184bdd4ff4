package authz

import (
	"github.com/soportek/helpdesk-api/internal/domain"
)

// Action enumerates the ticket operations governed by the policy table.
type Action string

const (
	ActionView    Action = "view"
	ActionComment Action = "comment"
	ActionAttach  Action = "attach"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
)

// Field names accepted in update requests.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldCategory    = "category"
	FieldStatus      = "status"
	FieldPriority    = "priority"
	FieldAssignedTo  = "assigned_to"
)

// Request carries everything a permission decision depends on. Decisions look
// only at this snapshot, never at history.
type Request struct {
	Action       Action
	Role         domain.Role
	IsOwner      bool
	IsAssigned   bool
	TicketStatus domain.TicketStatus
	Fields       []string
}

// Decision is the outcome of evaluating a Request. AllowedFields is the subset
// of requested fields the actor may change; it is only populated for updates.
type Decision struct {
	Allowed       bool
	AllowedFields []string
	Message       string
}

// relation constrains which tickets a rule applies to.
type relation int

const (
	anyTicket relation = iota
	ownerOrAssignee
	ownerOnly
)

// rule is one cell of the policy table. A nil fields slice means any field may
// be changed; requireClosed restricts the action to closed tickets.
type rule struct {
	relation      relation
	requireClosed bool
	fields        []string
	denyRelation  string
	denyClosed    string
}

var policy = map[Action]map[domain.Role]rule{
	ActionView: {
		domain.RoleAdministrator: {relation: anyTicket},
		domain.RoleTechnician:    {relation: anyTicket},
		domain.RoleEmployee:      {relation: anyTicket},
	},
	ActionComment: {
		domain.RoleAdministrator: {relation: anyTicket},
		domain.RoleTechnician: {
			relation:     ownerOrAssignee,
			denyRelation: "you can only comment on tickets you created or are assigned to",
		},
		domain.RoleEmployee: {
			relation:     ownerOnly,
			denyRelation: "you can only comment on your own tickets",
		},
	},
	ActionAttach: {
		domain.RoleAdministrator: {relation: anyTicket},
		domain.RoleTechnician: {
			relation:     ownerOrAssignee,
			denyRelation: "you can only upload files to tickets you created or are assigned to",
		},
		domain.RoleEmployee: {
			relation:     ownerOnly,
			denyRelation: "you can only upload files to your own tickets",
		},
	},
	ActionUpdate: {
		domain.RoleAdministrator: {relation: anyTicket},
		domain.RoleTechnician: {
			relation:     anyTicket,
			fields:       []string{FieldStatus, FieldPriority, FieldAssignedTo},
			denyRelation: "you do not have permission to edit this ticket",
		},
		domain.RoleEmployee: {
			relation:     ownerOnly,
			fields:       []string{FieldTitle, FieldDescription, FieldPriority},
			denyRelation: "you can only edit your own tickets",
		},
	},
	ActionDelete: {
		domain.RoleAdministrator: {relation: anyTicket},
		domain.RoleTechnician: {
			relation:      ownerOrAssignee,
			requireClosed: true,
			denyRelation:  "you can only delete tickets you created or are assigned to",
			denyClosed:    "you can only delete tickets that are closed",
		},
		domain.RoleEmployee: {
			relation:      ownerOnly,
			requireClosed: true,
			denyRelation:  "you can only delete your own tickets",
			denyClosed:    "you can only delete tickets that are closed",
		},
	},
}

// Evaluate applies the policy table to a single request. It is a pure
// function: the decision depends only on the given role, ownership,
// assignment and requested field set.
func Evaluate(req Request) Decision {
	byRole, ok := policy[req.Action]
	if !ok {
		return Decision{Message: "unknown action"}
	}
	r, ok := byRole[req.Role]
	if !ok {
		return Decision{Message: "unknown role"}
	}

	switch r.relation {
	case ownerOrAssignee:
		if !req.IsOwner && !req.IsAssigned {
			return Decision{Message: r.denyRelation}
		}
	case ownerOnly:
		if !req.IsOwner {
			return Decision{Message: r.denyRelation}
		}
	}

	if r.requireClosed && req.TicketStatus != domain.TicketStatusClosed {
		return Decision{Message: r.denyClosed}
	}

	if req.Action != ActionUpdate {
		return Decision{Allowed: true}
	}

	if r.fields == nil {
		return Decision{Allowed: true, AllowedFields: req.Fields}
	}

	allowed := intersect(req.Fields, r.fields)
	if len(allowed) == 0 {
		// A request carrying zero permitted fields is rejected outright, not
		// silently accepted with no changes.
		return Decision{Message: "you do not have permission to edit these fields"}
	}
	return Decision{Allowed: true, AllowedFields: allowed}
}

func intersect(requested, permitted []string) []string {
	set := make(map[string]struct{}, len(permitted))
	for _, f := range permitted {
		set[f] = struct{}{}
	}
	var out []string
	for _, f := range requested {
		if _, ok := set[f]; ok {
			out = append(out, f)
		}
	}
	return out
}
