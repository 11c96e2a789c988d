package group

import "github.com/gatherly/gatherly/pkg/model"

// swagger:parameters groupCreate
type _ struct {
	// Create group request body parameter
	// in: body
	// required: true
	Body CreateGroupRequest
}

// swagger:parameters findGroups
type _ struct {
	// in: query
	// required: false
	Category string `json:"category"`

	// Matched against name and description
	// in: query
	// required: false
	Search string `json:"search"`

	// in: query
	// required: false
	Page int `json:"page"`

	// in: query
	// required: false
	Limit int `json:"limit"`
}

// swagger:response Group
type _ struct {
	//in: body
	Group model.Group
}

// swagger:response Groups
type _ struct {
	//in: body
	Groups []model.Group
}
