package docs

// swagger:parameters deleteGroup
type IdParam struct {
	// in: path
	// required: true
	ID string `json:"id"`
}

// swagger:response
type Error struct {
	// The error message
	//in: body
	Message string
}

// swagger:response
type Message struct {
	//in: body
	Message string `json:"message"`
}
