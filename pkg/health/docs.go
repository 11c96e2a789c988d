package health

// swagger:response Health
type _ struct {
	//in: body
	Body struct {
		Success      bool              `json:"success"`
		Dependencies map[string]string `json:"dependencies"`
	}
}
