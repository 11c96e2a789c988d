package upload

import "os"

// swagger:parameters upload
type _ struct {
	// Image to upload. JPEG, PNG, GIF and WebP are accepted
	// in: formData
	// required: true
	// swagger:file
	File *os.File `json:"file"`
}

// swagger:response Upload
type _ struct {
	//in: body
	Body struct {
		URL string `json:"url"`
	}
}
