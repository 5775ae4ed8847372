package api

// RevalidateRequest is the body of POST /api/revalidate. Every field is optional.
type RevalidateRequest struct {
	Path string `json:"path,omitempty"`
	Tag  string `json:"tag,omitempty"`
	Type string `json:"type,omitempty"`
}

type RevalidateResponse struct {
	Success     bool               `json:"success"`
	Message     string             `json:"message"`
	Revalidated *RevalidateRequest `json:"revalidated,omitempty"`
	Timestamp   string             `json:"timestamp,omitempty"`
}

// RevalidateUsage is served on GET /api/revalidate.
type RevalidateUsage struct {
	Message string `json:"message"`
	Usage   string `json:"usage"`
}
