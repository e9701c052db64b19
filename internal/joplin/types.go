package joplin

// NotePayload is the body of POST /notes. Either or both of Body and
// BodyHTML are set; Joplin converts body_html to Markdown and prefers it.
type NotePayload struct {
	Title    string `json:"title"`
	ParentID string `json:"parent_id"`
	Body     string `json:"body,omitempty"`
	BodyHTML string `json:"body_html,omitempty"`
}

// Note is a note as returned by the API (only the requested fields).
type Note struct {
	ID   string `json:"id"`
	Body string `json:"body"`
}

// Tag is a Joplin tag.
type Tag struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Resource is an uploaded attachment.
type Resource struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Folder is a Joplin notebook.
type Folder struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	ParentID string `json:"parent_id"`
}

// searchResponse is the paginated envelope of GET /search and list endpoints.
type searchResponse[T any] struct {
	Items   []T  `json:"items"`
	HasMore bool `json:"has_more"`
}

// noteUpdate is the body of PUT /notes/{id}.
type noteUpdate struct {
	Body string `json:"body"`
}

// tagCreate is the body of POST /tags.
type tagCreate struct {
	Title string `json:"title"`
}

// tagLink is the body of POST /tags/{id}/notes.
type tagLink struct {
	ID string `json:"id"`
}

// resourceProps is the "props" field of POST /resources.
type resourceProps struct {
	Title string `json:"title"`
}
