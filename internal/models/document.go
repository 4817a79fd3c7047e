package models

// UploadDocumentRequest is the body of POST /upload-document
type UploadDocumentRequest struct {
	URL string `json:"url"`
}

// DeleteDocumentRequest is the body of POST /delete-document
type DeleteDocumentRequest struct {
	URL string `json:"url"`
}

// UpdateDocumentRequest is the body of POST /update-document
type UpdateDocumentRequest struct {
	OldURL string `json:"old_url"`
	NewURL string `json:"new_url"`
}

// InjectResult reports the outcome of a document injection
type InjectResult struct {
	Success        bool   `json:"success"`
	DocumentsAdded int    `json:"documents_added"`
	FileType       string `json:"file_type,omitempty"`
	Message        string `json:"message"`
}

// DeleteResult reports the outcome of a delete-by-source
type DeleteResult struct {
	Success          bool   `json:"success"`
	DocumentsDeleted int    `json:"documents_deleted"`
	Message          string `json:"message"`
}

// UpdateResult reports deletion and injection outcomes independently so a
// caller can tell full success, partial success and full failure apart.
type UpdateResult struct {
	Success          bool   `json:"success"`
	DocumentsDeleted int    `json:"documents_deleted"`
	DocumentsAdded   int    `json:"documents_added"`
	FileType         string `json:"file_type,omitempty"`
	Message          string `json:"message"`
}
