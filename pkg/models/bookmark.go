package models

type CreateBookmarkRequest struct {
	Endpoint string `json:"endpoint"`
	Path     string `json:"path" binding:"required"`
	Name     string `json:"name"`
}

type ReorderBookmarksRequest struct {
	IDs []string `json:"ids" binding:"required"`
}
