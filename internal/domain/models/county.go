package models

// County is a catalog entry with its model encoding.
type County struct {
	Name string `json:"name"`
	Code int    `json:"code"`
}
