package model

// User is a candidate. Credential columns are never selected into this struct.
type User struct {
	ID     string  `db:"id" json:"id"`
	Name   string  `db:"name" json:"name"`
	Email  string  `db:"email" json:"email"`
	Resume *string `db:"resume" json:"resume,omitempty"`
	Image  *string `db:"image" json:"image,omitempty"`
}

// Company is the recruiting party of an interview.
type Company struct {
	ID    string  `db:"id" json:"id"`
	Name  string  `db:"name" json:"name"`
	Email string  `db:"email" json:"email"`
	Image *string `db:"image" json:"image,omitempty"`
}
