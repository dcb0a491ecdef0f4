package models

// Entity is implemented by every CRUD resource model.
type Entity interface {
	College | Program | Student
	Field(name string) string
	Identity() (code, name string)
}
