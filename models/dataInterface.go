package models

// Data is the common shape batch loaders return: either a hydrated row or a
// placeholder built by GetDefault when the id does not exist.
type Data interface {
	GetId() int
	GetDefault(id int) Data
}
