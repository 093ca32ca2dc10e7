package gitlib

// File is a blob entry of a commit tree.
type File struct {
	Name string
	Hash Hash
}
