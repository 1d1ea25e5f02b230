package meld

import "fmt"

// apiBasePath is the fixed prefix all versioned API resources live under.
const apiBasePath = "api/versioned"

// URL locates a resource within a Meld instance.
type URL struct {
	Instance Instance
	Path     string
}

// String returns the absolute resource URL.
func (u URL) String() string {
	return fmt.Sprintf("%s/%s/%s", u.Instance.Origin(), apiBasePath, u.Path)
}

// Join derives a child URL by appending a path element. The receiver is
// unchanged.
func (u URL) Join(elem string) URL {
	u.Path = u.Path + "/" + elem
	return u
}
