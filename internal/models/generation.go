package models

// GeneratedStub is the rendered stub of one source module
type GeneratedStub struct {
	Module     string // dotted module name
	SourcePath string // path of the .py file the stub was built from
	FilePath   string // path where the .pyi file is written
	Content    string // rendered stub text
	Functions  int    // number of functions declared by the stub
	Overloads  int    // number of functions split into copy overloads
}

// IsEmpty reports whether the stub declares nothing and should not be written
func (s *GeneratedStub) IsEmpty() bool {
	return s.Content == ""
}
