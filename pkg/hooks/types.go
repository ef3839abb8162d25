package hooks

// HookType represents the type of hooks.
type HookType string

// Supported hooks types, named after the build step they follow or precede.
const (
	PreDownload HookType = "pre-download"
	PostExtract HookType = "post-extract"
	PostBuild   HookType = "post-build"
	PostPackage HookType = "post-package"
)

// Types lists every supported hook type in pipeline order.
func Types() []HookType {
	return []HookType{PreDownload, PostExtract, PostBuild, PostPackage}
}

// Hook represents a hooks script with its type and content.
type Hook struct {
	Type    HookType
	Content string
}

// HookContext contains information passed to hooks.
type HookContext struct {
	Pkgbase  string
	Version  string
	StartDir string
	SrcDir   string
	PkgDir   string
	Vars     map[string]interface{}
}
