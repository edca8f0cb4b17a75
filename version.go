package vozgraph

import _ "embed"

// Version is the release of the vozgraph module, read from the VERSION file.
//
//go:embed VERSION
var Version string
