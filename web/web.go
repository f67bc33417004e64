// Package web carries the embedded single-page dashboard served at /.
package web

import _ "embed"

//go:embed index.html
var IndexHTML string
