// Package assets holds the files shipped inside the binaries: SQL migrations, email and web templates,
// static files and the common passwords list.
package assets

import "embed"

// Directory patterns skip files starting with "_", so the email layouts are listed explicitly.

//go:embed migrations templates static common-passwords.txt.gz
//go:embed templates/email/_base.txt templates/email/_base.gohtml
var FS embed.FS
