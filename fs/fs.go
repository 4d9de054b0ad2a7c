package appfs

import "embed"

// FS embeds the database migrations so the binaries can run them without
// shipping the source tree.
//go:embed migrations
var FS embed.FS
