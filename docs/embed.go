// Package docs bundles the guides printed by "tendr docs".
package docs

import "embed"

// FS holds one markdown file per topic under guide/.
//
//go:embed guide
var FS embed.FS
