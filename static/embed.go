// Package staticfiles embeds the front-end assets served at the app root.
package staticfiles

import (
	"embed"
	"io/fs"
)

//go:embed app css js
var embedded embed.FS

func EmbeddedFS() fs.FS {
	return embedded
}
