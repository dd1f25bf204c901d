package ame

import (
	"os"
	"path/filepath"
	"strings"
)

// ExtractSystemName splits a model reference into its system name and
// directory. Accepted forms include "4Bars", "4Bars.ame", "4Bars_.sim" and
// any of those behind an absolute or relative path. When the reference has
// no directory part the current working directory is returned.
func ExtractSystemName(ref string) (sysname, syspath string) {
	ref = strings.ReplaceAll(ref, "\\", "/")

	if idx := strings.LastIndex(ref, "/"); idx >= 0 {
		syspath = ref[:idx]
		ref = ref[idx+1:]
	} else {
		cwd, _ := os.Getwd()
		syspath = strings.ReplaceAll(cwd, "\\", "/")
	}

	if idx := strings.LastIndex(ref, "_."); idx >= 0 {
		return ref[:idx], syspath
	}
	if idx := strings.LastIndex(ref, ".ame"); idx >= 0 {
		return ref[:idx], syspath
	}
	return ref, syspath
}

// SystemFile returns the path of a system-level file such as "_.sim" or
// "_.results" for the given model reference.
func SystemFile(ref, suffix string) string {
	name, dir := ExtractSystemName(ref)
	return filepath.Join(dir, name+suffix)
}
