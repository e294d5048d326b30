package lyim

import "strings"

// BaseName returns name with the last occurrence of sep and everything after
// it removed. If sep does not occur in name, name is returned unchanged.
func BaseName(name, sep string) string {
	if sep == "" {
		return name
	}
	if i := strings.LastIndex(name, sep); i >= 0 {
		return name[:i]
	}
	return name
}
