//go:build !windows

package environ

const foldCase = false
