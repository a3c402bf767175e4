package utils

import (
	"os"
)

func CreateDir(path string) {
	err := os.MkdirAll(path, 0755) // owner can read, write and execute
	if err != nil && !os.IsExist(err) {
		HandleError(err)
	}
}

// ResetDir removes path and recreates it empty. Used to clear a bundle
// directory before the server writes a fresh set of artifacts.
func ResetDir(path string) {
	if err := os.RemoveAll(path); err != nil {
		HandleError(err)
	}
	CreateDir(path)
}
