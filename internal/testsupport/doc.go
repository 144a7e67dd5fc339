// Package testsupport holds fixtures shared by package tests: isolated
// configuration rooted in t.TempDir and a ready-to-use attendance store.
package testsupport
