// features.go - build-time feature reporting for --version
//
// Same init()-registration pattern the teacher uses for build-tag-gated
// components (lhasa_fallback.go, voodoo_vulkan_headless.go): a file
// compiled in under a particular build tag appends its own label
// rather than features.go needing to know about every possible build.

package main

import (
	"fmt"
	"runtime"
	"sort"
)

// Version is the core's release string, bumped by hand per tag.
const Version = "0.1.0"

var compiledFeatures []string

func printFeatures() {
	fmt.Printf("cpm8080 %s\n", Version)
	fmt.Printf("  Go version: %s\n", runtime.Version())
	fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Println()
	fmt.Println("Compiled features:")

	sort.Strings(compiledFeatures)
	for _, f := range compiledFeatures {
		fmt.Printf("  %s\n", f)
	}
	if len(compiledFeatures) == 0 {
		fmt.Println("  (none)")
	}
}
