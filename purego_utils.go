//go:build darwin || linux

// Shared utilities for the purego-based native bridge.

package extvideo

import (
	"os"
	"path/filepath"
	"runtime"
	"unsafe"
)

// goStringFromPtr converts a C string pointer to a Go string.
func goStringFromPtr(p unsafe.Pointer) string {
	if p == nil {
		return ""
	}
	var length int
	for {
		if *(*byte)(unsafe.Add(p, length)) == 0 {
			break
		}
		length++
		if length > 1024 { // Safety limit
			break
		}
	}
	if length == 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(p), length))
}

// sharedLibName returns the platform file name of lib (without prefix/suffix).
func sharedLibName(lib string) string {
	if runtime.GOOS == "darwin" {
		return "lib" + lib + ".dylib"
	}
	return "lib" + lib + ".so"
}

// nativeLibPaths lists candidate locations for lib, most specific first:
// the explicit env override, MEDIA_SDK_LIB_PATH, paths next to the
// executable, build dirs around the working directory and module root, then
// the system paths.
func nativeLibPaths(lib, envOverride string) []string {
	libName := sharedLibName(lib)
	var paths []string

	if envPath := os.Getenv(envOverride); envPath != "" {
		paths = append(paths, envPath)
	}
	if envPath := os.Getenv("MEDIA_SDK_LIB_PATH"); envPath != "" {
		paths = append(paths, filepath.Join(envPath, libName))
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, libName),
			filepath.Join(exeDir, "..", "lib", libName),
		)
	}

	if wd, err := os.Getwd(); err == nil {
		dir := wd
		for i := 0; i < 4; i++ {
			paths = append(paths,
				filepath.Join(dir, "build", libName),
				filepath.Join(dir, "build", "ffi", libName),
			)
			dir = filepath.Dir(dir)
		}
	}

	for _, root := range []string{findSourceRoot(), findModuleRoot()} {
		if root != "" {
			paths = append(paths,
				filepath.Join(root, "build", libName),
				filepath.Join(root, "build", "ffi", libName),
			)
		}
	}

	switch runtime.GOOS {
	case "darwin":
		paths = append(paths,
			libName,
			filepath.Join("/usr/local/lib", libName),
			filepath.Join("/opt/homebrew/lib", libName),
		)
	case "linux":
		paths = append(paths,
			libName,
			filepath.Join("/usr/local/lib", libName),
			filepath.Join("/usr/lib", libName),
		)
	}
	return paths
}

// findSourceRoot returns the directory of this source file, which is the
// module root in a checkout.
func findSourceRoot() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return ""
	}
	return filepath.Dir(file)
}

// findModuleRoot walks up the directory tree from the current working directory
// to find the module root (directory containing go.mod).
func findModuleRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}
