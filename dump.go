package mealplanner

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/davecgh/go-spew/spew"
)

// dumpConfig prints pointer fields (optional macros, target calories) by value.
var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	SortKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Dump writes v to stderr prefixed with the caller's file and line. The CLI uses it for -debug.
func Dump(v ...any) {
	dumpTo(os.Stderr, 2, v...)
}

func dumpTo(w io.Writer, skip int, v ...any) {
	_, file, line, _ := runtime.Caller(skip)
	args := append([]any{fmt.Sprintf("%s:%d:", file, line)}, v...)
	dumpConfig.Fdump(w, args...)
}
