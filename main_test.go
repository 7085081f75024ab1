//go:build !windows

package main_test

import (
	"os"
	"testing"

	main "calq.dev/calq"
	"fortio.org/testscript"
)

func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"calq": main.Main,
	}))
}

func TestCalqCli(t *testing.T) {
	testscript.Run(t, testscript.Params{Dir: "./"})
}
