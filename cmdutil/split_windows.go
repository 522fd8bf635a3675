//go:build windows

package cmdutil

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Split tokenizes a Windows command line the way cmd.exe and the MSVC
// runtime's argv parser do, via CommandLineToArgvW. It is used for
// `_CL_`/`CL` inlining and `@response.rsp` inlining against cl.exe.
func Split(cmdline string) ([]string, error) {
	var argc int32
	argsPtr, err := windows.UTF16PtrFromString(cmdline)
	if err != nil {
		return nil, err
	}
	sysArgv, err := windows.CommandLineToArgv(argsPtr, &argc)
	if err != nil {
		return nil, err
	}
	defer windows.LocalFree(windows.Handle(unsafe.Pointer(sysArgv)))
	args := make([]string, argc)
	for i, v := range (*sysArgv)[:argc] {
		args[i] = windows.UTF16PtrToString(v)
	}
	runtime.KeepAlive(argsPtr)
	return args, nil
}
