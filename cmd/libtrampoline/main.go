// Command libtrampoline builds the trampoline writer as a C library:
//
//	go build -buildmode=c-shared -o libtrampoline.so ./cmd/libtrampoline
//
// It exports
//
//	void installTrampoline(void* patchSite, void* destination);
//
// and the same function as redirect_and_clear_cache. Nothing can unwind into
// the C caller, so a fault while patching halts the calling thread instead.
package main

import "C"

import (
	"runtime/debug"
	"time"
	"unsafe"

	"github.com/pboyd/trampoline"
	"github.com/sirupsen/logrus"
)

//export installTrampoline
func installTrampoline(patchSite, destination unsafe.Pointer) {
	defer debug.SetPanicOnFault(debug.SetPanicOnFault(true))
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{
				"site":        patchSite,
				"destination": destination,
			}).Errorf("installing trampoline: %v", r)
			halt()
		}
	}()

	trampoline.Install(patchSite, destination)
}

//export redirect_and_clear_cache
func redirect_and_clear_cache(patchSite, destination unsafe.Pointer) {
	installTrampoline(patchSite, destination)
}

// halt parks the calling thread for good.
var halt = func() {
	for {
		time.Sleep(time.Hour)
	}
}

func main() {}
