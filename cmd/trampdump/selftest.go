package main

import (
	"errors"
	"fmt"

	"github.com/pboyd/trampoline"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

var selftestCommand = cli.Command{
	Name:   "selftest",
	Usage:  "patch and run code in this process",
	Action: selftest,
}

// Far enough up that only the literal load can reach it from the Go binary.
const highAddr = 0x1_8000_0000

// movz x0, #1; ret
var returnOne = []byte{0x20, 0x00, 0x80, 0xd2, 0xc0, 0x03, 0x5f, 0xd6}

//go:noinline
func zero() int {
	return 0
}

//go:noinline
func one() int {
	return 1
}

func selftest(clicontext *cli.Context) error {
	steps := []struct {
		name string
		run  func() error
	}{
		{"stub", selftestStub},
		{"high address", selftestHighAddress},
		{"redirect", selftestRedirect},
	}
	for _, step := range steps {
		logrus.Debugf("selftest: %s", step.name)
		if err := step.run(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	fmt.Fprintln(clicontext.App.Writer, "ok")
	return nil
}

func selftestStub() error {
	stub, err := trampoline.NewStub(one)
	if err != nil {
		return err
	}
	defer stub.Free()

	logrus.Debugf("stub at %#x", stub.Entry())
	logrus.Debugf("stub code:\n%s", trampoline.Disassemble(stub.Code(), stub.Entry()))

	if got := stub.Func(); got != 1 {
		return fmt.Errorf("stub returned %d, want 1", got)
	}

	if err := stub.Retarget(zero); err != nil {
		return err
	}
	if got := stub.Func(); got != 0 {
		return fmt.Errorf("retargeted stub returned %d, want 0", got)
	}
	return nil
}

// selftestHighAddress jumps to code mapped above 4GiB, which needs all 64
// bits of the literal.
func selftestHighAddress() error {
	page, err := trampoline.MapCode(highAddr, len(returnOne))
	if err != nil {
		logrus.WithError(err).Warnf("skipping jump to %#x", highAddr)
		return nil
	}
	defer page.Unmap()

	if err := page.Write(0, returnOne); err != nil {
		return err
	}

	stub, err := trampoline.NewStubTo[func() int](page.Addr())
	if err != nil {
		return err
	}
	defer stub.Free()

	logrus.Debugf("stub code:\n%s", trampoline.Disassemble(stub.Code(), stub.Entry()))

	if got := stub.Func(); got != 1 {
		return fmt.Errorf("code at %#x returned %d, want 1", page.Addr(), got)
	}
	return nil
}

func selftestRedirect() error {
	err := trampoline.Func(zero, one)
	if errors.Is(err, trampoline.ErrTextReadOnly) {
		logrus.WithError(err).Warn("skipping redirect")
		return nil
	}
	if err != nil {
		return err
	}

	got := zero()
	if err := trampoline.Restore(zero); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	if got != 1 {
		return fmt.Errorf("redirected function returned %d, want 1", got)
	}
	if got := zero(); got != 0 {
		return fmt.Errorf("restored function returned %d, want 0", got)
	}
	return nil
}
