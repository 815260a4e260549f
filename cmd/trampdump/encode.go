package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/pboyd/trampoline"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

var encodeCommand = cli.Command{
	Name:      "encode",
	Usage:     "print the trampoline for a destination address",
	ArgsUsage: "DESTINATION",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "site",
			Usage: "address the trampoline would be written to",
			Value: "0",
		},
	},
	Action: encode,
}

func encode(clicontext *cli.Context) error {
	if clicontext.NArg() != 1 {
		return errors.New("encode needs exactly one destination")
	}

	dest, err := parseAddress(clicontext.Args().First())
	if err != nil {
		return err
	}
	site, err := parseAddress(clicontext.String("site"))
	if err != nil {
		return err
	}

	logrus.Debugf("encoding jump from %#x to %#x", site, dest)

	buf := make([]byte, trampoline.Size)
	trampoline.Encode(buf, uintptr(dest))

	fmt.Fprintf(clicontext.App.Writer, "% x\n", buf)
	fmt.Fprint(clicontext.App.Writer, trampoline.Disassemble(buf, uintptr(site)))
	return nil
}

func parseAddress(s string) (uint64, error) {
	addr, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return addr, nil
}
