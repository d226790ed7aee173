package main

import (
	"fmt"
	"os"
	"strings"

	cli "github.com/spf13/pflag"

	"voxd/internal/ipc"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: voxctl [--socket path] trigger | say <text>")
	cli.PrintDefaults()
}

func main() {
	socket := cli.StringP("socket", "s", ipc.DefaultSocketPath(), "Control socket of voxd")
	cli.Usage = usage
	cli.Parse()

	args := cli.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	var msg ipc.ControlMessage
	switch args[0] {
	case ipc.CmdTrigger:
		msg.Cmd = ipc.CmdTrigger
	case ipc.CmdSay:
		if len(args) < 2 {
			usage()
			os.Exit(2)
		}
		msg.Cmd = ipc.CmdSay
		msg.Text = strings.Join(args[1:], " ")
	default:
		usage()
		os.Exit(2)
	}

	if err := ipc.Send(*socket, msg); err != nil {
		fmt.Println("voxd not running:", err)
		os.Exit(1)
	}
}
