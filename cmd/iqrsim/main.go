// Command iqrsim replays packet traces through a single input-queued
// virtual-channel router.
package main

import "github.com/sarchlab/vcrouter/cmd/iqrsim/cmd"

func main() {
	cmd.Execute()
}
