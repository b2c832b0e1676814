// Package main runs zyncmon, a monitor for the zync synchronisation daemon.
package main

import "github.com/zync-tools/zyncmon/internal"

func main() {
	internal.Run()
}
