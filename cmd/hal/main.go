// Command hal renders HAL documents from a route config file, lists and
// documents link relations, and serves rel documentation over HTTP.
//
//	hal render person person.json
//	hal rels list
//	hal rels show mco:boss
//	hal serve --addr :8080 --watch
package main

import (
	"os"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
