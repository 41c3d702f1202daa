// Command contentctl is the operator tool for the study content store.
//
// Usage:
//
//	contentctl audit flashcard deck.json
//	contentctl workspace create alice --name "Alice"
//	contentctl school create s1 --subject econ=经济学
//	contentctl fsck --repair
//	contentctl duplicates
//	contentctl bulk-promote --school s1 --subject econ alice:flashcard_econ_deck.json
//	contentctl token issue alice --role moderator
//
// Commands other than audit read the server configuration (CONFIG_PATH and
// the environment).
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
