package main

import (
	"github.com/jessevdk/go-flags"
)

type configFlags struct {
	Restore bool   `long:"restore" description:"Restore the key from an existing mnemonic instead of creating a new one"`
	Index   uint32 `long:"index" description:"Index of the key derived from the mnemonic"`
	Output  string `short:"o" long:"output" description:"Write the hex encoded private key to this file, for use with orvd --representativekey"`
}

func parseConfig() (*configFlags, error) {
	cfg := &configFlags{}
	parser := flags.NewParser(cfg, flags.PrintErrors|flags.HelpFlag)
	_, err := parser.Parse()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
