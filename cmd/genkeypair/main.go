package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/pkg/errors"
)

func main() {
	cfg, err := parseConfig()
	if err != nil {
		os.Exit(1)
	}

	err = run(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func run(cfg *configFlags) error {
	var mnemonic string
	var err error
	if cfg.Restore {
		mnemonic, err = getMnemonic("Mnemonic: ")
	} else {
		mnemonic, err = createMnemonic()
	}
	if err != nil {
		return err
	}

	keyPair, err := keyPairFromMnemonic(mnemonic, cfg.Index)
	if err != nil {
		return err
	}

	if !cfg.Restore {
		fmt.Println("Mnemonic (keep it safe, it is the only way to restore the key):")
		fmt.Println(mnemonic)
		fmt.Println()
	}
	fmt.Printf("Account: %s\n", keyPair.Account())

	if cfg.Output == "" {
		fmt.Printf("Private key: %x\n", keyPair.PrivateKey())
		return nil
	}

	file, err := os.OpenFile(cfg.Output, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return errors.Wrapf(err, "couldn't create %s", cfg.Output)
	}
	defer file.Close()

	_, err = file.WriteString(hex.EncodeToString(keyPair.PrivateKey()) + "\n")
	if err != nil {
		return errors.WithStack(err)
	}
	fmt.Printf("Private key written to %s\n", cfg.Output)
	return nil
}
