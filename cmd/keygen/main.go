// Command keygen generates an Ed25519 signing keypair for license
// tokens. The seed goes into LICENSE_SIGNING_KEY on the issuing server;
// the public key can be distributed to verifiers.
package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
)

func main() {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: generate keypair: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("LICENSE_SIGNING_KEY=%s\n", base64.StdEncoding.EncodeToString(priv.Seed()))
	fmt.Printf("LICENSE_PUBLIC_KEY=%s\n", base64.StdEncoding.EncodeToString(pub))
}
