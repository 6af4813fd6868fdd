package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"multisig-registry/internal/adapter/evm"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var (
	signKey     string
	signMessage string
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign a login challenge with a member key",
	Long: `Sign a login challenge as an EIP-191 personal message and print the
0x-prefixed signature expected by POST /api/v1/auth/login.

The message is read from --message, or from stdin when the flag is empty.
The key is read from --key or the MSR_SIGNER_KEY environment variable.`,
	RunE: runSign,
}

func init() {
	signCmd.Flags().StringVar(&signKey, "key", "", "Hex-encoded secp256k1 private key")
	signCmd.Flags().StringVar(&signMessage, "message", "", "Challenge message to sign")
}

func runSign(cmd *cobra.Command, args []string) error {
	key := signKey
	if key == "" {
		key = os.Getenv("MSR_SIGNER_KEY")
	}
	if key == "" {
		return fmt.Errorf("no key: pass --key or set MSR_SIGNER_KEY")
	}
	priv, err := crypto.HexToECDSA(strings.TrimPrefix(key, "0x"))
	if err != nil {
		return fmt.Errorf("parse key: %w", err)
	}

	msg := signMessage
	if msg == "" {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}
		msg = strings.TrimRight(string(raw), "\r\n")
	}

	sig, err := evm.SignMessage([]byte(msg), crypto.FromECDSA(priv))
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "member %s\n", crypto.PubkeyToAddress(priv.PublicKey).Hex())
	fmt.Fprintln(cmd.OutOrStdout(), hexutil.Encode(sig))
	return nil
}
