package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/w3bond/internal/ui"
	"github.com/Mohsinsiddi/w3bond/internal/wallet"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var (
	signWallet string
	signHex    bool

	verifySig     string
	verifyAddress string
)

// messageBytes returns the bytes to sign: the argument itself, or its
// decoding when asHex is set.
func messageBytes(arg string, asHex bool) ([]byte, error) {
	if !asHex {
		return []byte(arg), nil
	}
	b, err := hexutil.Decode(arg)
	if err != nil {
		return nil, fmt.Errorf("message %q: %w", arg, err)
	}
	return b, nil
}

var signCmd = &cobra.Command{
	Use:   "sign <message>",
	Short: "Sign a message with EIP-191 (personal_sign)",
	Long: `Sign a message with EIP-191 personal_sign, the same scheme w3bond uses to
prove the caller of every market and token call.

The digest is keccak256("\x19Ethereum Signed Message:\n" + len + message).
With --hex the argument is 0x-prefixed bytes instead of text.

Examples:
  w3bond sign "hello world"
  w3bond sign 0xdeadbeef --hex -w alice`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		msg, err := messageBytes(args[0], signHex)
		if err != nil {
			return err
		}
		w, mgr, err := loadSigningWallet(walletOrDefault(signWallet))
		if err != nil {
			return err
		}
		sig, err := wallet.SignMessage(w, mgr.Keystore(), msg)
		if err != nil {
			return err
		}

		fmt.Println(ui.KeyValueBlock("Signed · "+w.Name, [][2]string{
			{"Signer", ui.Addr(w.Account().Hex())},
			{"Message", args[0]},
			{"Digest", hexutil.Encode(accounts.TextHash(msg))},
			{"Signature", sig.String()},
		}))
		flags := ""
		if signHex {
			flags = " --hex"
		}
		fmt.Println(ui.Hint(fmt.Sprintf("w3bond verify %q --sig %s --address %s%s", args[0], sig, w.Name, flags)))
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <message>",
	Short: "Recover the signer of an EIP-191 message",
	Long: `Recover the address that signed a message. With --address the command
fails unless the signer is that wallet or address.

Examples:
  w3bond verify "hello world" --sig 0x...
  w3bond verify "hello world" --sig 0x... --address alice`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		msg, err := messageBytes(args[0], signHex)
		if err != nil {
			return err
		}
		sig, err := wallet.ParseSignature(verifySig)
		if err != nil {
			return err
		}
		recovered, err := wallet.VerifyMessage(msg, sig)
		if err != nil {
			return err
		}

		pairs := [][2]string{
			{"Message", args[0]},
			{"Signer", ui.Addr(recovered.Hex())},
		}
		if w, ok := newWalletManager().ByAddress(recovered); ok {
			pairs = append(pairs, [2]string{"Wallet", w.Name})
		}
		if verifyAddress == "" {
			fmt.Println(ui.KeyValueBlock("Recovered", pairs))
			return nil
		}

		expected, err := resolveAccount(verifyAddress)
		if err != nil {
			return err
		}
		pairs = append(pairs, [2]string{"Expected", ui.Addr(expected.Hex())})
		fmt.Println(ui.KeyValueBlock("Recovered", pairs))
		if recovered != expected {
			return fmt.Errorf("%w: signed by %s", wallet.ErrBadAuthorization, recovered.Hex())
		}
		fmt.Println(ui.Success("signer matches " + verifyAddress))
		return nil
	},
}

func init() {
	signCmd.Flags().StringVarP(&signWallet, "wallet", "w", "", "signing wallet (default: config)")
	for _, c := range []*cobra.Command{signCmd, verifyCmd} {
		c.Flags().BoolVar(&signHex, "hex", false, "message is 0x-prefixed hex bytes")
	}

	verifyCmd.Flags().StringVar(&verifySig, "sig", "", "0x-prefixed 65-byte signature")
	verifyCmd.Flags().StringVar(&verifyAddress, "address", "", "expected signer, wallet name or address")
	_ = verifyCmd.MarkFlagRequired("sig")
}
