package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Mohsinsiddi/w3bond/internal/chain"
	"github.com/Mohsinsiddi/w3bond/internal/ui"
	"github.com/Mohsinsiddi/w3bond/internal/units"
	"github.com/Mohsinsiddi/w3bond/internal/wallet"
	"github.com/spf13/cobra"
)

var (
	walletKeyFlag string
	walletYes     bool
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage wallets",
	Long: `Manage the wallets that act as callers. Signing wallets keep their key in
the keystore and can buy, sell, mint and transfer; watch-only wallets are
addresses to read balances of.`,
}

var walletAddCmd = &cobra.Command{
	Use:   "add <name> [address]",
	Short: "Add a watch-only address, or a signing wallet with --key",
	Example: `  w3bond wallet add treasury 0x5FbDB2315678afecb367f032d93F642f64180aa3
  w3bond wallet add anvil0 --key 0xac09...ff80`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		mgr := newWalletManager()

		switch {
		case walletKeyFlag != "" && len(args) == 2:
			return fmt.Errorf("pass either an address or --key, not both")
		case walletKeyFlag != "":
			if err := mgr.AddWithKey(name, walletKeyFlag); err != nil {
				return err
			}
		case len(args) == 2:
			if err := mgr.Add(name, &wallet.Wallet{Address: args[1], Type: wallet.TypeWatchOnly}); err != nil {
				return err
			}
		default:
			return fmt.Errorf("address required for a watch-only wallet, or --key for a signing one")
		}

		w, err := mgr.Get(name)
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("%s wallet %q added: %s", walletTypeLabel(w.Type), name, ui.Addr(w.Account().Hex()))))
		fmt.Println(ui.Hint("Set as default with: w3bond wallet use " + name))
		return nil
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List wallets with their native balance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		wallets := newWalletManager().List()
		if len(wallets) == 0 {
			fmt.Println(ui.Info("No wallets configured yet."))
			fmt.Println(ui.Hint("Create one with: w3bond wallet generate alice"))
			return nil
		}

		balances, err := nativeBalances(cmd.Context(), wallets)
		if err != nil {
			return err
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 16},
			{Title: "Address", Width: 42},
			{Title: "Type", Width: 10},
			{Title: "Balance (ETH)", Width: 20, Align: ui.AlignRight},
			{Title: "Default", Width: 7},
		})
		for _, w := range wallets {
			def := ""
			if w.Name == cfg.DefaultWallet {
				def = "✓"
			}
			t.AddRow(ui.Row{w.Name, w.Account().Hex(), walletTypeLabel(w.Type), balances[w.Name], def})
		}
		fmt.Println(t.Render())
		return nil
	},
}

var walletShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show one wallet (default: config)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := cfg.DefaultWallet
		if len(args) == 1 {
			name = args[0]
		}
		if name == "" {
			return fmt.Errorf("no wallet given and no default set")
		}
		w, err := newWalletManager().Get(name)
		if err != nil {
			return err
		}
		balances, err := nativeBalances(cmd.Context(), []*wallet.Wallet{w})
		if err != nil {
			return err
		}
		fmt.Println(ui.KeyValueBlock("Wallet · "+w.Name, [][2]string{
			{"Address", ui.Addr(w.Account().Hex())},
			{"Type", walletTypeLabel(w.Type)},
			{"Balance", balances[w.Name] + " ETH"},
			{"Default", fmt.Sprint(w.Name == cfg.DefaultWallet)},
			{"Created", w.CreatedAt},
		}))
		return nil
	},
}

var walletRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a wallet and its stored key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if !walletYes && !ui.ConfirmDanger(fmt.Sprintf("Remove wallet %q and its stored key?", name)) {
			fmt.Println(ui.Meta("Cancelled."))
			return nil
		}
		if err := newWalletManager().Remove(name); err != nil {
			return err
		}
		if cfg.DefaultWallet == name {
			cfg.DefaultWallet = ""
			if err := cfg.Save(); err != nil {
				return err
			}
		}
		fmt.Println(ui.Success(fmt.Sprintf("Wallet %q removed.", name)))
		return nil
	},
}

var walletUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the default wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := makeDefaultWallet(newWalletManager(), args[0]); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Default wallet set to %q.", args[0])))
		return nil
	},
}

var walletGenerateCmd = &cobra.Command{
	Use:   "generate <name>",
	Short: "Generate a signing wallet",
	Long: `Generate a secp256k1 key and keep it in the keystore. The first wallet
generated becomes the default.

The key is printed once. Re-export it later with: w3bond wallet export <name>`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		mgr := newWalletManager()
		w, hexKey, err := mgr.Generate(name)
		if err != nil {
			return err
		}
		if cfg.DefaultWallet == "" {
			if err := makeDefaultWallet(mgr, name); err != nil {
				return err
			}
		}

		fmt.Println(ui.KeyValueBlock("Wallet · "+w.Name, [][2]string{
			{"Address", ui.Addr(w.Account().Hex())},
			{"Default", fmt.Sprint(cfg.DefaultWallet == name)},
		}))
		showKey(hexKey, "SAVE YOUR PRIVATE KEY. It is shown only once; never share it.")
		return nil
	},
}

var walletExportCmd = &cobra.Command{
	Use:   "export <name>",
	Short: "Print the private key of a signing wallet",
	Long: `Print the stored private key of a signing wallet. Type the wallet name to
confirm; the key is read from the local keystore only.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		fmt.Println(ui.Warn("You are about to reveal a private key."))
		if ui.PromptInput(fmt.Sprintf("Type wallet name %q to confirm", name)) != name {
			fmt.Println(ui.Err("Name mismatch, export cancelled."))
			return nil
		}
		hexKey, err := newWalletManager().ExportKey(name)
		if err != nil {
			return err
		}
		showKey(hexKey, "PRIVATE KEY. Do not share this with anyone.")
		return nil
	},
}

func init() {
	walletAddCmd.Flags().StringVar(&walletKeyFlag, "key", "", "private key of a signing wallet (stored in the keystore)")
	walletRemoveCmd.Flags().BoolVarP(&walletYes, "yes", "y", false, "skip confirmation")
	walletCmd.AddCommand(walletAddCmd, walletListCmd, walletShowCmd, walletRemoveCmd, walletUseCmd,
		walletGenerateCmd, walletExportCmd)
}

func showKey(hexKey, warning string) {
	fmt.Println(ui.DangerBox(ui.Warn(warning) + "\n\n" + ui.Val(hexKey)))
}

// makeDefaultWallet records name as the default in both the wallet file and
// the config.
func makeDefaultWallet(mgr *wallet.Manager, name string) error {
	if err := mgr.SetDefault(name); err != nil {
		return err
	}
	cfg.DefaultWallet = name
	return cfg.Save()
}

// nativeBalances reads each wallet's native balance, formatted in ether.
func nativeBalances(ctx context.Context, wallets []*wallet.Wallet) (map[string]string, error) {
	out := make(map[string]string, len(wallets))
	err := viewChain(ctx, func(l *chain.Local) error {
		for _, w := range wallets {
			out[w.Name] = units.FormatUnits(l.Bank().Balance(w.Account()), 18)
		}
		return nil
	})
	return out, err
}

// walletTypeLabel names a wallet type by what it can do.
func walletTypeLabel(t string) string {
	if t == wallet.TypeSigning {
		return "signing"
	}
	return "watch-only"
}

// newWalletManager creates a Manager backed by the config-dir JSON store and
// the keystore under the same directory.
func newWalletManager() *wallet.Manager {
	store := wallet.NewJSONStore(filepath.Join(cfg.Dir(), "wallets.json"))
	return wallet.NewManager(
		wallet.WithStore(store),
		wallet.WithKeystore(wallet.OpenKeystore(cfg.Dir())),
	)
}

// loadSigningWallet loads a wallet by name and verifies it can sign calls.
// With no name it falls back to the only signing wallet, or asks the user to
// pick one when there are several.
func loadSigningWallet(walletName string) (*wallet.Wallet, *wallet.Manager, error) {
	mgr := newWalletManager()
	if walletName == "" {
		name, err := pickSigningWallet(mgr)
		if err != nil {
			return nil, nil, err
		}
		walletName = name
	}
	w, err := mgr.Get(walletName)
	if err != nil {
		return nil, nil, fmt.Errorf(
			"%w: run `w3bond wallet list` or set a default with `w3bond wallet use <name>`", err)
	}
	if w.Type != wallet.TypeSigning {
		return nil, nil, fmt.Errorf(
			"%w: wallet %q cannot sign\n  To add a signing wallet: w3bond wallet add <name> --key <private-key>",
			wallet.ErrWatchOnly, walletName)
	}
	return w, mgr, nil
}

func pickSigningWallet(mgr *wallet.Manager) (string, error) {
	var items []ui.PickerItem
	for _, w := range mgr.List() {
		if w.Type == wallet.TypeSigning {
			items = append(items, ui.PickerItem{Label: w.Name, SubLabel: ui.TruncateAddr(w.Address), Value: w.Name})
		}
	}
	switch len(items) {
	case 0:
		return "", fmt.Errorf("no signing wallet: run `w3bond wallet generate <name>`")
	case 1:
		return items[0].Value, nil
	}
	picked, err := ui.PickItem("Signing wallet", items)
	if err != nil {
		return "", err
	}
	if picked == "" {
		return "", fmt.Errorf("no wallet selected: pass --wallet or run `w3bond wallet use <name>`")
	}
	return picked, nil
}
