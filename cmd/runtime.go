package cmd

import (
	"context"
	"fmt"

	"github.com/Mohsinsiddi/w3bond/internal/chain"
	"github.com/Mohsinsiddi/w3bond/internal/contract"
	"github.com/Mohsinsiddi/w3bond/internal/state"
	"github.com/Mohsinsiddi/w3bond/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// openStore opens the configured state backend.
func openStore() (state.Store, error) {
	s, err := state.Open(cfg.StateBackend, cfg.Dir())
	if err != nil {
		return nil, fmt.Errorf("opening state: %w", err)
	}
	return s, nil
}

// viewChain runs fn against the stored world without saving anything.
func viewChain(ctx context.Context, fn func(*chain.Local) error) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	w, err := s.Load(ctx)
	if err != nil {
		return err
	}
	l, err := chain.Load(w, logger)
	if err != nil {
		return err
	}
	return fn(l)
}

// updateChain runs fn inside one store transaction. The world is saved only
// if fn succeeds.
func updateChain(ctx context.Context, fn func(*chain.Local) error) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	return s.Update(ctx, func(w *state.World) error {
		l, err := chain.Load(w, logger)
		if err != nil {
			return err
		}
		if err := fn(l); err != nil {
			return err
		}
		l.Commit()
		return nil
	})
}

// caller proves which address is making a call: the signing wallet signs a
// description of it and the recovered address is returned.
func caller(walletName, kind string, to common.Address, method string, args ...any) (common.Address, error) {
	fn, ok := contract.GetBuiltinABI(kind).Function(method)
	if !ok {
		return common.Address{}, fmt.Errorf("%s.%s: %w", kind, method, contract.ErrUnknownEntry)
	}
	data, err := contract.EncodeCall(fn, args...)
	if err != nil {
		return common.Address{}, err
	}
	return authorize(walletName, wallet.Call{Contract: to, Calldata: data})
}

// deployer is caller for contract creation, where there is no target yet.
func deployer(walletName, kind, name string) (common.Address, error) {
	return authorize(walletName, wallet.Call{Calldata: []byte("deploy " + kind + " " + name)})
}

func authorize(walletName string, call wallet.Call) (common.Address, error) {
	w, mgr, err := loadSigningWallet(walletName)
	if err != nil {
		return common.Address{}, err
	}
	auth, err := wallet.NewSigner(w, mgr.Keystore()).Authorize(call)
	if err != nil {
		return common.Address{}, err
	}
	addr, err := wallet.RecoverAs(auth, w.Account())
	if err != nil {
		return common.Address{}, err
	}
	logger.Debug("call authorized",
		zap.String("wallet", w.Name),
		zap.Stringer("caller", addr),
		zap.Stringer("contract", call.Contract),
		zap.Stringer("request", auth.ID))
	return addr, nil
}

// resolveAccount accepts a wallet name or a hex address.
func resolveAccount(nameOrAddr string) (common.Address, error) {
	return newWalletManager().Resolve(nameOrAddr)
}

// walletOrDefault returns flag, or the configured default wallet.
func walletOrDefault(flag string) string {
	if flag != "" {
		return flag
	}
	return cfg.DefaultWallet
}

// selected returns flag, or def, or an error naming how to pick one.
func selected(noun, flag, def string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if def != "" {
		return def, nil
	}
	return "", fmt.Errorf("no %s selected: pass --%s or run `w3bond config set default_%s <name>`", noun, noun, noun)
}
